package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/PizzaHomicide/reelcore/internal/config"
	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/player"
	"github.com/PizzaHomicide/reelcore/internal/timer"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui"
	"github.com/PizzaHomicide/reelcore/internal/version"
)

// releaseTimeout bounds how long shutdown waits for the engine to be released on the event loop
const releaseTimeout = 5 * time.Second

var (
	windowID string
	paused   bool
	muted    bool
	seek     float64
)

func init() {
	rootCmd.Flags().StringVarP(&windowID, "window", "w", tui.DefaultWindowID, "Native window id to draw the video into")
	rootCmd.Flags().BoolVarP(&paused, "paused", "p", false, "Start paused")
	rootCmd.Flags().BoolVarP(&muted, "mute", "m", false, "Start muted")
	rootCmd.Flags().Float64VarP(&seek, "seek", "s", 0, "Starting position as a fraction of the duration, 0 to 1")
}

var rootCmd = &cobra.Command{
	Use:          "reelcore [flags] <uri>",
	Short:        "Play a video in mpv and control it from the terminal",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args[0])
	},
}

func run(cmd *cobra.Command, uri string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logger.Close()
	log.SetDefaultLogger(logger)

	log.Info("Starting up Reelcore", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	opts, err := player.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid video config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("paused") {
		opts.Props.Paused = paused
	}
	if flags.Changed("mute") {
		opts.Props.Muted = muted
	}
	if flags.Changed("seek") {
		if seek < 0 || seek > 1 {
			return fmt.Errorf("--seek must be between 0 and 1, got %v", seek)
		}
		opts.Props.Seek = seek
	}

	src := engine.ParseSource(uri)
	if err := play(cmd.Context(), cfg, opts, src); err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		return err
	}

	log.Info("Reelcore shutting down.  Goodbye!")
	return nil
}

// play runs the event loop and the TUI until the user quits, then releases the player on the loop before stopping it.
func play(ctx context.Context, cfg *config.Config, opts player.Options, src engine.Source) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	loop := timer.NewLoop()
	bridge := tui.NewBridge(loop.Post, windowID)
	factory := bridge.WrapFactory(player.NewEngineFactory(cfg, loop.Post))

	events := event.NewBroadcaster()
	defer events.Close()
	program := tui.New(ctx, src.URI, opts.Props, events.Subscribe(), bridge)

	// The loop outlives the program so the engine can still be released after the TUI exits
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	var g errgroup.Group
	g.Go(func() error {
		return loop.Run(loopCtx)
	})
	g.Go(func() error {
		defer stopLoop()

		_, err := program.Run()

		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if callErr := loop.Call(releaseCtx, bridge.Release); callErr != nil {
			log.Warn("Player was not released in time", "error", callErr)
		}
		if dropped := events.Dropped(); dropped > 0 {
			log.Debug("Events dropped by slow subscribers", "count", dropped)
		}

		if errors.Is(err, tea.ErrProgramKilled) {
			log.Info("Interrupted, shutting down")
			return nil
		}
		return err
	})

	loop.Post(func() {
		p := player.New(loop, factory, bridge, events, opts)
		bridge.Attach(p, src)
	})

	return g.Wait()
}
