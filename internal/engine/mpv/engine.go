// Package mpv drives an external mpv process over its JSON IPC socket as a playback engine.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/surface"
)

type Config struct {
	// Path to the mpv binary.
	Path string
	// Args are extra command line arguments, split with ParseArgs.
	Args string
	// SocketPath overrides the generated IPC socket path.
	SocketPath string

	ConnectAttempts   int
	ConnectRetryDelay time.Duration
	// RequestTimeout bounds the blocking requests.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Path:              "mpv",
		ConnectAttempts:   20,
		ConnectRetryDelay: 250 * time.Millisecond,
		RequestTimeout:    2 * time.Second,
	}
}

// Engine is an engine.Engine backed by one mpv process.  The process is started by the first PrepareAsync and lives
// until Release.
//
// Every method must be called on the event loop; IPC traffic is handed back to it through post.
type Engine struct {
	cfg        Config
	post       func(func())
	logger     *log.Logger
	socketPath string

	listener      engine.Listener
	client        commander
	cmd           *exec.Cmd
	props         props
	playWhenReady bool
	lastState     engine.State
	lastPWR       bool
	source        engine.Source

	prepareGen  int
	cancelStart context.CancelFunc
	released    bool
}

var (
	_ engine.Engine       = (*Engine)(nil)
	_ engine.Fullscreener = (*Engine)(nil)
)

func New(cfg Config, post func(func())) *Engine {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = SocketPath()
	}
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	return &Engine{
		cfg:        cfg,
		post:       post,
		logger:     log.With("component", "mpv", "socket", socketPath),
		socketPath: socketPath,
		props:      props{idle: true},
	}
}

func (e *Engine) SetListener(l engine.Listener) { e.listener = l }

func (e *Engine) PrepareAsync(src engine.Source, done func(error)) {
	e.prepareGen++
	gen := e.prepareGen
	e.source = src

	if e.client != nil {
		e.load(src)
		done(nil)
		return
	}

	e.logger.Info("Starting mpv", "path", e.cfg.Path)
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelStart = cancel
	go func() {
		client, cmd, err := e.start(ctx)
		e.post(func() {
			cancel()
			if gen != e.prepareGen || e.released {
				if err == nil {
					e.logger.Debug("Build was cancelled, shutting mpv down")
					shutdown(client, cmd)
				}
				return
			}
			e.cancelStart = nil
			if err != nil {
				done(fmt.Errorf("failed to start mpv: %w", err))
				return
			}
			e.client, e.cmd = client, cmd
			e.load(src)
			done(nil)
		})
	}()
}

func (e *Engine) CancelPrepare() {
	e.prepareGen++
	if e.cancelStart != nil {
		e.cancelStart()
		e.cancelStart = nil
	}
}

func (e *Engine) SetPlayWhenReady(play bool) {
	e.playWhenReady = play
	e.props.pause = !play
	e.command("set_property", "pause", !play)
	e.notifyIfChanged()
}

func (e *Engine) PlayWhenReady() bool { return e.playWhenReady }

func (e *Engine) SeekTo(pos time.Duration) {
	e.command("seek", pos.Seconds(), "absolute+exact")
	e.props.timePos = pos.Seconds()
}

func (e *Engine) State() engine.State             { return e.props.state() }
func (e *Engine) Position() time.Duration         { return e.props.position() }
func (e *Engine) Duration() time.Duration         { return seconds(e.props.duration) }
func (e *Engine) BufferedPosition() time.Duration { return e.props.bufferedPosition() }
func (e *Engine) BufferedPercentage() int         { return e.props.bufferedPercentage() }
func (e *Engine) SetMuted(muted bool)             { e.command("set_property", "mute", muted) }
func (e *Engine) SetVolume(volume float64)        { e.command("set_property", "volume", volume*100) }

// SetSurface points mpv's video output at the window behind h.  mpv has no detached video output, so "no surface"
// turns video decoding off.
func (e *Engine) SetSurface(h surface.Handle, block bool) {
	if e.client == nil {
		return
	}
	if h.Valid() {
		e.command("set_property", "wid", h.Resource().ID())
		e.command("set_property", "vid", "auto")
		return
	}
	if !block {
		e.command("set_property", "vid", "no")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
	defer cancel()
	if _, err := e.client.Request(ctx, "set_property", "vid", "no"); err != nil {
		e.logger.Warn("mpv did not confirm releasing the video output", "error", err)
	}
}

// SetFullscreen toggles mpv's own window between windowed and fullscreen.  The request waits for mpv's reply, so it
// is sent off the loop over the client connected at the time of the call.
func (e *Engine) SetFullscreen(fullscreen bool, done func(error)) {
	client := e.client
	if client == nil {
		e.post(func() { done(ErrNotConnected) })
		return
	}
	timeout := e.cfg.RequestTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := client.Request(ctx, "set_property", "fullscreen", fullscreen)
		if err != nil {
			err = fmt.Errorf("failed to set fullscreen: %w", err)
		}
		e.post(func() { done(err) })
	}()
}

func (e *Engine) Stop() {
	e.command("stop")
	e.props.loading = false
	e.props.idle = true
	e.notifyIfChanged()
}

func (e *Engine) Release() {
	if e.released {
		return
	}
	e.logger.Info("Releasing mpv")
	e.released = true
	e.CancelPrepare()
	e.listener = nil

	if e.client != nil {
		if err := e.client.Command("quit"); err != nil {
			e.logger.Debug("Failed to ask mpv to quit", "error", err)
		}
	}
	shutdown(e.client, e.cmd)
	e.client, e.cmd = nil, nil

	if runtime.GOOS != "windows" {
		if err := os.Remove(e.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("Failed to remove mpv socket file", "path", e.socketPath, "error", err)
		}
	}
}

// start launches mpv and connects to it.  It runs off the event loop and must not touch loop-owned state.
func (e *Engine) start(ctx context.Context) (commander, *exec.Cmd, error) {
	args := []string{
		"--idle=yes",
		"--keep-open=yes",
		"--pause=yes",
		"--no-terminal",
		"--input-ipc-server=" + e.socketPath,
	}
	args = append(args, ParseArgs(e.cfg.Args)...)

	cmd := exec.Command(e.cfg.Path, args...)
	setupProcess(cmd)
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to launch %s: %w", e.cfg.Path, err)
	}
	go func() {
		err := cmd.Wait()
		log.Debug("mpv exited", "error", err)
	}()

	var client *ipcClient
	client = newIPCClient(e.socketPath,
		func(msg message) { e.post(func() { e.handleEvent(client, msg) }) },
		func(err error) { e.post(func() { e.handleDisconnect(client, err) }) },
	)
	if err := client.WaitForConnection(ctx, e.cfg.ConnectAttempts, e.cfg.ConnectRetryDelay); err != nil {
		shutdown(nil, cmd)
		return nil, nil, err
	}
	for _, p := range observedProperties {
		if err := client.Command("observe_property", p.id, p.name); err != nil {
			shutdown(client, cmd)
			return nil, nil, fmt.Errorf("failed to observe %s: %w", p.name, err)
		}
	}
	return client, cmd, nil
}

func (e *Engine) load(src engine.Source) {
	e.logger.Debug("Loading media", "uri", src.URI)
	e.props.loading = true
	e.props.eof = false
	e.command("set_property", "pause", !e.playWhenReady)
	e.command("loadfile", src.URI, "replace")
	e.notifyIfChanged()
}

func (e *Engine) handleEvent(c commander, msg message) {
	if e.released || c != e.client {
		return
	}

	switch msg.Event {
	case "property-change":
		w, h := e.props.width, e.props.height
		if !e.props.apply(msg.Name, msg.Data) {
			return
		}
		if msg.Name == "pause" {
			e.playWhenReady = !e.props.pause
		}
		if (w != e.props.width || h != e.props.height) && e.props.width > 0 && e.props.height > 0 {
			if e.listener != nil {
				e.listener.OnVideoSizeChanged(e.props.width, e.props.height)
			}
		}
	case "start-file":
		e.props.loading = true
	case "file-loaded":
		e.props.loading = false
	case "end-file":
		e.props.loading = false
		if msg.Reason == "error" {
			err := fmt.Errorf("mpv could not play %s: %s", e.source.URI, msg.FileError)
			e.logger.Error("Playback failed", "error", err)
			if e.listener != nil {
				e.listener.OnError(err)
			}
		}
	default:
		log.Trace("Ignoring mpv event", "event", msg.Event)
		return
	}
	e.notifyIfChanged()
}

func (e *Engine) handleDisconnect(c commander, err error) {
	if e.released || c != e.client {
		return
	}
	e.logger.Error("Lost connection to mpv", "error", err)
	e.client = nil
	if e.listener != nil {
		e.listener.OnError(err)
	}
}

func (e *Engine) notifyIfChanged() {
	state := e.props.state()
	if state == e.lastState && e.playWhenReady == e.lastPWR {
		return
	}
	old := e.lastState
	e.lastState, e.lastPWR = state, e.playWhenReady
	if e.listener != nil {
		e.listener.OnStateChanged(e.playWhenReady, old, state)
	}
}

func (e *Engine) command(args ...any) {
	if e.client == nil {
		return
	}
	if err := e.client.Command(args...); err != nil {
		e.logger.Warn("Failed to send mpv command", "command", args[0], "error", err)
	}
}

func shutdown(client commander, cmd *exec.Cmd) {
	if client != nil {
		_ = client.Close()
	}
	if cmd != nil {
		if err := stopProcess(cmd); err != nil {
			log.Debug("Failed to stop mpv process", "error", err)
		}
	}
}
