// Package player wires the playback core together behind one object a host can embed.
//
// A Player owns the playback state machine, the surface manager, the fullscreen presentation and the transport
// controls, all scheduled on the same timer queue.  Every method must be called from the goroutine driving that
// queue.
package player

import (
	"time"

	"github.com/PizzaHomicide/reelcore/internal/config"
	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/playback"
	"github.com/PizzaHomicide/reelcore/internal/presentation"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/timer"
	"github.com/PizzaHomicide/reelcore/internal/transport"
)

// Host is everything the embedding UI provides: the control widgets, the view showing the video and the ability to
// move that view into a fullscreen container.
type Host interface {
	transport.View
	presentation.Host
	surface.View
	// SetChromeHidden hides or restores the host's own navigation chrome.
	SetChromeHidden(hidden bool)
}

// Props are the user facing properties of the player.
type Props struct {
	ResizeMode surface.ScaleMode
	Repeat     bool
	Paused     bool
	Muted      bool
	Volume     float64
	// Seek is the starting position as a fraction of the duration.
	Seek float64
	// Controls shows the transport overlay.
	Controls bool
	// AutoHideNav hides the host chrome while fullscreen and the controls are hidden.
	AutoHideNav bool
}

type Options struct {
	Props     Props
	Playback  playback.Options
	Transport transport.Options
}

func DefaultOptions() Options {
	return Options{
		Props: Props{
			ResizeMode:  surface.ScaleFitCenter,
			Volume:      1,
			Controls:    true,
			AutoHideNav: true,
		},
		Playback:  playback.DefaultOptions(),
		Transport: transport.DefaultOptions(),
	}
}

// OptionsFromConfig maps the configuration file onto player options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	mode, err := surface.ParseScaleMode(cfg.Video.ResizeMode)
	if err != nil {
		return Options{}, err
	}

	opts := DefaultOptions()
	opts.Props = Props{
		ResizeMode:  mode,
		Repeat:      cfg.Video.Repeat,
		Paused:      cfg.Video.Paused,
		Muted:       cfg.Video.Muted,
		Volume:      cfg.Video.VolumeLevel(),
		Seek:        cfg.Video.Seek,
		Controls:    cfg.Controls.IsEnabled(),
		AutoHideNav: cfg.Controls.IsAutoHideNav(),
	}
	opts.Playback = playback.Options{
		ProgressInterval:  cfg.Playback.ProgressInterval,
		BufferInterval:    cfg.Playback.BufferInterval,
		SeekToBeginOnStop: cfg.Playback.IsSeekToBeginOnStop(),
	}
	opts.Transport = transport.Options{
		Timeout:          cfg.Controls.Timeout,
		ProgressInterval: cfg.Controls.ProgressInterval,
		SeekStep:         cfg.Controls.SeekStep,
		ResumeOnTap:      cfg.Controls.ResumeOnTap,
	}
	return opts, nil
}

type Player struct {
	host   Host
	props  Props
	logger *log.Logger

	machine      *playback.Machine
	surface      *surface.Manager
	presentation *presentation.Controller
	transport    *transport.Controller

	seekPending  bool
	initialSeek  *timer.Callback
	chromeHidden bool
	released     bool
}

var _ transport.Player = (*Player)(nil)

// New builds a player.  Events go to sink, which may be nil, after the transport controls have seen them.
func New(queue timer.Queue, factory engine.Factory, host Host, sink event.Sink, opts Options) *Player {
	p := &Player{
		host:   host,
		props:  opts.Props,
		logger: log.With("component", "player"),
	}

	p.transport = transport.New(queue, p, host, opts.Transport)
	events := event.Multi{p.transport, sink, event.SinkFunc(p.onEvent)}

	p.machine = playback.NewMachine(queue, factory, events, opts.Playback)
	p.surface = surface.NewManager(host, p.machine)
	p.machine.SetScaler(p.surface)
	p.machine.SetVideoSizeListener(p.surface.SetSourceSize)
	p.presentation = presentation.New(host, p.surface, events)

	// The starting seek runs after the Load event has reached every sink.
	p.initialSeek = timer.NewCallback(queue, 0, func() bool {
		p.applyInitialSeek()
		return false
	})

	p.transport.OnVisibilityChanged(func(bool) { p.updateChrome() })
	p.presentation.OnModeChanged(func(presentation.Mode) { p.updateChrome() })

	p.applyProps()
	return p
}

func (p *Player) applyProps() {
	props := p.props
	p.machine.SetResizeMode(props.ResizeMode)
	p.machine.SetRepeat(props.Repeat)
	p.machine.SetMute(props.Muted)
	p.machine.SetVolume(props.Volume)
	p.machine.SetPlayWhenReady(!props.Paused)
	p.transport.SetEnabled(props.Controls)
	p.logger.Debug("Applied player properties", "resize_mode", props.ResizeMode, "repeat", props.Repeat,
		"paused", props.Paused, "muted", props.Muted, "volume", props.Volume, "seek", props.Seek,
		"controls", props.Controls, "auto_hide_nav", props.AutoHideNav)
}

// SetSource loads a new source.  The configured starting seek applies again once it has loaded.
func (p *Player) SetSource(src engine.Source) {
	p.seekPending = p.props.Seek > 0
	p.machine.Prepare(src)
}

func (p *Player) SetResizeMode(mode surface.ScaleMode) {
	p.props.ResizeMode = mode
	p.machine.SetResizeMode(mode)
}

func (p *Player) SetRepeat(repeat bool) {
	p.props.Repeat = repeat
	p.machine.SetRepeat(repeat)
}

func (p *Player) SetPaused(paused bool) {
	p.props.Paused = paused
	p.machine.SetPlayWhenReady(!paused)
}

func (p *Player) SetMuted(muted bool) {
	p.props.Muted = muted
	p.machine.SetMute(muted)
}

func (p *Player) SetVolume(volume float64) {
	p.props.Volume = min(max(volume, 0), 1)
	p.machine.SetVolume(volume)
}

// SetSeek moves to a fraction of the duration, or remembers it until the duration is known.
func (p *Player) SetSeek(fraction float64) {
	p.props.Seek = min(max(fraction, 0), 1)
	if p.machine.Duration() > 0 {
		p.seekPending = false
		p.machine.SeekTo(p.fractionOf(p.machine.Duration()))
		return
	}
	p.seekPending = true
}

func (p *Player) SetControls(enabled bool) {
	p.props.Controls = enabled
	p.transport.SetEnabled(enabled)
}

func (p *Player) SetAutoHideNav(autoHide bool) {
	p.props.AutoHideNav = autoHide
	p.updateChrome()
}

// SetBackgrounded follows the host going to and coming back from the background.
func (p *Player) SetBackgrounded(backgrounded bool) {
	p.machine.SetBackgrounded(backgrounded)
}

// Rebuild replaces the engine, for example after the audio output changed.
func (p *Player) Rebuild() {
	p.machine.Rebuild()
}

// Release tears everything down.  The player cannot be used afterwards.
func (p *Player) Release() {
	if p.released {
		return
	}
	p.released = true
	p.logger.Info("Releasing player")
	p.initialSeek.Detach()
	p.transport.Close()
	p.machine.Release()
	p.surface.Teardown()
	if p.chromeHidden {
		p.chromeHidden = false
		p.host.SetChromeHidden(false)
	}
}

func (p *Player) Props() Props { return p.props }

func (p *Player) Machine() *playback.Machine             { return p.machine }
func (p *Player) Surface() *surface.Manager              { return p.surface }
func (p *Player) Presentation() *presentation.Controller { return p.presentation }
func (p *Player) Transport() *transport.Controller       { return p.transport }

func (p *Player) CanPlay() bool            { return p.machine.CanPlay() }
func (p *Player) CanSeekBackward() bool    { return p.machine.CanSeekBackward() }
func (p *Player) CanSeekForward() bool     { return p.machine.CanSeekForward() }
func (p *Player) CanGoFullscreen() bool    { return p.presentation.CanGoFullscreen() }
func (p *Player) IsPlaying() bool          { return p.machine.IsPlaying() }
func (p *Player) IsFullscreen() bool       { return p.presentation.IsFullscreen() }
func (p *Player) Position() time.Duration  { return p.machine.Position() }
func (p *Player) Duration() time.Duration  { return p.machine.Duration() }
func (p *Player) BufferedPercentage() int  { return p.machine.BufferedPercentage() }
func (p *Player) SeekTo(pos time.Duration) { p.machine.SeekTo(pos) }
func (p *Player) ToggleFullscreen()        { p.presentation.Toggle() }

func (p *Player) SetScrubbing(scrubbing bool) { p.machine.SetScrubbing(scrubbing) }

// Start plays, and Pause pauses.  Both keep the Paused property in step.
func (p *Player) Start() { p.SetPaused(false) }
func (p *Player) Pause() { p.SetPaused(true) }

func (p *Player) onEvent(e event.Event) {
	if e.Type == event.TypeLoad && p.seekPending {
		p.initialSeek.Set()
	}
}

func (p *Player) applyInitialSeek() {
	if !p.seekPending {
		return
	}
	duration := p.machine.Duration()
	if duration <= 0 {
		p.logger.Debug("Duration unknown at load, dropping starting seek", "seek", p.props.Seek)
		p.seekPending = false
		return
	}
	p.seekPending = false
	p.machine.SeekTo(p.fractionOf(duration))
}

func (p *Player) fractionOf(d time.Duration) time.Duration {
	return time.Duration(p.props.Seek * float64(d))
}

func (p *Player) updateChrome() {
	hidden := p.props.AutoHideNav && p.presentation.IsFullscreen() && !p.transport.State().Showing
	if hidden == p.chromeHidden {
		return
	}
	p.chromeHidden = hidden
	p.logger.Debug("Host chrome visibility changed", "hidden", hidden)
	p.host.SetChromeHidden(hidden)
}
