package transport

import (
	"fmt"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/timer"
)

// Player is the set of capabilities the controller drives.
type Player interface {
	CanPlay() bool
	CanSeekBackward() bool
	CanSeekForward() bool
	CanGoFullscreen() bool
	IsPlaying() bool
	IsFullscreen() bool
	Position() time.Duration
	Duration() time.Duration
	BufferedPercentage() int

	Start()
	Pause()
	SeekTo(pos time.Duration)
	SetScrubbing(scrubbing bool)
	ToggleFullscreen()
}

// Buttons holds the enabled state of each control.
type Buttons struct {
	PlayPause   bool
	Rewind      bool
	FastForward bool
	SeekBar     bool
	Fullscreen  bool
}

// Progress is what the seek bar and time labels show.
type Progress struct {
	Position        time.Duration
	Duration        time.Duration
	BufferedPercent int
}

// Fraction is the seek bar position in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Duration <= 0 {
		return 0
	}
	return min(max(float64(p.Position)/float64(p.Duration), 0), 1)
}

// View is the host widget set.
type View interface {
	SetVisible(visible bool)
	SetButtons(b Buttons)
	SetProgress(p Progress)
	SetPlaying(playing bool)
	SetFullscreen(fullscreen bool)
}

// Mode is the controller's coarse state.
type Mode int

const (
	ModeHidden Mode = iota
	ModeShowing
	ModeDragging
)

func (m Mode) String() string {
	switch m {
	case ModeHidden:
		return "hidden"
	case ModeShowing:
		return "showing"
	case ModeDragging:
		return "dragging"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// UIState is a snapshot of the controller.
type UIState struct {
	Showing       bool
	Persist       bool
	Dragging      bool
	AutoHideArmed bool
}

// Options tunes the controller.
type Options struct {
	// Timeout is how long the controls stay up without interaction.
	Timeout time.Duration
	// ProgressInterval is how often the seek bar refreshes while shown.
	ProgressInterval time.Duration
	// SeekStep is the jump for the rewind and fast forward keys.
	SeekStep time.Duration
	// ResumeOnTap starts a paused player when a tap on the content reveals the controls.
	ResumeOnTap bool
}

func DefaultOptions() Options {
	return Options{
		Timeout:          3 * time.Second,
		ProgressInterval: 250 * time.Millisecond,
		SeekStep:         5 * time.Second,
	}
}

// Controller is the transport overlay state machine: hidden, showing (optionally persistent) or dragging.  It keeps
// two independent timers, one to auto-hide and one to refresh the progress bar.
//
// All methods must be called from the goroutine driving the Queue.
type Controller struct {
	player Player
	view   View
	opts   Options
	logger *log.Logger

	showing  bool
	persist  bool
	dragging bool
	enabled  bool

	hideTimer     *timer.Callback
	progressTimer *timer.Callback

	visibilityListeners []func(showing bool)
}

var _ event.Sink = (*Controller)(nil)

func New(queue timer.Queue, player Player, view View, opts Options) *Controller {
	c := &Controller{
		player:  player,
		view:    view,
		opts:    opts,
		logger:  log.With("component", "transport"),
		enabled: true,
	}
	c.hideTimer = timer.NewCallback(queue, opts.Timeout, func() bool {
		c.logger.Debug("Auto-hiding controls")
		c.Hide()
		return false
	})
	c.progressTimer = timer.NewCallback(queue, opts.ProgressInterval, func() bool {
		if !c.showing || c.dragging {
			return false
		}
		c.setProgress()
		return c.player.IsPlaying()
	})
	return c
}

// OnVisibilityChanged registers fn to hear about the controls showing or hiding.
func (c *Controller) OnVisibilityChanged(fn func(showing bool)) {
	c.visibilityListeners = append(c.visibilityListeners, fn)
}

// SetEnabled turns the whole overlay on or off.  A disabled controller hides and ignores requests to show.
func (c *Controller) SetEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.Hide()
	}
}

// Show reveals the controls.  Unless persist is set they hide again after the timeout.
func (c *Controller) Show(persist bool) {
	if !c.enabled {
		return
	}
	if !c.showing {
		c.logger.Debug("Showing controls", "persist", persist)
		c.setProgress()
		c.syncButtons()
		c.showing = true
		c.view.SetVisible(true)
		c.notifyVisibility(true)
	}
	c.refreshPlayButton()

	c.persist = persist
	if persist || c.dragging {
		c.hideTimer.Cancel()
	} else {
		c.hideTimer.Reset()
	}
	if !c.dragging {
		c.progressTimer.Set()
	}
}

// Hide conceals the controls and stops both timers.
func (c *Controller) Hide() {
	if !c.showing {
		return
	}
	c.logger.Debug("Hiding controls")
	if c.dragging {
		c.dragging = false
		c.player.SetScrubbing(false)
	}
	c.hideTimer.Cancel()
	c.progressTimer.Cancel()
	c.showing = false
	c.persist = false
	c.view.SetVisible(false)
	c.notifyVisibility(false)
}

// StartDrag begins a seek bar drag.  The controls stay up and the progress refresh stops so the thumb does not move
// under the user.
func (c *Controller) StartDrag() {
	if !c.enabled {
		return
	}
	c.dragging = true
	c.Show(true)
	c.progressTimer.Cancel()
	c.player.SetScrubbing(true)
}

// DragTo previews a seek to fraction of the duration.
func (c *Controller) DragTo(fraction float64) {
	if !c.dragging {
		return
	}
	fraction = min(max(fraction, 0), 1)
	duration := c.player.Duration()
	target := time.Duration(fraction * float64(duration))
	c.player.SeekTo(target)
	c.view.SetProgress(Progress{
		Position:        target,
		Duration:        duration,
		BufferedPercent: c.player.BufferedPercentage(),
	})
}

// EndDrag finishes a drag, refreshes the position and goes back to the ordinary auto-hide.
func (c *Controller) EndDrag() {
	if !c.dragging {
		return
	}
	c.dragging = false
	c.player.SetScrubbing(false)
	c.setProgress()
	c.Show(false)
}

// Key is a remote control or keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyPlayPause
	KeyPlay
	KeyPause
	KeyStop
	KeyFastForward
	KeyRewind
	KeyFullscreen
	KeyBack
	KeyVolume
)

// HandleKey applies a key.  It reports whether the key was consumed; unconsumed keys still count as interaction.
func (c *Controller) HandleKey(k Key) bool {
	if !c.enabled {
		return false
	}
	switch k {
	case KeyPlayPause:
		if c.player.IsPlaying() {
			c.player.Pause()
		} else {
			c.player.Start()
		}
	case KeyPlay:
		if !c.player.IsPlaying() {
			c.player.Start()
		}
	case KeyPause, KeyStop:
		if c.player.IsPlaying() {
			c.player.Pause()
		}
	case KeyFastForward:
		if !c.player.CanSeekForward() {
			c.extendTimeout()
			return false
		}
		c.player.SeekTo(c.player.Position() + c.opts.SeekStep)
	case KeyRewind:
		if !c.player.CanSeekBackward() {
			c.extendTimeout()
			return false
		}
		c.player.SeekTo(max(c.player.Position()-c.opts.SeekStep, 0))
	case KeyFullscreen:
		if !c.player.CanGoFullscreen() {
			c.extendTimeout()
			return false
		}
		c.player.ToggleFullscreen()
	case KeyBack:
		if !c.showing {
			return false
		}
		c.Hide()
		return true
	default:
		c.extendTimeout()
		return false
	}

	c.refreshPlayButton()
	c.Show(false)
	return true
}

// OnTouch is any touch or pointer interaction with the controls themselves.
func (c *Controller) OnTouch() {
	c.extendTimeout()
}

// OnContentTap is a tap on the video area.  It toggles the controls, and revealing them may resume playback.
func (c *Controller) OnContentTap() {
	if c.showing {
		c.Hide()
		return
	}
	c.Show(false)
	if c.opts.ResumeOnTap && c.enabled && !c.player.IsPlaying() && c.player.CanPlay() {
		c.logger.Debug("Resuming playback on tap")
		c.player.Start()
		c.refreshPlayButton()
	}
}

// Emit keeps the controls in step with the player's events.
func (c *Controller) Emit(e event.Event) {
	switch e.Type {
	case event.TypePlay:
		c.refreshPlayButton()
		if c.showing && !c.dragging {
			c.progressTimer.Set()
		}
	case event.TypePause, event.TypeStop:
		c.refreshPlayButton()
		if c.showing {
			c.setProgress()
		}
	case event.TypeLoad:
		if c.showing {
			c.syncButtons()
			c.setProgress()
		}
	case event.TypeError:
		if e.Fatal {
			c.Show(true)
			c.syncButtons()
			c.refreshPlayButton()
		}
	case event.TypeEnterFullscreen, event.TypeExitFullscreen:
		c.view.SetFullscreen(e.Type == event.TypeEnterFullscreen)
	}
}

// Mode is the coarse state.
func (c *Controller) Mode() Mode {
	switch {
	case c.dragging:
		return ModeDragging
	case c.showing:
		return ModeShowing
	default:
		return ModeHidden
	}
}

func (c *Controller) State() UIState {
	return UIState{
		Showing:       c.showing,
		Persist:       c.persist,
		Dragging:      c.dragging,
		AutoHideArmed: c.hideTimer.Pending(),
	}
}

// Close stops both timers for good.
func (c *Controller) Close() {
	c.hideTimer.Detach()
	c.progressTimer.Detach()
}

// extendTimeout pushes back the auto-hide, but only if it is running.
func (c *Controller) extendTimeout() {
	if c.showing && !c.persist && !c.dragging {
		c.hideTimer.Extend()
	}
}

func (c *Controller) setProgress() {
	if c.dragging {
		return
	}
	c.view.SetProgress(Progress{
		Position:        c.player.Position(),
		Duration:        c.player.Duration(),
		BufferedPercent: c.player.BufferedPercentage(),
	})
}

func (c *Controller) syncButtons() {
	b := Buttons{
		PlayPause:   c.player.CanPlay(),
		Rewind:      c.player.CanSeekBackward(),
		FastForward: c.player.CanSeekForward(),
		SeekBar:     c.player.CanSeekBackward() || c.player.CanSeekForward(),
		Fullscreen:  c.player.CanGoFullscreen(),
	}
	c.view.SetButtons(b)
	c.view.SetFullscreen(c.player.IsFullscreen())
}

func (c *Controller) refreshPlayButton() {
	c.view.SetPlaying(c.player.IsPlaying())
}

func (c *Controller) notifyVisibility(showing bool) {
	for _, fn := range c.visibilityListeners {
		fn(showing)
	}
}
