// Package presentation moves the player between its embedded place in the host layout and a fullscreen container.
//
// A transition is a request to the host followed by an acknowledgment once the view has been reparented.  The surface
// is kept persisting across the move so playback never loses its render target.
package presentation

import (
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
)

type Mode int

const (
	Embedded Mode = iota
	Fullscreen
)

func (m Mode) String() string {
	if m == Fullscreen {
		return "fullscreen"
	}
	return "embedded"
}

// Host performs the actual reparenting.  RequestReparent may acknowledge synchronously or later from the event loop.
type Host interface {
	CanReparent() bool
	RequestReparent(mode Mode)
}

// Surface is the part of the surface manager a move needs.
type Surface interface {
	SetPersist(persist bool)
	OnViewAttached()
}

type Controller struct {
	host    Host
	surface Surface
	sink    event.Sink
	logger  *log.Logger

	mode     Mode
	inFlight bool
	target   Mode

	listeners []func(Mode)
}

func New(host Host, surface Surface, sink event.Sink) *Controller {
	if sink == nil {
		sink = event.Discard
	}
	return &Controller{
		host:    host,
		surface: surface,
		sink:    sink,
		logger:  log.With("component", "presentation"),
	}
}

// OnModeChanged registers fn to run after every completed transition.
func (c *Controller) OnModeChanged(fn func(Mode)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Enter() { c.request(Fullscreen) }
func (c *Controller) Exit()  { c.request(Embedded) }

func (c *Controller) Toggle() {
	if c.mode == Fullscreen {
		c.Exit()
	} else {
		c.Enter()
	}
}

// Acknowledge is called by the host once the view sits in its new parent.
func (c *Controller) Acknowledge(mode Mode) {
	if !c.inFlight || mode != c.target {
		c.logger.Warn("Ignoring unexpected reparent acknowledgment",
			"mode", mode, "in_flight", c.inFlight, "target", c.target)
		return
	}
	c.inFlight = false
	c.mode = mode
	c.logger.Debug("Presentation changed", "mode", mode)

	c.surface.OnViewAttached()
	if mode == Fullscreen {
		c.sink.Emit(event.EnterFullscreen())
	} else {
		c.sink.Emit(event.ExitFullscreen())
	}
	c.notify()
}

// OnHostDetached drops back to embedded without asking the host for anything, for example when the fullscreen
// container was closed from outside.
func (c *Controller) OnHostDetached() {
	wasFullscreen := c.mode == Fullscreen
	c.inFlight = false
	c.mode = Embedded
	if wasFullscreen {
		c.logger.Debug("Host detached while fullscreen, back to embedded")
		c.sink.Emit(event.ExitFullscreen())
		c.notify()
	}
}

func (c *Controller) Mode() Mode            { return c.mode }
func (c *Controller) IsFullscreen() bool    { return c.mode == Fullscreen }
func (c *Controller) InFlight() bool        { return c.inFlight }
func (c *Controller) CanGoFullscreen() bool { return c.host.CanReparent() }

func (c *Controller) request(target Mode) {
	if c.inFlight {
		c.logger.Debug("Transition in flight, ignoring request", "target", target, "pending", c.target)
		return
	}
	if target == c.mode {
		return
	}
	if !c.host.CanReparent() {
		c.logger.Warn("Host cannot reparent the player view", "target", target)
		return
	}

	c.logger.Debug("Requesting reparent", "from", c.mode, "to", target)
	c.inFlight = true
	c.target = target
	c.surface.SetPersist(true)
	c.host.RequestReparent(target)
}

func (c *Controller) notify() {
	for _, fn := range c.listeners {
		fn(c.mode)
	}
}
