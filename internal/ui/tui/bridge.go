package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/player"
	"github.com/PizzaHomicide/reelcore/internal/presentation"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/transport"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui/models"
)

const (
	// DefaultWindowID makes mpv open its own window instead of embedding into one
	DefaultWindowID = "-1"

	defaultWindowWidth  = 1280
	defaultWindowHeight = 720
)

var errNoFullscreen = errors.New("engine cannot change its window to fullscreen")

// window is the native window the video is drawn into.  The terminal does not own it, so there is nothing to free.
type window struct {
	id string
}

func (w window) ID() string { return w.id }
func (w window) Release()   {}

// Bridge is the player's host in the terminal UI.  The player calls it on the event loop and it turns every call into
// a message for the bubbletea program.  Apart from Dispatch, its methods must only be called on the event loop.
type Bridge struct {
	post   func(func())
	send   func(tea.Msg)
	logger *log.Logger

	player  *player.Player
	window  window
	width   int
	height  int
	current engine.Engine
}

var _ player.Host = (*Bridge)(nil)

// NewBridge creates a bridge for the given native window id.  post hands functions to the event loop.
func NewBridge(post func(func()), windowID string) *Bridge {
	if windowID == "" {
		windowID = DefaultWindowID
	}
	return &Bridge{
		post:   post,
		send:   func(tea.Msg) {},
		logger: log.With("component", "tui_bridge"),
		window: window{id: windowID},
		width:  defaultWindowWidth,
		height: defaultWindowHeight,
	}
}

// SetSender sets where messages go, usually a program's Send.  It must be called before the event loop starts.
func (b *Bridge) SetSender(send func(tea.Msg)) {
	b.send = send
}

// WrapFactory remembers every engine the factory builds so fullscreen requests can reach the current one.
func (b *Bridge) WrapFactory(factory engine.Factory) engine.Factory {
	return func() (engine.Engine, error) {
		e, err := factory()
		if err != nil {
			return nil, err
		}
		b.current = e
		return e, nil
	}
}

// Attach binds the player, hands it the window and loads src.
func (b *Bridge) Attach(p *player.Player, src engine.Source) {
	b.player = p
	b.logger.Info("Attaching player", "window", b.window.id, "uri", src.URI)
	p.Surface().OnSurfaceAvailable(b.window, b.width, b.height)
	p.SetSource(src)
	b.sendState()
}

// Dispatch runs fn against the player on the event loop and reports the resulting properties.  Safe to call from
// any goroutine.
func (b *Bridge) Dispatch(fn func(p *player.Player)) {
	b.post(func() {
		if b.player == nil {
			b.logger.Warn("Dropping action, no player attached")
			return
		}
		fn(b.player)
		b.sendState()
	})
}

// Release tears the player down.
func (b *Bridge) Release() {
	if b.player == nil {
		return
	}
	b.player.Release()
	b.current = nil
}

func (b *Bridge) sendState() {
	b.send(models.PlayerStateMsg{
		Props:        b.player.Props(),
		Backgrounded: b.player.Machine().Settings().Backgrounded,
	})
}

func (b *Bridge) SetVisible(visible bool)              { b.send(models.ControlsVisibleMsg{Visible: visible}) }
func (b *Bridge) SetButtons(buttons transport.Buttons) { b.send(models.ButtonsMsg{Buttons: buttons}) }
func (b *Bridge) SetProgress(p transport.Progress)     { b.send(models.ProgressMsg{Progress: p}) }
func (b *Bridge) SetPlaying(playing bool)              { b.send(models.PlayingMsg{Playing: playing}) }
func (b *Bridge) SetFullscreen(fullscreen bool)        { b.send(models.FullscreenMsg{Fullscreen: fullscreen}) }
func (b *Bridge) SetChromeHidden(hidden bool)          { b.send(models.ChromeMsg{Hidden: hidden}) }

func (b *Bridge) Size() (int, int) { return b.width, b.height }

func (b *Bridge) BindResource(r surface.Resource) {
	b.send(models.SurfaceBoundMsg{ID: r.ID()})
}

func (b *Bridge) SetTransform(m surface.Matrix) {
	b.send(models.TransformMsg{Transform: m})
}

// CanReparent reports whether the current engine can switch its window to fullscreen.
func (b *Bridge) CanReparent() bool {
	_, ok := b.current.(engine.Fullscreener)
	return ok
}

// RequestReparent asks the engine to change its window.  The engine answers on the loop once mpv has replied.
func (b *Bridge) RequestReparent(mode presentation.Mode) {
	fs, ok := b.current.(engine.Fullscreener)
	if !ok {
		b.post(func() { b.finishReparent(mode, errNoFullscreen) })
		return
	}
	fs.SetFullscreen(mode == presentation.Fullscreen, func(err error) {
		b.finishReparent(mode, err)
	})
}

func (b *Bridge) finishReparent(mode presentation.Mode, err error) {
	if b.player == nil {
		return
	}
	if err != nil {
		b.logger.Warn("Failed to change the video window", "mode", mode, "error", err)
		b.player.Presentation().OnHostDetached()
		b.player.Surface().SetPersist(false)
		return
	}

	// The window keeps its resource across the move.  It is detached here and rebound by the acknowledgment.
	b.player.Surface().OnViewDetached()
	b.player.Presentation().Acknowledge(mode)
}
