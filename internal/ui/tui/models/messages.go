package models

import (
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/player"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/transport"
)

// The messages below are sent by the bridge from the event loop.  Each one mirrors a call the player made on its host.

// ControlsVisibleMsg is sent when the transport controls show or hide
type ControlsVisibleMsg struct {
	Visible bool
}

// ButtonsMsg carries which transport buttons can be used
type ButtonsMsg struct {
	Buttons transport.Buttons
}

// ProgressMsg is a seek bar refresh
type ProgressMsg struct {
	Progress transport.Progress
}

// PlayingMsg flips the play/pause button
type PlayingMsg struct {
	Playing bool
}

// FullscreenMsg flips the fullscreen button
type FullscreenMsg struct {
	Fullscreen bool
}

// ChromeMsg is sent when the host chrome should hide or come back
type ChromeMsg struct {
	Hidden bool
}

// SurfaceBoundMsg is sent when the video view was pointed at a backing window
type SurfaceBoundMsg struct {
	ID string
}

// TransformMsg carries the scale transform applied to the video
type TransformMsg struct {
	Transform surface.Matrix
}

// PlayerStateMsg is a snapshot of the player properties, sent after every dispatched action
type PlayerStateMsg struct {
	Props        player.Props
	Backgrounded bool
}

// PlayerEventMsg carries one event from the player
type PlayerEventMsg struct {
	Event event.Event
}

// Dispatcher runs fn against the player on the event loop.  It returns straight away.
type Dispatcher func(fn func(p *player.Player))
