// Package engine defines what the playback core needs from a decode/render engine.  Engines themselves live in
// sub-packages.
package engine

import (
	"fmt"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/surface"
)

// State is the engine's raw playback state.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateBuffering
	StateReady
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source describes the media to play.
type Source struct {
	URI       string
	MimeType  string
	IsNetwork bool
	IsAsset   bool
}

// Listener receives engine callbacks.  Engines deliver every callback on the event loop.
type Listener interface {
	OnStateChanged(playWhenReady bool, oldState, newState State)
	// OnError reports an unrecoverable playback failure.
	OnError(err error)
	OnVideoSizeChanged(width, height int)
}

// Engine is the decode/render engine adapter.
//
// Apart from SetSurface with block set, no method may block the calling goroutine.  Durations are reported as zero
// while unknown.
type Engine interface {
	SetListener(l Listener)

	// PrepareAsync builds the renderers for src and starts preparing it.  done is called on the event loop exactly once
	// unless the build is cancelled first.
	PrepareAsync(src Source, done func(error))
	// CancelPrepare abandons an in-flight PrepareAsync.  Its done callback will not be called.
	CancelPrepare()

	SetPlayWhenReady(play bool)
	PlayWhenReady() bool
	SeekTo(pos time.Duration)
	State() State

	Position() time.Duration
	Duration() time.Duration
	BufferedPosition() time.Duration
	BufferedPercentage() int

	// SetSurface binds the render output.  With block set the call returns only after the engine has let go of the
	// previous surface.
	SetSurface(h surface.Handle, block bool)
	SetMuted(muted bool)
	SetVolume(volume float64)

	Stop()
	Release()
}

// Fullscreener is implemented by engines that own their output window.  SetFullscreen is called on the event loop
// and done is called back on it once the window has changed.
type Fullscreener interface {
	SetFullscreen(fullscreen bool, done func(error))
}

// Factory creates a fresh engine for a new playback session.
type Factory func() (Engine, error)
