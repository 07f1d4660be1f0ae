package enginetest

import "github.com/PizzaHomicide/reelcore/internal/engine"

// FullscreenFake is a Fake that owns a window which can go fullscreen.  Requests wait for CompleteFullscreen.
type FullscreenFake struct {
	*Fake

	// FullscreenErr makes the next completed request fail.
	FullscreenErr error
	Fullscreen    bool

	pendingFullscreen func()
}

var _ engine.Fullscreener = (*FullscreenFake)(nil)

func NewFullscreen() *FullscreenFake {
	return &FullscreenFake{Fake: New()}
}

func (f *FullscreenFake) SetFullscreen(fullscreen bool, done func(error)) {
	f.record("SetFullscreen(%t)", fullscreen)
	f.pendingFullscreen = func() {
		if f.FullscreenErr != nil {
			done(f.FullscreenErr)
			return
		}
		f.Fullscreen = fullscreen
		done(nil)
	}
}

// CompleteFullscreen finishes the pending fullscreen request.  It returns false if there is none.
func (f *FullscreenFake) CompleteFullscreen() bool {
	complete := f.pendingFullscreen
	if complete == nil {
		return false
	}
	f.pendingFullscreen = nil
	complete()
	return true
}
