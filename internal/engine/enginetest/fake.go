// Package enginetest provides a scriptable engine for testing the playback core.
package enginetest

import (
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/surface"
)

// SurfaceCall records one SetSurface call.
type SurfaceCall struct {
	Handle surface.Handle
	Block  bool
}

// Fake is a synchronous in-memory engine.  Like a real engine it notifies its listener whenever playWhenReady or the
// state changes; tests drive everything else through Report, CompleteBuild and the setters.
type Fake struct {
	listener engine.Listener

	playWhenReady   bool
	state           engine.State
	position        time.Duration
	duration        time.Duration
	buffered        time.Duration
	bufferedPercent int
	muted           bool
	volume          float64

	pendingBuild func(error)
	source       engine.Source

	// AutoBuild completes PrepareAsync immediately with BuildErr.
	AutoBuild bool
	BuildErr  error

	Calls    []string
	Surfaces []SurfaceCall
	Released bool
}

var _ engine.Engine = (*Fake)(nil)

func New() *Fake {
	return &Fake{volume: 1}
}

// Factory returns an engine.Factory handing out the given fakes in order, then errors.
func Factory(fakes ...*Fake) engine.Factory {
	i := 0
	return func() (engine.Engine, error) {
		if i >= len(fakes) {
			return nil, fmt.Errorf("no more fake engines (handed out %d)", i)
		}
		f := fakes[i]
		i++
		return f, nil
	}
}

func (f *Fake) SetListener(l engine.Listener) { f.listener = l }

func (f *Fake) PrepareAsync(src engine.Source, done func(error)) {
	f.record("PrepareAsync(%s)", src.URI)
	f.source = src
	if f.AutoBuild {
		done(f.BuildErr)
		return
	}
	f.pendingBuild = done
}

func (f *Fake) CancelPrepare() {
	f.record("CancelPrepare")
	f.pendingBuild = nil
}

// CompleteBuild finishes the pending PrepareAsync.  It reports whether one was pending.
func (f *Fake) CompleteBuild(err error) bool {
	done := f.pendingBuild
	if done == nil {
		return false
	}
	f.pendingBuild = nil
	done(err)
	return true
}

// Building reports whether a PrepareAsync is waiting for CompleteBuild.
func (f *Fake) Building() bool { return f.pendingBuild != nil }

// Source is the last source passed to PrepareAsync.
func (f *Fake) Source() engine.Source { return f.source }

func (f *Fake) SetPlayWhenReady(play bool) {
	f.record("SetPlayWhenReady(%t)", play)
	if play == f.playWhenReady {
		return
	}
	f.playWhenReady = play
	f.notify(f.state, f.state)
}

func (f *Fake) PlayWhenReady() bool { return f.playWhenReady }

func (f *Fake) SeekTo(pos time.Duration) {
	f.record("SeekTo(%s)", pos)
	f.position = pos
}

func (f *Fake) State() engine.State             { return f.state }
func (f *Fake) Position() time.Duration         { return f.position }
func (f *Fake) Duration() time.Duration         { return f.duration }
func (f *Fake) BufferedPosition() time.Duration { return f.buffered }
func (f *Fake) BufferedPercentage() int         { return f.bufferedPercent }
func (f *Fake) Muted() bool                     { return f.muted }
func (f *Fake) Volume() float64                 { return f.volume }

func (f *Fake) SetSurface(h surface.Handle, block bool) {
	f.record("SetSurface(%s, %t)", h, block)
	f.Surfaces = append(f.Surfaces, SurfaceCall{Handle: h, Block: block})
}

func (f *Fake) SetMuted(muted bool) {
	f.record("SetMuted(%t)", muted)
	f.muted = muted
}

func (f *Fake) SetVolume(volume float64) {
	f.record("SetVolume(%.2f)", volume)
	f.volume = volume
}

func (f *Fake) Stop() {
	f.record("Stop")
	old := f.state
	f.state = engine.StateIdle
	if old != engine.StateIdle {
		f.notify(old, f.state)
	}
}

func (f *Fake) Release() {
	f.record("Release")
	f.Released = true
	f.listener = nil
}

// Report moves the engine to a new raw state and notifies the listener, even if nothing changed.
func (f *Fake) Report(playWhenReady bool, state engine.State) {
	old := f.state
	f.playWhenReady = playWhenReady
	f.state = state
	f.notify(old, state)
}

// Fail reports a fatal error.
func (f *Fake) Fail(err error) {
	if f.listener != nil {
		f.listener.OnError(err)
	}
}

// ResizeVideo reports a new decoded frame size.
func (f *Fake) ResizeVideo(width, height int) {
	if f.listener != nil {
		f.listener.OnVideoSizeChanged(width, height)
	}
}

func (f *Fake) SetDuration(d time.Duration) { f.duration = d }
func (f *Fake) SetPosition(p time.Duration) { f.position = p }

func (f *Fake) SetBuffered(pos time.Duration, percent int) {
	f.buffered = pos
	f.bufferedPercent = percent
}

// CallsWithPrefix filters Calls.
func (f *Fake) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded calls.
func (f *Fake) ResetCalls() {
	f.Calls = nil
	f.Surfaces = nil
}

func (f *Fake) notify(old, state engine.State) {
	if f.listener != nil {
		f.listener.OnStateChanged(f.playWhenReady, old, state)
	}
}

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}
