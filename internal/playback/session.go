package playback

import (
	"time"

	"github.com/google/uuid"

	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/timer"
)

type buildState int

const (
	buildIdle buildState = iota
	building
	built
)

func (b buildState) String() string {
	switch b {
	case building:
		return "building"
	case built:
		return "built"
	default:
		return "idle"
	}
}

// reported is the last (playWhenReady, state) pair passed on to observers.
type reported struct {
	playWhenReady bool
	state         engine.State
}

// session is one engine instance from first prepare until release.  Timers belong to the session so a session that
// was released can never fire into its successor.
type session struct {
	id     string
	engine engine.Engine
	logger *log.Logger

	build          buildState
	last           reported
	loaded         bool
	preparePending bool
	needsRebuild   bool
	failed         bool
	restarting     bool

	progress *timer.Callback
	buffer   *timer.Callback
}

// state folds the build state into the engine's raw state.  A built engine that has not started preparing yet is
// already Preparing as far as observers are concerned.  Once the media has loaded, Idle means playback stopped.
func (s *session) state() engine.State {
	if s.build == building {
		return engine.StatePreparing
	}
	st := s.engine.State()
	if s.build == built && !s.loaded && st == engine.StateIdle {
		return engine.StatePreparing
	}
	return st
}

func (s *session) stopTimers() {
	s.progress.Cancel()
	s.buffer.Cancel()
}

func (s *session) detach() {
	s.progress.Detach()
	s.buffer.Detach()
}

// Settings is the state that outlives a session and is applied again whenever an engine is (re)built.
type Settings struct {
	Paused       bool
	Repeat       bool
	Muted        bool
	Volume       float64
	Position     time.Duration
	ResizeMode   surface.ScaleMode
	Backgrounded bool

	resizeSet bool
}

// Options tunes the polling done by the machine.
type Options struct {
	// ProgressInterval is the period of Progress events while playing.
	ProgressInterval time.Duration
	// BufferInterval is the period of Buffer events while buffering.
	BufferInterval time.Duration
	// SeekToBeginOnStop rewinds the engine when playback ends without repeat.
	SeekToBeginOnStop bool
}

func DefaultOptions() Options {
	return Options{
		ProgressInterval:  250 * time.Millisecond,
		BufferInterval:    500 * time.Millisecond,
		SeekToBeginOnStop: true,
	}
}

func newSessionID() string {
	return uuid.NewString()
}

// sessionListener routes engine callbacks to the machine, dropping any that arrive for a session that has already
// been released.
type sessionListener struct {
	m *Machine
	s *session
}

func (l sessionListener) OnStateChanged(playWhenReady bool, oldState, newState engine.State) {
	if l.m.session != l.s {
		return
	}
	l.s.logger.Trace("Engine state callback", "play_when_ready", playWhenReady, "old", oldState, "new", newState)
	l.m.onEngineStateChanged(l.s)
}

func (l sessionListener) OnError(err error) {
	if l.m.session != l.s {
		return
	}
	l.m.onEngineError(l.s, err)
}

func (l sessionListener) OnVideoSizeChanged(width, height int) {
	if l.m.session != l.s {
		return
	}
	l.m.onVideoSizeChanged(width, height)
}
