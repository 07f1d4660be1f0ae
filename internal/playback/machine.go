package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/timer"
)

var (
	ErrBuildFailed    = errors.New("engine build failed")
	ErrPlaybackFailed = errors.New("playback failed")
)

// Scaler receives resize mode changes, normally the surface manager.
type Scaler interface {
	SetScale(mode surface.ScaleMode)
}

// Machine is the playback state machine.  It owns the engine, turns its raw state changes into a de-duplicated
// event stream and implements the seek, repeat and stop rules.
//
// All methods must be called from the goroutine driving the Queue.
type Machine struct {
	queue     timer.Queue
	newEngine engine.Factory
	sink      event.Sink
	scaler    Scaler
	opts      Options
	logger    *log.Logger

	settings  Settings
	source    engine.Source
	hasSource bool
	surface   surface.Handle
	scrubbing bool
	session   *session

	onVideoSize func(width, height int)
}

var _ surface.Target = (*Machine)(nil)

func NewMachine(queue timer.Queue, factory engine.Factory, sink event.Sink, opts Options) *Machine {
	if sink == nil {
		sink = event.Discard
	}
	return &Machine{
		queue:     queue,
		newEngine: factory,
		sink:      sink,
		opts:      opts,
		logger:    log.With("component", "playback"),
		settings:  Settings{Volume: 1},
	}
}

// SetScaler wires the resize mode to a surface manager.
func (m *Machine) SetScaler(s Scaler) {
	m.scaler = s
}

// SetVideoSizeListener registers a callback for decoded frame size changes.
func (m *Machine) SetVideoSizeListener(fn func(width, height int)) {
	m.onVideoSize = fn
}

// Prepare starts loading src.  Any build in flight is abandoned.  Settings made before the engine existed are applied
// once the build completes.
func (m *Machine) Prepare(src engine.Source) {
	m.source, m.hasSource = src, true

	if m.session != nil && m.session.needsRebuild {
		m.logger.Info("Discarding engine that needs a rebuild", "session", m.session.id)
		m.Release()
	}
	if m.session == nil {
		if err := m.newSession(); err != nil {
			m.logger.Error("Failed to create engine", "error", err)
			m.sink.Emit(event.Error(event.CodeBuildFailed, fmt.Errorf("%w: %w", ErrBuildFailed, err), false))
			return
		}
	}

	s := m.session
	s.logger.Info("Preparing source", "uri", src.URI, "mime_type", src.MimeType, "network", src.IsNetwork)
	s.engine.CancelPrepare()
	wasBuilt := s.build == built
	s.build = building
	s.loaded = false
	s.failed = false
	if wasBuilt {
		// Stopping the old media reads as the new load starting, not as a Stop
		s.engine.Stop()
	}
	m.maybeReport(s)

	s.engine.PrepareAsync(src, func(err error) {
		m.onBuilt(s, err)
	})
}

// SetPlayWhenReady sets the play/pause intent.  Asking to play an engine that failed or never got built prepares the
// last source again.
func (m *Machine) SetPlayWhenReady(play bool) {
	m.settings.Paused = !play
	s := m.session
	if s == nil {
		if play && m.hasSource {
			m.Prepare(m.source)
		}
		return
	}
	if play && m.hasSource && (s.needsRebuild || s.build == buildIdle) {
		m.Prepare(m.source)
		return
	}
	if s.build == built {
		s.engine.SetPlayWhenReady(play)
	}
}

// SeekTo moves playback to pos, clamped to [0, duration].  While the duration is unknown every seek lands on 0.
func (m *Machine) SeekTo(pos time.Duration) {
	duration := m.Duration()
	target := clamp(pos, duration)
	from := m.Position()
	m.settings.Position = target

	s := m.session
	if s == nil || s.build != built {
		m.logger.Debug("Seek saved for later", "requested", pos, "position", target)
		return
	}
	s.logger.Debug("Seeking", "from", from, "to", target, "requested", pos, "duration", duration)
	s.engine.SeekTo(target)
	m.sink.Emit(event.Seek(from, target))
}

func (m *Machine) SetRepeat(repeat bool) {
	m.settings.Repeat = repeat
}

func (m *Machine) SetMute(muted bool) {
	m.settings.Muted = muted
	if s := m.session; s != nil && s.build == built {
		s.engine.SetMuted(muted)
		m.sink.Emit(event.Volume(m.settings.Volume, muted))
	}
}

// SetVolume sets the volume, clamped to [0, 1].
func (m *Machine) SetVolume(volume float64) {
	volume = min(max(volume, 0), 1)
	m.settings.Volume = volume
	if s := m.session; s != nil && s.build == built {
		s.engine.SetVolume(volume)
		m.sink.Emit(event.Volume(volume, m.settings.Muted))
	}
}

func (m *Machine) SetResizeMode(mode surface.ScaleMode) {
	m.settings.ResizeMode = mode
	m.settings.resizeSet = true
	if m.scaler != nil {
		m.scaler.SetScale(mode)
	}
}

// SetBackgrounded detaches the video output while the host is in the background.  Audio keeps playing.
func (m *Machine) SetBackgrounded(backgrounded bool) {
	if m.settings.Backgrounded == backgrounded {
		return
	}
	m.settings.Backgrounded = backgrounded
	s := m.session
	if s == nil || s.build != built {
		return
	}
	s.logger.Debug("Background state changed", "backgrounded", backgrounded)
	if backgrounded {
		s.engine.SetSurface(surface.None, true)
	} else if m.surface.Valid() {
		s.engine.SetSurface(m.surface, false)
	}
}

// SetSurface is the render target side of the surface manager.  The handle is borrowed and replaced by every call.
// Going to no surface blocks until the engine has let go of the old one.
func (m *Machine) SetSurface(h surface.Handle) {
	m.surface = h
	s := m.session
	if s == nil || s.build != built || m.settings.Backgrounded {
		return
	}
	s.engine.SetSurface(h, !h.Valid())
}

// SetScrubbing holds back progress polling while the user drags the seek bar.  Letting go reports the position once
// and resumes polling if playing.
func (m *Machine) SetScrubbing(scrubbing bool) {
	if m.scrubbing == scrubbing {
		return
	}
	m.scrubbing = scrubbing
	s := m.session
	if s == nil {
		return
	}
	if scrubbing {
		s.progress.Cancel()
		return
	}
	if s.build == built {
		m.sink.Emit(event.Progress(m.Position(), s.engine.BufferedPosition()))
	}
	if s.last.state == engine.StateReady && s.last.playWhenReady {
		s.progress.Set()
	}
}

// Rebuild replaces the engine, keeping play intent, position and background state.  Hosts call it when the audio
// route changes.
func (m *Machine) Rebuild() {
	s := m.session
	if s == nil || !m.hasSource {
		return
	}
	play := s.engine.PlayWhenReady()
	if s.build != built {
		play = !m.settings.Paused
	}
	backgrounded := m.settings.Backgrounded
	s.logger.Info("Rebuilding engine", "play_when_ready", play, "backgrounded", backgrounded)

	m.Release()
	m.settings.Paused = !play
	m.settings.Backgrounded = false
	m.Prepare(m.source)
	m.SetBackgrounded(backgrounded)
}

// Release tears down the engine.  Settings are kept and a later Prepare starts a fresh session.
func (m *Machine) Release() {
	s := m.session
	if s == nil {
		return
	}
	if s.build == built && s.last.state != engine.StateEnded {
		m.settings.Position = s.engine.Position()
	}
	s.logger.Info("Releasing engine", "position", m.settings.Position)

	m.session = nil
	s.detach()
	s.engine.CancelPrepare()
	s.engine.SetListener(nil)
	s.engine.Release()
}

// Settings returns the carry-over state.
func (m *Machine) Settings() Settings {
	return m.settings
}

// Source is the last source passed to Prepare.
func (m *Machine) Source() (engine.Source, bool) {
	return m.source, m.hasSource
}

// SessionID identifies the current engine session, or is empty.
func (m *Machine) SessionID() string {
	if m.session == nil {
		return ""
	}
	return m.session.id
}

// State is the last reported playback state.
func (m *Machine) State() engine.State {
	if m.session == nil {
		return engine.StateIdle
	}
	return m.session.last.state
}

// PlayWhenReady is the last reported play intent.
func (m *Machine) PlayWhenReady() bool {
	if m.session == nil {
		return !m.settings.Paused
	}
	return m.session.last.playWhenReady
}

// Position is the playback position.  It reads 0 once playback has ended, wherever the engine's cursor is.
func (m *Machine) Position() time.Duration {
	s := m.session
	if s == nil || s.build != built {
		return m.settings.Position
	}
	if s.last.state == engine.StateEnded {
		return 0
	}
	return s.engine.Position()
}

// Duration is the media duration, zero while unknown.
func (m *Machine) Duration() time.Duration {
	s := m.session
	if s == nil || s.build != built {
		return 0
	}
	return s.engine.Duration()
}

func (m *Machine) BufferedPercentage() int {
	s := m.session
	if s == nil || s.build != built {
		return 0
	}
	return s.engine.BufferedPercentage()
}

func (m *Machine) BufferedPosition() time.Duration {
	s := m.session
	if s == nil || s.build != built {
		return 0
	}
	return s.engine.BufferedPosition()
}

// CanPlay reports whether a play request can do anything.  A failed engine still can, as playing rebuilds it.
func (m *Machine) CanPlay() bool {
	return m.hasSource
}

func (m *Machine) CanSeekBackward() bool {
	return m.canSeek()
}

func (m *Machine) CanSeekForward() bool {
	return m.canSeek()
}

// IsPlaying is true while the play intent is set and the media has not stopped.
func (m *Machine) IsPlaying() bool {
	s := m.session
	if s == nil || s.build != built || s.failed {
		return false
	}
	switch s.last.state {
	case engine.StateIdle, engine.StateEnded:
		return false
	}
	return s.last.playWhenReady
}

// Failed reports whether the engine hit a fatal error and is waiting to be rebuilt.
func (m *Machine) Failed() bool {
	return m.session != nil && m.session.failed
}

// Polling reports which pollers are armed.
func (m *Machine) Polling() (progress, buffer bool) {
	if m.session == nil {
		return false, false
	}
	return m.session.progress.Pending(), m.session.buffer.Pending()
}

func (m *Machine) canSeek() bool {
	s := m.session
	return s != nil && s.build == built && !s.failed && s.engine.Duration() > 0
}

func (m *Machine) newSession() error {
	eng, err := m.newEngine()
	if err != nil {
		return err
	}
	id := newSessionID()
	s := &session{
		id:     id,
		engine: eng,
		logger: m.logger.With("session", id),
		last:   reported{playWhenReady: false, state: engine.StateIdle},
	}
	s.progress = timer.NewCallback(m.queue, m.opts.ProgressInterval, func() bool {
		return m.progressTick(s)
	})
	s.buffer = timer.NewCallback(m.queue, m.opts.BufferInterval, func() bool {
		return m.bufferTick(s)
	})
	eng.SetListener(sessionListener{m: m, s: s})
	m.session = s
	s.logger.Debug("Created playback session")
	return nil
}

func (m *Machine) onBuilt(s *session, err error) {
	if m.session != s || s.build != building {
		return
	}
	if err != nil {
		s.logger.Error("Engine build failed", "error", err)
		s.build = buildIdle
		s.needsRebuild = true
		s.preparePending = false
		// No transition is reported for a failed build; the next prepare starts from scratch
		s.last = reported{playWhenReady: s.engine.PlayWhenReady(), state: engine.StateIdle}
		m.sink.Emit(event.Error(event.CodeBuildFailed, fmt.Errorf("%w: %w", ErrBuildFailed, err), false))
		return
	}

	s.logger.Debug("Engine built")
	s.build = built
	s.needsRebuild = false
	if m.surface.Valid() && !m.settings.Backgrounded {
		s.engine.SetSurface(m.surface, false)
	}
	m.applySettings(s)
	m.maybeReport(s)
}

// applySettings pushes the saved state onto a freshly built engine.  The seek goes last so that seeking a paused
// engine cannot start it.
func (m *Machine) applySettings(s *session) {
	st := m.settings
	if st.resizeSet && m.scaler != nil {
		m.scaler.SetScale(st.ResizeMode)
	}
	s.engine.SetPlayWhenReady(!st.Paused)
	s.engine.SetMuted(st.Muted)
	s.engine.SetVolume(st.Volume)
	if st.Position > 0 {
		target := st.Position
		if d := s.engine.Duration(); d > 0 {
			target = clamp(target, d)
		}
		s.engine.SeekTo(target)
	}
	s.logger.Debug("Applied saved settings", "paused", st.Paused, "repeat", st.Repeat, "muted", st.Muted,
		"volume", st.Volume, "position", st.Position)
}

func (m *Machine) onEngineStateChanged(s *session) {
	state := s.state()
	ended := state == engine.StateEnded && s.last.state != engine.StateEnded

	if ended && m.settings.Repeat && !s.restarting {
		s.logger.Debug("Reached the end, repeating")
		s.restarting = true
		m.settings.Position = 0
		s.engine.SetPlayWhenReady(true)
		s.engine.SeekTo(0)
		m.maybeReport(s)
		s.restarting = false
		return
	}

	m.maybeReport(s)

	if ended && !m.settings.Repeat {
		m.settings.Position = 0
		s.engine.SetPlayWhenReady(false)
		if m.opts.SeekToBeginOnStop {
			s.engine.SeekTo(0)
		}
	}
}

func (m *Machine) onEngineError(s *session, err error) {
	if s.failed {
		s.logger.Debug("Ignoring error from already failed engine", "error", err)
		return
	}
	s.logger.Error("Engine reported a fatal error", "error", err)
	if s.build == built && s.last.state != engine.StateEnded {
		m.settings.Position = s.engine.Position()
	}
	s.failed = true
	s.needsRebuild = true
	s.build = buildIdle
	s.stopTimers()
	m.sink.Emit(event.Error(event.CodePlaybackFailed, fmt.Errorf("%w: %w", ErrPlaybackFailed, err), true))

	// The engine may not have stopped by itself
	s.engine.CancelPrepare()
	s.engine.Stop()
	m.maybeReport(s)
}

func (m *Machine) onVideoSizeChanged(width, height int) {
	m.logger.Debug("Video size changed", "width", width, "height", height)
	if m.onVideoSize != nil {
		m.onVideoSize(width, height)
	}
}

// maybeReport passes the current (playWhenReady, state) pair on, but only if it differs from the last one.
func (m *Machine) maybeReport(s *session) {
	current := reported{playWhenReady: s.engine.PlayWhenReady(), state: s.state()}
	if current == s.last {
		return
	}
	prev := s.last
	s.last = current
	m.onStateChanged(s, prev, current)
}

func (m *Machine) onStateChanged(s *session, prev, cur reported) {
	s.logger.Debug("Playback state changed",
		"from", prev.state, "to", cur.state, "play_when_ready", cur.playWhenReady)

	if cur.state != engine.StateReady {
		s.progress.Cancel()
	}
	if cur.state != engine.StateBuffering {
		s.buffer.Cancel()
	}

	if prev.state == cur.state {
		if cur.state == engine.StateReady {
			m.playOrPause(s, cur.playWhenReady)
		}
		return
	}

	switch cur.state {
	case engine.StatePreparing:
		s.preparePending = true
		m.sink.Emit(event.LoadStart(m.source.URI, m.source.MimeType, m.source.IsNetwork))
	case engine.StateBuffering:
		m.sink.Emit(event.Buffer(s.engine.BufferedPercentage(), s.engine.BufferedPosition()))
		s.buffer.Set()
	case engine.StateReady:
		s.loaded = true
		if s.preparePending {
			s.preparePending = false
			m.sink.Emit(event.Load(s.engine.Duration(), m.Position()))
		}
		m.playOrPause(s, cur.playWhenReady)
	case engine.StateEnded:
		m.settings.Position = 0
		if !s.restarting {
			m.sink.Emit(event.Stop())
		}
	case engine.StateIdle:
		m.sink.Emit(event.Stop())
	}
}

func (m *Machine) playOrPause(s *session, play bool) {
	if play {
		m.sink.Emit(event.Play())
		if !m.scrubbing {
			s.progress.Set()
		}
		return
	}
	m.sink.Emit(event.Pause())
	s.progress.Cancel()
}

func (m *Machine) progressTick(s *session) bool {
	if m.session != s || m.scrubbing {
		return false
	}
	m.sink.Emit(event.Progress(m.Position(), s.engine.BufferedPosition()))
	return s.last.state == engine.StateReady && s.last.playWhenReady
}

func (m *Machine) bufferTick(s *session) bool {
	if m.session != s || s.last.state != engine.StateBuffering {
		return false
	}
	m.sink.Emit(event.Buffer(s.engine.BufferedPercentage(), s.engine.BufferedPosition()))
	return true
}

// clamp keeps pos inside [0, duration].  An unknown (zero) duration only allows 0.
func clamp(pos, duration time.Duration) time.Duration {
	if duration <= 0 || pos < 0 {
		return 0
	}
	return min(pos, duration)
}
