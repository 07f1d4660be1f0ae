package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/reelcore/internal/event"
)

type fakeHost struct {
	canReparent bool
	requests    []Mode
}

func (h *fakeHost) CanReparent() bool         { return h.canReparent }
func (h *fakeHost) RequestReparent(mode Mode) { h.requests = append(h.requests, mode) }

type fakeSurface struct {
	calls []string
}

func (s *fakeSurface) SetPersist(persist bool) {
	if persist {
		s.calls = append(s.calls, "persist")
	} else {
		s.calls = append(s.calls, "no-persist")
	}
}

func (s *fakeSurface) OnViewAttached() { s.calls = append(s.calls, "attached") }

func newController(canReparent bool) (*Controller, *fakeHost, *fakeSurface, *event.Recorder) {
	host := &fakeHost{canReparent: canReparent}
	surf := &fakeSurface{}
	rec := &event.Recorder{}
	return New(host, surf, rec), host, surf, rec
}

func TestEnterAndExit(t *testing.T) {
	c, host, surf, rec := newController(true)
	var modes []Mode
	c.OnModeChanged(func(m Mode) { modes = append(modes, m) })

	c.Enter()
	require.Equal(t, []Mode{Fullscreen}, host.requests)
	assert.True(t, c.InFlight())
	assert.False(t, c.IsFullscreen(), "mode only changes on acknowledgment")
	assert.Equal(t, []string{"persist"}, surf.calls)
	assert.Zero(t, rec.Count(event.TypeEnterFullscreen))

	c.Acknowledge(Fullscreen)
	assert.True(t, c.IsFullscreen())
	assert.False(t, c.InFlight())
	assert.Equal(t, []string{"persist", "attached"}, surf.calls)
	assert.Equal(t, []event.Type{event.TypeEnterFullscreen}, rec.Types())

	c.Exit()
	c.Acknowledge(Embedded)
	assert.Equal(t, Embedded, c.Mode())
	assert.Equal(t, []event.Type{event.TypeEnterFullscreen, event.TypeExitFullscreen}, rec.Types())
	assert.Equal(t, []Mode{Fullscreen, Embedded}, modes)
}

func TestRequestsIgnoredWhileInFlight(t *testing.T) {
	c, host, _, _ := newController(true)

	c.Toggle()
	c.Toggle()
	c.Exit()
	c.Enter()
	assert.Equal(t, []Mode{Fullscreen}, host.requests)

	c.Acknowledge(Fullscreen)
	c.Toggle()
	assert.Equal(t, []Mode{Fullscreen, Embedded}, host.requests)
}

func TestRequestForCurrentModeIsNoop(t *testing.T) {
	c, host, surf, _ := newController(true)
	c.Exit()
	assert.Empty(t, host.requests)
	assert.Empty(t, surf.calls)
	assert.False(t, c.InFlight())
}

func TestHostWithoutReparent(t *testing.T) {
	c, host, _, rec := newController(false)
	assert.False(t, c.CanGoFullscreen())

	c.Enter()
	assert.Empty(t, host.requests)
	assert.False(t, c.InFlight())
	assert.Empty(t, rec.Events())
}

func TestUnexpectedAcknowledgment(t *testing.T) {
	c, _, surf, rec := newController(true)

	c.Acknowledge(Fullscreen)
	assert.Equal(t, Embedded, c.Mode())

	c.Enter()
	c.Acknowledge(Embedded)
	assert.True(t, c.InFlight(), "acknowledgment for the wrong mode is ignored")
	assert.Equal(t, []string{"persist"}, surf.calls)
	assert.Empty(t, rec.Events())
}

func TestHostDetached(t *testing.T) {
	c, _, _, rec := newController(true)
	c.Enter()
	c.Acknowledge(Fullscreen)
	rec.Reset()

	c.OnHostDetached()
	assert.Equal(t, Embedded, c.Mode())
	assert.Equal(t, []event.Type{event.TypeExitFullscreen}, rec.Types())

	c.OnHostDetached()
	assert.Len(t, rec.Events(), 1)
}

func TestHostDetachedMidTransition(t *testing.T) {
	c, host, _, rec := newController(true)
	c.Enter()
	c.OnHostDetached()
	assert.False(t, c.InFlight())
	assert.Empty(t, rec.Events())

	c.Enter()
	assert.Len(t, host.requests, 2)
}
