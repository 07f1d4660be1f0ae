package models

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/reelcore/internal/engine"
	"github.com/PizzaHomicide/reelcore/internal/engine/enginetest"
	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/player"
	"github.com/PizzaHomicide/reelcore/internal/presentation"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/timer/timertest"
	"github.com/PizzaHomicide/reelcore/internal/transport"
)

type nopHost struct{}

func (nopHost) SetVisible(bool)                   {}
func (nopHost) SetButtons(transport.Buttons)      {}
func (nopHost) SetProgress(transport.Progress)    {}
func (nopHost) SetPlaying(bool)                   {}
func (nopHost) SetFullscreen(bool)                {}
func (nopHost) CanReparent() bool                 { return false }
func (nopHost) RequestReparent(presentation.Mode) {}
func (nopHost) Size() (int, int)                  { return 1280, 720 }
func (nopHost) BindResource(surface.Resource)     {}
func (nopHost) SetTransform(surface.Matrix)       {}
func (nopHost) SetChromeHidden(bool)              {}

// newLoadedPlayer returns a model driving a real player that has loaded a 20 second clip.  Dispatch runs
// synchronously.
func newLoadedPlayer(t *testing.T) (*PlayerModel, *player.Player, *enginetest.Fake) {
	t.Helper()
	queue := timertest.New()
	eng := enginetest.New()
	p := player.New(queue, enginetest.Factory(eng), nopHost{}, nil, player.DefaultOptions())
	t.Cleanup(p.Release)

	p.SetSource(engine.ParseSource("/tmp/clip.mp4"))
	require.True(t, eng.CompleteBuild(nil))
	eng.SetDuration(20 * time.Second)
	eng.Report(true, engine.StatePreparing)
	eng.Report(true, engine.StateReady)

	m := NewPlayerModel("clip.mp4", p.Props(), func(fn func(p *player.Player)) { fn(p) })
	m.Resize(100, 40)
	return m, p, eng
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlayerKeysReachPlayer(t *testing.T) {
	m, p, eng := newLoadedPlayer(t)

	m.Update(key(" "))
	assert.True(t, p.Props().Paused)
	assert.False(t, eng.PlayWhenReady())

	m.Update(key("m"))
	assert.True(t, p.Props().Muted)

	m.Update(key("-"))
	assert.InDelta(t, 0.9, p.Props().Volume, 1e-9)

	m.Update(key("r"))
	assert.True(t, p.Props().Repeat)

	m.Update(key("z"))
	assert.Equal(t, surface.ScaleCenterCrop, p.Props().ResizeMode)
	m.Update(key("z"))
	assert.Equal(t, surface.ScaleNone, p.Props().ResizeMode, "cycling wraps around")

	m.Update(key("b"))
	assert.True(t, p.Machine().Settings().Backgrounded)
}

func TestEnterTogglesControls(t *testing.T) {
	m, p, _ := newLoadedPlayer(t)
	require.False(t, p.Transport().State().Showing)

	m.Update(key("enter"))
	assert.True(t, p.Transport().State().Showing)

	m.Back()
	assert.False(t, p.Transport().State().Showing)
}

func TestScrubbingSeeksAndLetsGo(t *testing.T) {
	m, p, eng := newLoadedPlayer(t)
	m.Update(ButtonsMsg{Buttons: transport.Buttons{SeekBar: true}})
	m.Update(ProgressMsg{Progress: transport.Progress{Position: 10 * time.Second, Duration: 20 * time.Second}})

	m.Update(key("."))
	require.True(t, m.Scrubbing())
	assert.True(t, p.Transport().State().Dragging)

	m.Update(key("."))
	m.Update(key("enter"))
	assert.False(t, m.Scrubbing())
	assert.False(t, p.Transport().State().Dragging)
	assert.Equal(t, []string{"SeekTo(11s)", "SeekTo(12s)"}, eng.CallsWithPrefix("SeekTo"))
}

func TestScrubNeedsSeekBar(t *testing.T) {
	m, p, _ := newLoadedPlayer(t)

	m.Update(key(","))
	assert.False(t, m.Scrubbing())
	assert.False(t, p.Transport().State().Dragging)
}

func TestEventsDriveStatus(t *testing.T) {
	m, _, _ := newLoadedPlayer(t)

	m.Update(PlayerEventMsg{Event: event.LoadStart("/tmp/clip.mp4", "video/mp4", false)})
	assert.Equal(t, "loading", m.status)
	assert.True(t, m.buffering)

	m.Update(PlayerEventMsg{Event: event.Load(20*time.Second, 0)})
	m.Update(PlayerEventMsg{Event: event.Play()})
	assert.Equal(t, "playing", m.status)
	assert.False(t, m.buffering)

	for i := 0; i < 10; i++ {
		m.Update(PlayerEventMsg{Event: event.Progress(time.Duration(i)*time.Second, 0)})
	}
	assert.Len(t, m.events, 3, "progress events stay out of the log")

	for i := 0; i < 10; i++ {
		m.Update(PlayerEventMsg{Event: event.Pause()})
	}
	assert.Len(t, m.events, eventLogSize)
}

func TestPlayerView(t *testing.T) {
	m, _, _ := newLoadedPlayer(t)
	m.Update(ControlsVisibleMsg{Visible: true})
	m.Update(ProgressMsg{Progress: transport.Progress{Position: 65 * time.Second, Duration: 200 * time.Second, BufferedPercent: 45}})
	m.Update(SurfaceBoundMsg{ID: "-1"})
	m.Update(PlayerStateMsg{Props: player.Props{Volume: 0.8, Muted: true, ResizeMode: surface.ScaleFitCenter}})

	view := m.View()
	assert.Contains(t, view, "clip.mp4")
	assert.Contains(t, view, "1:05 / 3:20")
	assert.Contains(t, view, "buffered 45%")
	assert.Contains(t, view, "vol 80%")
	assert.Contains(t, view, "muted")
	assert.Contains(t, view, "resize fit-center")
	assert.Contains(t, view, "surface -1")

	m.Update(ControlsVisibleMsg{Visible: false})
	assert.Contains(t, m.View(), "Controls hidden")
}
