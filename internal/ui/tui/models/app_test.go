package models

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/player"
)

func newTestApp(t *testing.T) (AppModel, *event.Broadcaster, *[]func(*player.Player)) {
	t.Helper()
	broadcaster := event.NewBroadcaster()
	t.Cleanup(broadcaster.Close)

	var dispatched []func(*player.Player)
	app := NewAppModel("clip.mp4", player.DefaultOptions().Props, broadcaster.Subscribe(),
		func(fn func(*player.Player)) { dispatched = append(dispatched, fn) })

	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(AppModel), broadcaster, &dispatched
}

func TestAppLeavesLoadingOnLoad(t *testing.T) {
	app, broadcaster, _ := newTestApp(t)
	assert.Equal(t, ViewLoading, app.activeView)

	model, _ := app.Update(PlayerEventMsg{Event: event.LoadStart("clip.mp4", "", false)})
	app = model.(AppModel)
	assert.Equal(t, ViewLoading, app.activeView)

	model, cmd := app.Update(PlayerEventMsg{Event: event.Load(time.Minute, 0)})
	app = model.(AppModel)
	assert.Equal(t, ViewPlayer, app.activeView)
	require.NotNil(t, cmd, "keeps listening for events")

	broadcaster.Emit(event.Play())
	assert.Equal(t, PlayerEventMsg{Event: event.Play()}, cmd())
}

func TestAppLeavesLoadingOnError(t *testing.T) {
	app, _, _ := newTestApp(t)

	model, _ := app.Update(PlayerEventMsg{Event: event.Event{Type: event.TypeError, Message: "no such file", Fatal: true}})
	app = model.(AppModel)
	assert.Equal(t, ViewPlayer, app.activeView)
	assert.Contains(t, app.View(), "no such file")
}

func TestAppListenerStopsWhenClosed(t *testing.T) {
	broadcaster := event.NewBroadcaster()
	cmd := listenForEvents(broadcaster.Subscribe())
	broadcaster.Close()
	assert.Nil(t, cmd())
}

func TestAppHelpModal(t *testing.T) {
	app, _, dispatched := newTestApp(t)

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	app = model.(AppModel)
	assert.Equal(t, ModalHelp, app.activeModal)
	assert.Contains(t, app.View(), "Help: Loading")

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(AppModel)
	assert.Equal(t, ModalNone, app.activeModal)
	assert.Empty(t, *dispatched, "esc closing the modal does not reach the player")
}

func TestAppRoutesKeysToPlayer(t *testing.T) {
	app, _, dispatched := newTestApp(t)

	// Nothing is forwarded while loading
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	app = model.(AppModel)
	assert.Empty(t, *dispatched)

	model, _ = app.Update(PlayerEventMsg{Event: event.Load(time.Minute, 0)})
	app = model.(AppModel)

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	app = model.(AppModel)
	assert.Len(t, *dispatched, 1)

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, *dispatched, 2, "esc goes to the transport controls")
}

func TestAppQuit(t *testing.T) {
	app, _, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
