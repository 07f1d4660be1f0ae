package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/player"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui/models"
)

// New builds the program showing the player behind bridge and points the bridge at it.  The program is killed when
// ctx is done.
func New(ctx context.Context, title string, props player.Props, events *event.Subscription, bridge *Bridge) *tea.Program {
	p := tea.NewProgram(models.NewAppModel(title, props, events, bridge.Dispatch),
		tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.SetSender(p.Send)
	return p
}
