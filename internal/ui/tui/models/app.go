package models

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/player"
	kb "github.com/PizzaHomicide/reelcore/internal/ui/tui/keybindings"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	activeView    View  // Track the current active 'main view'
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	events *event.Subscription

	// Models used for various views
	loadingModel *LoadingModel
	playerModel  *PlayerModel
	helpModel    *HelpModel
}

// NewAppModel creates a new instance of the main application model.  events delivers the player's events; dispatch
// runs actions against the player on its event loop.
func NewAppModel(title string, props player.Props, events *event.Subscription, dispatch Dispatcher) AppModel {
	return AppModel{
		activeView:  ViewLoading,
		activeModal: ModalNone,
		events:      events,
		loadingModel: NewLoadingModel("Opening media").
			WithTitle("Reelcore").
			WithContextInfo(title).
			WithActionText("Press q to quit"),
		playerModel: NewPlayerModel(title, props, dispatch),
		helpModel:   NewHelpModel(ViewLoading),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising Reelcore TUI")
	return tea.Batch(m.loadingModel.Init(), m.playerModel.Init(), listenForEvents(m.events))
}

// listenForEvents waits for the next player event.  It is issued again after every event, so there is always exactly
// one pending.
func listenForEvents(sub *event.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.Events:
			return PlayerEventMsg{Event: e}
		case <-sub.Done:
			return nil
		}
	}
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested", "active_view", m.activeView)
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.helpModel.SetContext(m.activeView)
				m.activeModal = ModalHelp
			}
			return m, nil

		// Handle closing modal when esc is pressed if any is active
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
			if m.activeView == ViewPlayer {
				m.playerModel.Back()
			}
			return m, nil
		}

		if m.activeModal == ModalHelp {
			var cmd tea.Cmd
			m.helpModel, cmd = m.helpModel.Update(msg)
			return m, cmd
		}
		if m.activeView == ViewPlayer {
			var cmd tea.Cmd
			m.playerModel, cmd = m.playerModel.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.MouseMsg:
		if m.activeModal == ModalHelp {
			var cmd tea.Cmd
			m.helpModel, cmd = m.helpModel.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		m.loadingModel.Resize(msg.Width, msg.Height)
		m.playerModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		return m, nil

	case PlayerEventMsg:
		return m.handlePlayerEvent(msg)
	}

	// Everything else is state from the bridge or a spinner tick, which both children may want
	var loadingCmd, playerCmd tea.Cmd
	if m.activeView == ViewLoading {
		m.loadingModel, loadingCmd = m.loadingModel.Update(msg)
	}
	m.playerModel, playerCmd = m.playerModel.Update(msg)
	return m, tea.Batch(loadingCmd, playerCmd)
}

func (m AppModel) handlePlayerEvent(msg PlayerEventMsg) (tea.Model, tea.Cmd) {
	e := msg.Event
	if m.activeView == ViewLoading {
		switch e.Type {
		case event.TypeBuffer:
			m.loadingModel.SetMessage("Buffering")
		case event.TypeLoad, event.TypeError:
			log.Info("Leaving loading screen", "event", e.Type, "waited", m.loadingModel.GetElapsedTime())
			m.activeView = ViewPlayer
		}
		m.loadingModel, _ = m.loadingModel.Update(msg)
	}
	if e.Type == event.TypeError {
		log.Warn("Player reported an error", "code", e.Code, "message", e.Message, "fatal", e.Fatal)
	}

	m.playerModel, _ = m.playerModel.Update(msg)
	return m, listenForEvents(m.events)
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	switch m.activeModal {
	case ModalHelp:
		return m.helpModel.View()
	}

	// Else display the actual view
	switch m.activeView {
	case ViewLoading:
		return m.loadingModel.View()
	case ViewPlayer:
		return m.playerModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}
