package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PizzaHomicide/reelcore/internal/config"
	kb "github.com/PizzaHomicide/reelcore/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel displays contextual help with scrolling
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

// NewHelpModel creates a new help model for the given context
func NewHelpModel(context View) *HelpModel {
	return &HelpModel{
		context:  context,
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model
func (m *HelpModel) Init() tea.Cmd {
	// Set initial content if dimensions are available
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (*HelpModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		}

	}
	return m, cmd
}

// SetContext switches the help to describe another view
func (m *HelpModel) SetContext(context View) {
	if m.context == context {
		return
	}
	m.context = context
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Update viewport dimensions
	contentWidth := width - 4    // Account for borders
	contentHeight := height - 10 // Account for header, footer, spacing

	// Ensure we don't set negative dimensions
	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight

	// Update content for new dimensions
	m.updateContent()
}

// updateContent generates help content and updates the viewport
func (m *HelpModel) updateContent() {
	content := m.generateHelpContent()
	m.viewport.SetContent(content)
	// Reset to top when content changes
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	title := m.getContextTitle()

	// Create header
	header := styles.Header(m.width, "Help: "+title)

	// Main content area with viewport
	contentView := m.viewport.View()

	// Footer with navigation help
	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	// Combine elements
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"", // Spacing
		styles.ContentBox(m.width-2, contentView, 1),
		"", // Spacing
		footer,
	)
}

// getContextTitle returns a user-friendly title for the context
func (m *HelpModel) getContextTitle() string {
	switch m.context {
	case ViewLoading:
		return "Loading"
	case ViewPlayer:
		return "Player"
	default:
		return "General"
	}
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func (m *HelpModel) formatKeybindingSection(title string, bindings []kb.Binding, skipActions map[kb.Action]bool) string {
	if len(bindings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	keyText := func(binding kb.Binding) string {
		text := kb.DisplayKey(binding.KeyMap.Primary)
		if binding.KeyMap.Secondary != "" {
			text += " or " + kb.DisplayKey(binding.KeyMap.Secondary)
		}
		return text
	}

	// First pass: determine the maximum key width for alignment
	maxKeyWidth := 0
	for _, binding := range bindings {
		if skipActions[binding.Action] {
			continue
		}
		if width := utf8.RuneCountInString(keyText(binding)); width > maxKeyWidth {
			maxKeyWidth = width
		}
	}

	// Second pass: format each binding with aligned colons
	for _, binding := range bindings {
		if skipActions[binding.Action] {
			continue
		}

		text := keyText(binding)
		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(text))

		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(text),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	// Title style for sections
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	// Add context description section
	b.WriteString(titleStyle.Render(m.getContextTitle()))
	b.WriteString("\n\n")
	b.WriteString(m.getContextDescription())
	b.WriteString("\n\n")

	// Add keybindings section
	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")

	b.WriteString(m.formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal], nil))

	// The player bindings only work once playback has started, but the loading screen lists them too so they can be
	// learnt while waiting
	b.WriteString("\n")
	b.WriteString(m.formatKeybindingSection("Player commands:", kb.ContextBindings[kb.ContextPlayer], nil))
	b.WriteString("\n")
	b.WriteString(m.formatKeybindingSection("While dragging the seek bar:", kb.ContextBindings[kb.ContextScrub], nil))

	b.WriteString("\n")
	b.WriteString(m.getEnvironmentDetails(titleStyle))

	return b.String()
}

// getEnvironmentDetails lists the environment variables that override the configuration file
func (m *HelpModel) getEnvironmentDetails(titleStyle lipgloss.Style) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Environment"))
	b.WriteString("\n\n")

	help := config.EnvVarHelp()
	maxWidth := 0
	for _, entry := range help {
		maxWidth = max(maxWidth, utf8.RuneCountInString(entry[0]))
	}
	for _, entry := range help {
		padding := strings.Repeat(" ", maxWidth-utf8.RuneCountInString(entry[0]))
		b.WriteString(fmt.Sprintf("• %s%s : %s\n", lipgloss.NewStyle().Bold(true).Render(entry[0]), padding, entry[1]))
	}

	b.WriteString("\nEnvironment variables win over the configuration file, which wins over the built in defaults.\n")

	return b.String()
}

// getContextDescription returns help text for the current context
func (m *HelpModel) getContextDescription() string {
	switch m.context {
	case ViewLoading:
		return "The engine is being started and the media opened.\n\n" +
			"Playback begins as soon as the media has loaded, unless it was configured to start paused."

	case ViewPlayer:
		return "The player screen shows the transport controls for the media playing in the video window.\n\n" +
			"The controls hide themselves after a few seconds without interaction.  Any key brings them back, and " +
			"enter toggles them.  While the controls are hidden in fullscreen the terminal chrome is hidden too, " +
			"unless auto-hiding navigation was turned off in the configuration.\n\n" +
			"Dragging the seek bar pauses the progress updates and seeks when it is let go of."

	default:
		return "Welcome to Reelcore, a terminal front end for controlling media playback."
	}
}
