package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/reelcore/internal/event"
	"github.com/PizzaHomicide/reelcore/internal/log"
	"github.com/PizzaHomicide/reelcore/internal/player"
	"github.com/PizzaHomicide/reelcore/internal/surface"
	"github.com/PizzaHomicide/reelcore/internal/transport"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/reelcore/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui/styles"
	"github.com/PizzaHomicide/reelcore/internal/ui/tui/util"
)

const (
	// scrubStep is how far one key press moves the seek bar thumb while dragging
	scrubStep = 0.05
	// volumeStep is the change applied by the volume keys
	volumeStep = 0.1
	// eventLogSize is the number of recent events shown under the controls
	eventLogSize = 6
)

// PlayerModel renders the transport controls and forwards key presses to the player on the event loop
type PlayerModel struct {
	width, height int
	title         string
	dispatch      Dispatcher

	// Mirrors of what the player last told its host
	controlsVisible bool
	buttons         transport.Buttons
	progress        transport.Progress
	playing         bool
	fullscreen      bool
	chromeHidden    bool
	surfaceID       string
	transform       surface.Matrix

	props        player.Props
	backgrounded bool

	status    string
	buffering bool
	errMsg    string

	scrubbing     bool
	scrubFraction float64

	events  []event.Event
	bar     progress.Model
	spinner spinner.Model
}

// NewPlayerModel creates the player view.  props are the initial player properties, updated from PlayerStateMsg.
func NewPlayerModel(title string, props player.Props, dispatch Dispatcher) *PlayerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D86FF"))

	return &PlayerModel{
		title:     title,
		dispatch:  dispatch,
		props:     props,
		status:    "idle",
		transform: surface.Identity,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:   s,
	}
}

func (m *PlayerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *PlayerModel) Update(msg tea.Msg) (*PlayerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case ControlsVisibleMsg:
		m.controlsVisible = msg.Visible
	case ButtonsMsg:
		m.buttons = msg.Buttons
	case ProgressMsg:
		m.progress = msg.Progress
	case PlayingMsg:
		m.playing = msg.Playing
	case FullscreenMsg:
		m.fullscreen = msg.Fullscreen
	case ChromeMsg:
		m.chromeHidden = msg.Hidden
	case SurfaceBoundMsg:
		m.surfaceID = msg.ID
	case TransformMsg:
		m.transform = msg.Transform
	case PlayerStateMsg:
		m.props = msg.Props
		m.backgrounded = msg.Backgrounded
	case PlayerEventMsg:
		m.handleEvent(msg.Event)
	case tea.KeyMsg:
		if m.scrubbing {
			m.handleScrubKey(msg)
		} else {
			m.handleKey(msg)
		}
	}
	return m, nil
}

func (m *PlayerModel) handleEvent(e event.Event) {
	// Progress arrives every poll and would push everything else out of the log
	if e.Type != event.TypeProgress {
		m.events = append(m.events, e)
		if len(m.events) > eventLogSize {
			m.events = m.events[len(m.events)-eventLogSize:]
		}
	}

	switch e.Type {
	case event.TypeLoadStart:
		m.status = "loading"
		m.buffering = true
		m.errMsg = ""
	case event.TypeLoad:
		m.status = "loaded"
		m.buffering = false
		m.progress.Duration = e.Duration
	case event.TypeBuffer:
		m.status = "buffering"
		m.buffering = true
	case event.TypePlay:
		m.status = "playing"
		m.buffering = false
	case event.TypePause:
		m.status = "paused"
		m.buffering = false
	case event.TypeStop:
		m.status = "stopped"
		m.buffering = false
	case event.TypeError:
		m.buffering = false
		m.errMsg = e.Message
		if e.Fatal {
			m.status = "failed"
		}
	}
}

// Back is the escape key when no modal is open
func (m *PlayerModel) Back() {
	if m.scrubbing {
		m.endScrub()
		return
	}
	m.dispatch(func(p *player.Player) { p.Transport().HandleKey(transport.KeyBack) })
}

func (m *PlayerModel) handleKey(msg tea.KeyMsg) {
	action := kb.GetActionByKey(msg, kb.ContextPlayer)
	switch action {
	case kb.ActionPlayPause:
		m.sendKey(transport.KeyPlayPause)
	case kb.ActionStop:
		m.sendKey(transport.KeyStop)
	case kb.ActionRewind:
		m.sendKey(transport.KeyRewind)
	case kb.ActionFastForward:
		m.sendKey(transport.KeyFastForward)
	case kb.ActionFullscreen:
		m.sendKey(transport.KeyFullscreen)
	case kb.ActionToggleControls:
		m.dispatch(func(p *player.Player) { p.Transport().OnContentTap() })
	case kb.ActionScrubBack:
		m.startScrub(-scrubStep)
	case kb.ActionScrubForward:
		m.startScrub(scrubStep)
	case kb.ActionToggleMute:
		m.touch(func(p *player.Player) { p.SetMuted(!p.Props().Muted) })
	case kb.ActionVolumeUp:
		m.touch(func(p *player.Player) { p.SetVolume(p.Props().Volume + volumeStep) })
	case kb.ActionVolumeDown:
		m.touch(func(p *player.Player) { p.SetVolume(p.Props().Volume - volumeStep) })
	case kb.ActionToggleRepeat:
		m.touch(func(p *player.Player) { p.SetRepeat(!p.Props().Repeat) })
	case kb.ActionCycleResizeMode:
		m.touch(func(p *player.Player) { p.SetResizeMode(nextScaleMode(p.Props().ResizeMode)) })
	case kb.ActionToggleBackground:
		m.dispatch(func(p *player.Player) { p.SetBackgrounded(!p.Machine().Settings().Backgrounded) })
	case kb.ActionRebuild:
		log.Info("Rebuilding engine on request")
		m.dispatch(func(p *player.Player) { p.Rebuild() })
	}
}

func (m *PlayerModel) handleScrubKey(msg tea.KeyMsg) {
	switch kb.GetActionByKey(msg, kb.ContextScrub) {
	case kb.ActionScrubBack:
		m.moveScrub(-scrubStep)
	case kb.ActionScrubForward:
		m.moveScrub(scrubStep)
	case kb.ActionScrubCommit:
		m.endScrub()
	}
}

func (m *PlayerModel) sendKey(k transport.Key) {
	m.dispatch(func(p *player.Player) { p.Transport().HandleKey(k) })
}

// touch applies fn and counts it as interaction with the controls
func (m *PlayerModel) touch(fn func(p *player.Player)) {
	m.dispatch(func(p *player.Player) {
		fn(p)
		p.Transport().OnTouch()
	})
}

func (m *PlayerModel) startScrub(delta float64) {
	if !m.buttons.SeekBar {
		return
	}
	m.scrubbing = true
	m.scrubFraction = clampFraction(m.progress.Fraction() + delta)
	fraction := m.scrubFraction
	m.dispatch(func(p *player.Player) {
		p.Transport().StartDrag()
		p.Transport().DragTo(fraction)
	})
}

func (m *PlayerModel) moveScrub(delta float64) {
	m.scrubFraction = clampFraction(m.scrubFraction + delta)
	fraction := m.scrubFraction
	m.dispatch(func(p *player.Player) { p.Transport().DragTo(fraction) })
}

func (m *PlayerModel) endScrub() {
	m.scrubbing = false
	m.dispatch(func(p *player.Player) { p.Transport().EndDrag() })
}

// Scrubbing reports whether the seek bar is being dragged from the keyboard
func (m *PlayerModel) Scrubbing() bool {
	return m.scrubbing
}

func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = max(width-24, 10)
}

// View renders the player screen
func (m *PlayerModel) View() string {
	header := styles.Header(m.width, "reelcore: "+util.TruncateString(m.title, max(m.width-12, 4)))

	sections := []string{header, "", m.renderStatus(), ""}
	if m.controlsVisible {
		sections = append(sections, styles.ContentBox(m.width-2, m.renderControls(), 1))
	} else {
		sections = append(sections, styles.CenteredText(m.width, styles.Faint.Render("Controls hidden, press enter to show them")))
	}
	sections = append(sections, "", m.renderProps(), m.renderSurface(), "", m.renderEvents(), "", m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *PlayerModel) renderStatus() string {
	status := m.status
	if m.buffering {
		status = m.spinner.View() + " " + status
	}
	line := styles.Status.Render(status)
	if m.errMsg != "" {
		line += styles.Error.Render(m.errMsg)
	}
	return line
}

func (m *PlayerModel) renderControls() string {
	play := "▶"
	if m.playing {
		play = "⏸"
	}
	fullscreen := "⛶ fullscreen"
	if m.fullscreen {
		fullscreen = "⛶ exit fullscreen"
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Button("⏪", m.buttons.Rewind), " ",
		styles.Button(play, m.buttons.PlayPause), " ",
		styles.Button("⏩", m.buttons.FastForward), "  ",
		styles.Button(fullscreen, m.buttons.Fullscreen),
	)

	fraction := m.progress.Fraction()
	position := m.progress.Position
	if m.scrubbing {
		fraction = m.scrubFraction
		position = time.Duration(fraction * float64(m.progress.Duration))
	}
	bar := m.bar.ViewAs(fraction)
	if !m.buttons.SeekBar {
		bar = styles.Faint.Render(bar)
	}
	times := fmt.Sprintf("%s / %s  buffered %d%%", util.FormatDuration(position),
		util.FormatDuration(m.progress.Duration), m.progress.BufferedPercent)
	if m.scrubbing {
		times += styles.Info.Render("  (dragging)")
	}

	return lipgloss.JoinVertical(lipgloss.Left, buttons, "", bar, times)
}

func (m *PlayerModel) renderProps() string {
	parts := []string{fmt.Sprintf("vol %d%%", int(m.props.Volume*100+0.5))}
	if m.props.Muted {
		parts = append(parts, "muted")
	}
	if m.props.Repeat {
		parts = append(parts, "repeat")
	}
	parts = append(parts, "resize "+m.props.ResizeMode.String())
	if m.fullscreen {
		parts = append(parts, "fullscreen")
	}
	if m.chromeHidden {
		parts = append(parts, "chrome hidden")
	}
	if m.backgrounded {
		parts = append(parts, "background")
	}
	return styles.Status.Render(strings.Join(parts, " • "))
}

func (m *PlayerModel) renderSurface() string {
	if m.surfaceID == "" {
		return styles.Status.Render(styles.Faint.Render("no surface"))
	}
	t := m.transform
	return styles.Status.Render(styles.Faint.Render(fmt.Sprintf("surface %s • scale %.2fx%.2f • offset %.0f,%.0f",
		m.surfaceID, t.ScaleX, t.ScaleY, t.TranslateX, t.TranslateY)))
}

func (m *PlayerModel) renderEvents() string {
	if len(m.events) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		lines = append(lines, styles.Faint.Render(util.TruncateString(describeEvent(e), max(m.width-6, 10))))
	}
	return styles.Status.Render(strings.Join(lines, "\n"))
}

func (m *PlayerModel) renderFooter() string {
	if m.scrubbing {
		return components.KeyBindingsBar(m.width, components.BindingsFor(kb.ContextScrub,
			kb.ActionScrubBack, kb.ActionScrubForward, kb.ActionScrubCommit))
	}
	return components.KeyBindingsBar(m.width, components.BindingsFor(kb.ContextPlayer,
		kb.ActionPlayPause, kb.ActionRewind, kb.ActionFastForward, kb.ActionFullscreen, kb.ActionToggleControls,
		kb.ActionToggleMute))
}

func describeEvent(e event.Event) string {
	switch e.Type {
	case event.TypeLoadStart:
		return fmt.Sprintf("%s %s", e.Type, e.URI)
	case event.TypeLoad:
		return fmt.Sprintf("%s duration %s", e.Type, util.FormatDuration(e.Duration))
	case event.TypeBuffer:
		return fmt.Sprintf("%s %d%%", e.Type, e.BufferPercent)
	case event.TypeSeek:
		return fmt.Sprintf("%s %s -> %s", e.Type, util.FormatDuration(e.From), util.FormatDuration(e.To))
	case event.TypeVolume:
		return fmt.Sprintf("%s %.2f muted=%t", e.Type, e.Level, e.Muted)
	case event.TypeError:
		return fmt.Sprintf("%s %s: %s", e.Type, e.Code, e.Message)
	default:
		return string(e.Type)
	}
}

func nextScaleMode(mode surface.ScaleMode) surface.ScaleMode {
	return surface.ScaleMode((int(mode) + 1) % len(surface.ScaleModeNames()))
}

func clampFraction(f float64) float64 {
	return min(max(f, 0), 1)
}
