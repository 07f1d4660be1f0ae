package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Transport actions, forwarded to the transport controller as keys
	ActionPlayPause      Action = "play_pause"
	ActionStop           Action = "stop"
	ActionRewind         Action = "rewind"
	ActionFastForward    Action = "fast_forward"
	ActionFullscreen     Action = "fullscreen"
	ActionToggleControls Action = "toggle_controls"

	// Seek bar actions
	ActionScrubBack    Action = "scrub_back"
	ActionScrubForward Action = "scrub_forward"
	ActionScrubCommit  Action = "scrub_commit"

	// Player property actions
	ActionToggleMute       Action = "toggle_mute"
	ActionVolumeUp         Action = "volume_up"
	ActionVolumeDown       Action = "volume_down"
	ActionToggleRepeat     Action = "toggle_repeat"
	ActionCycleResizeMode  Action = "cycle_resize_mode"
	ActionToggleBackground Action = "toggle_background"
	ActionRebuild          Action = "rebuild"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal ContextName = "global"
	ContextPlayer ContextName = "player"
	ContextScrub  ContextName = "scrub"
	ContextHelp   ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal: globalBindings,
	ContextPlayer: playerBindings,
	ContextScrub:  scrubBindings,
	ContextHelp:   helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Scroll up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Scroll down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Scroll up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Scroll down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Go to the top",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Go to the bottom",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary:   "ctrl+c",
			Secondary: "q",
			Help:      "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary:   "ctrl+h",
			Secondary: "?",
			Help:      "Toggle help screen",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Close help, or hide the controls",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// playerBindings contains key bindings specific to the player view
var playerBindings = []Binding{
	{
		Action: ActionPlayPause,
		KeyMap: KeyMap{
			Primary:   " ",
			Secondary: "p",
			Help:      "Play/pause",
		},
	},
	{
		Action: ActionStop,
		KeyMap: KeyMap{
			Primary: "s",
			Help:    "Stop (pause)",
		},
	},
	{
		Action: ActionRewind,
		KeyMap: KeyMap{
			Primary:   "left",
			Secondary: "h",
			Help:      "Rewind",
		},
	},
	{
		Action: ActionFastForward,
		KeyMap: KeyMap{
			Primary:   "right",
			Secondary: "l",
			Help:      "Fast forward",
		},
	},
	{
		Action: ActionFullscreen,
		KeyMap: KeyMap{
			Primary: "f",
			Help:    "Toggle fullscreen",
		},
	},
	{
		Action: ActionToggleControls,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Show/hide the controls",
		},
	},
	{
		Action: ActionScrubBack,
		KeyMap: KeyMap{
			Primary: ",",
			Help:    "Drag the seek bar back",
		},
	},
	{
		Action: ActionScrubForward,
		KeyMap: KeyMap{
			Primary: ".",
			Help:    "Drag the seek bar forward",
		},
	},
	{
		Action: ActionToggleMute,
		KeyMap: KeyMap{
			Primary: "m",
			Help:    "Toggle mute",
		},
	},
	{
		Action: ActionVolumeUp,
		KeyMap: KeyMap{
			Primary:   "+",
			Secondary: "=",
			Help:      "Volume up",
		},
	},
	{
		Action: ActionVolumeDown,
		KeyMap: KeyMap{
			Primary: "-",
			Help:    "Volume down",
		},
	},
	{
		Action: ActionToggleRepeat,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Toggle repeat",
		},
	},
	{
		Action: ActionCycleResizeMode,
		KeyMap: KeyMap{
			Primary: "z",
			Help:    "Cycle resize mode",
		},
	},
	{
		Action: ActionToggleBackground,
		KeyMap: KeyMap{
			Primary: "b",
			Help:    "Toggle background (audio only)",
		},
	},
	{
		Action: ActionRebuild,
		KeyMap: KeyMap{
			Primary: "ctrl+r",
			Help:    "Rebuild the engine",
		},
	},
}

// scrubBindings are active while the seek bar is being dragged
var scrubBindings = []Binding{
	{
		Action: ActionScrubBack,
		KeyMap: KeyMap{
			Primary:   ",",
			Secondary: "left",
			Help:      "Move the thumb back",
		},
	},
	{
		Action: ActionScrubForward,
		KeyMap: KeyMap{
			Primary:   ".",
			Secondary: "right",
			Help:      "Move the thumb forward",
		},
	},
	{
		Action: ActionScrubCommit,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Let go of the seek bar",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetActionSecondaryKey returns the secondary key for an action if it exists
func GetActionSecondaryKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Secondary
		}
	}
	return ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// DisplayKey names a key the way the help and footer show it
func DisplayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
