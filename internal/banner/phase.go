package banner

import "encoding/json"

// Phase is the banner's visibility mode.
type Phase int

const (
	Hidden Phase = iota
	MainVisible
	SettingsVisible
)

func (p Phase) String() string {
	switch p {
	case Hidden:
		return "hidden"
	case MainVisible:
		return "main_visible"
	case SettingsVisible:
		return "settings_visible"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Event is a user or page action fed to the state machine.
type Event string

const (
	EventAcceptAll    Event = "accept-all"
	EventRejectAll    Event = "reject-all"
	EventCustomize    Event = "customize"
	EventBack         Event = "back"
	EventSave         Event = "save"
	EventEscape       Event = "escape"
	EventShowSettings Event = "show-settings"
	EventForget       Event = "forget"
)

// ParseEvent validates an event name.
func ParseEvent(s string) (Event, bool) {
	switch e := Event(s); e {
	case EventAcceptAll, EventRejectAll, EventCustomize, EventBack, EventSave,
		EventEscape, EventShowSettings, EventForget:
		return e, true
	}
	return "", false
}
