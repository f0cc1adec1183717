package banner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAnchor reports page elements the banner needs but cannot find.
var ErrMissingAnchor = errors.New("banner: required page anchor missing")

// Anchors are the element ids the banner binds to.
type Anchors struct {
	Root            string
	AcceptButton    string
	RejectButton    string
	CustomizeButton string
	MainView        string
	SettingsPanel   string
	BackButton      string
	SettingsForm    string
}

// DefaultAnchors returns the ids used by the bundled banner markup.
func DefaultAnchors() Anchors {
	return Anchors{
		Root:            "cookie-banner",
		AcceptButton:    "cookie-accept-all",
		RejectButton:    "cookie-reject-all",
		CustomizeButton: "cookie-customize",
		MainView:        "cookie-banner-main",
		SettingsPanel:   "cookie-settings",
		BackButton:      "cookie-settings-back",
		SettingsForm:    "cookie-settings-form",
	}
}

func (a Anchors) required() []string {
	return []string{
		a.Root, a.AcceptButton, a.RejectButton, a.CustomizeButton,
		a.MainView, a.SettingsPanel, a.BackButton, a.SettingsForm,
	}
}

// resolve checks every anchor once against the view.
func (a Anchors) resolve(v View) error {
	var missing []string
	for _, id := range a.required() {
		if id == "" || !v.HasElement(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingAnchor, strings.Join(missing, ", "))
	}
	return nil
}
