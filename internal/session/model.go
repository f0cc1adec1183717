package session

import (
	"github.com/wso2/cookie-consent/internal/banner"
	"github.com/wso2/cookie-consent/internal/loader"
	"github.com/wso2/cookie-consent/internal/page"
	"github.com/wso2/cookie-consent/internal/preference"
	"github.com/wso2/cookie-consent/internal/toast"
)

// OpenRequest starts a page session.
type OpenRequest struct {
	PagePath string `json:"pagePath"`
}

// EventRequest feeds one event to the banner.
type EventRequest struct {
	Event       string                  `json:"event" binding:"required"`
	Preferences *preference.Preferences `json:"preferences,omitempty"`
}

// View is the externally visible state of a page session.
type View struct {
	SessionID   string                  `json:"sessionId"`
	PagePath    string                  `json:"pagePath"`
	Phase       banner.Phase            `json:"phase"`
	Enabled     bool                    `json:"enabled"`
	Fallback    bool                    `json:"fallback"`
	Preferences *preference.Preferences `json:"preferences"`
	Draft       preference.Preferences  `json:"draft"`
	Toasts      []toast.Toast           `json:"toasts"`
	Assets      []loader.AssetResult    `json:"assets,omitempty"`
	Page        page.Snapshot           `json:"page"`
}

// PreferencesResponse is returned by getPreferences.
type PreferencesResponse struct {
	Preferences preference.Preferences `json:"preferences"`
}
