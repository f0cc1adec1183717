package loader

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/preference"
)

const (
	FallbackRootID   = "cookie-fallback-banner"
	FallbackAcceptID = "cookie-fallback-accept"
)

// FallbackMarkup is the minimal accept-only banner injected when the assets cannot be loaded.
const FallbackMarkup = `<div id="` + FallbackRootID + `" class="cookie-fallback" role="dialog" aria-live="polite">` +
	`<p>This site uses essential cookies to work. Optional cookies stay off until you choose otherwise.</p>` +
	`<button type="button" id="` + FallbackAcceptID + `">Accept</button>` +
	`</div>`

// RecordWriter persists a consent decision.
type RecordWriter interface {
	Write(ctx context.Context, prefs preference.Preferences) (*preference.ConsentRecord, error)
}

// Visibility toggles page elements.
type Visibility interface {
	HasElement(id string) bool
	Visible(id string) bool
	SetVisible(id string, visible bool)
}

// FallbackBanner handles the accept control of the fallback markup.
type FallbackBanner struct {
	view     Visibility
	store    RecordWriter
	onAccept func(preference.Preferences)
	logger   *logrus.Entry
}

// NewFallbackBanner binds the fallback accept action. onAccept may be nil.
func NewFallbackBanner(view Visibility, store RecordWriter, onAccept func(preference.Preferences), logger *logrus.Entry) *FallbackBanner {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FallbackBanner{view: view, store: store, onAccept: onAccept, logger: logger}
}

// Present reports whether the fallback markup is in the page and shown to the visitor.
func (f *FallbackBanner) Present() bool {
	return f.view.HasElement(FallbackRootID) && f.view.Visible(FallbackRootID)
}

// Accept stores an essential-only decision and hides the fallback banner.
// The decision is applied even if it could not be stored.
func (f *FallbackBanner) Accept(ctx context.Context) error {
	if !f.Present() {
		return fmt.Errorf("fallback banner is not shown")
	}

	prefs := preference.RejectAll()
	_, err := f.store.Write(ctx, prefs)
	if err != nil {
		f.logger.WithError(err).Error("Failed to persist fallback consent")
	}
	f.view.SetVisible(FallbackRootID, false)
	if f.onAccept != nil {
		f.onAccept(prefs)
	}
	return err
}
