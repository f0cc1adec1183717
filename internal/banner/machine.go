// Package banner implements the cookie banner state machine.
package banner

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/preference"
	"github.com/wso2/cookie-consent/internal/toast"
)

var (
	// ErrInvalidTransition is returned for events the current phase does not accept.
	ErrInvalidTransition = errors.New("banner: event not allowed in current phase")
	// ErrDisabled is returned once initialization found the page unusable for the banner.
	ErrDisabled = errors.New("banner: disabled for this page")
	// ErrMissingPreferences is returned when a save carries no category choices.
	ErrMissingPreferences = errors.New("banner: save requires preferences")
)

const (
	msgSaved      = "Your cookie preferences have been saved."
	msgSaveFailed = "We couldn't save your cookie preferences. They apply to this page only."
	msgReset      = "Your cookie choices have been reset."
	msgResetFail  = "We couldn't reset your stored cookie choices."
)

// View is the part of the page the banner renders into.
type View interface {
	HasElement(id string) bool
	SetVisible(id string, visible bool)
}

// PreferenceStore persists the consent record.
type PreferenceStore interface {
	Read(ctx context.Context) (*preference.ConsentRecord, bool)
	Write(ctx context.Context, prefs preference.Preferences) (*preference.ConsentRecord, error)
	Clear(ctx context.Context) error
}

// ApplyFunc receives every applied preference set.
type ApplyFunc func(preference.Preferences)

type effect func(c *Controller, ctx context.Context, prefs *preference.Preferences)

type transitionKey struct {
	from  Phase
	event Event
}

type transition struct {
	to     Phase
	effect effect
}

var transitions = map[transitionKey]transition{
	{MainVisible, EventAcceptAll}:        {Hidden, persistFixed(preference.AcceptAll)},
	{MainVisible, EventRejectAll}:        {Hidden, persistFixed(preference.RejectAll)},
	{MainVisible, EventCustomize}:        {SettingsVisible, nil},
	{MainVisible, EventEscape}:           {Hidden, persistFixed(preference.RejectAll)},
	{MainVisible, EventShowSettings}:     {SettingsVisible, nil},
	{SettingsVisible, EventBack}:         {MainVisible, nil},
	{SettingsVisible, EventEscape}:       {MainVisible, nil},
	{SettingsVisible, EventSave}:         {Hidden, persistChosen},
	{SettingsVisible, EventShowSettings}: {SettingsVisible, nil},
	{Hidden, EventShowSettings}:          {SettingsVisible, nil},
	{Hidden, EventEscape}:                {Hidden, nil},
	{Hidden, EventForget}:                {MainVisible, forget},
	{MainVisible, EventForget}:           {MainVisible, forget},
	{SettingsVisible, EventForget}:       {MainVisible, forget},
}

// Controller owns the banner phase of one page. It is not safe for concurrent use;
// callers serialize events so each transition runs to completion.
type Controller struct {
	anchors     Anchors
	view        View
	store       PreferenceStore
	notifier    toast.Notifier
	logger      *logrus.Entry
	phase       Phase
	enabled     bool
	current     *preference.Preferences
	forgotten   bool
	subscribers []ApplyFunc
}

// NewController wires a controller to its page, store and notifier.
func NewController(anchors Anchors, view View, store PreferenceStore, notifier toast.Notifier, logger *logrus.Entry) *Controller {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		anchors:  anchors,
		view:     view,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Subscribe registers fn for every applied preference set.
func (c *Controller) Subscribe(fn ApplyFunc) {
	c.subscribers = append(c.subscribers, fn)
}

// Init resolves the anchors and picks the starting phase from the stored record.
// Missing anchors disable the controller; the page carries on without a banner.
func (c *Controller) Init(ctx context.Context) Phase {
	c.phase = Hidden
	if err := c.anchors.resolve(c.view); err != nil {
		c.enabled = false
		c.logger.WithError(err).Warn("Cookie banner disabled for this page")
		return c.phase
	}
	c.enabled = true

	if rec, ok := c.store.Read(ctx); ok {
		c.render()
		c.Apply(rec.Preferences)
		c.logger.WithField("expires_at", rec.ExpiresAt).Debug("Existing consent applied")
		return c.phase
	}

	c.phase = MainVisible
	c.render()
	c.logger.Debug("No valid consent found, showing banner")
	return c.phase
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Enabled reports whether Init found every anchor.
func (c *Controller) Enabled() bool { return c.enabled }

// Dispatch feeds event through the transition table. prefs is only read by save.
func (c *Controller) Dispatch(ctx context.Context, event Event, prefs *preference.Preferences) (Phase, error) {
	if !c.enabled {
		return c.phase, ErrDisabled
	}
	t, ok := transitions[transitionKey{c.phase, event}]
	if !ok {
		return c.phase, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, event, c.phase)
	}
	if event == EventSave && prefs == nil {
		return c.phase, ErrMissingPreferences
	}

	from := c.phase
	if t.effect != nil {
		t.effect(c, ctx, prefs)
	}
	c.phase = t.to
	c.render()

	c.logger.WithFields(logrus.Fields{
		"event": event,
		"from":  from.String(),
		"to":    c.phase.String(),
	}).Debug("Banner transition")
	return c.phase, nil
}

// ShowSettings opens the settings view whatever the current phase.
func (c *Controller) ShowSettings(ctx context.Context) (Phase, error) {
	return c.Dispatch(ctx, EventShowSettings, nil)
}

// Apply records prefs as the effective decision for this page and notifies subscribers.
func (c *Controller) Apply(prefs preference.Preferences) {
	prefs = prefs.Normalize()
	c.current = &prefs
	c.forgotten = false
	c.publish(prefs)
}

// Preferences returns the effective decision, or false when no valid consent exists.
// After forget it reports none for the rest of the page, even if the stored record survived.
func (c *Controller) Preferences(ctx context.Context) (preference.Preferences, bool) {
	if c.current != nil {
		return *c.current, true
	}
	if c.forgotten {
		return preference.Preferences{}, false
	}
	if rec, ok := c.store.Read(ctx); ok {
		return rec.Preferences, true
	}
	return preference.Preferences{}, false
}

// SettingsDraft returns the values the category toggles start from.
func (c *Controller) SettingsDraft(ctx context.Context) preference.Preferences {
	if prefs, ok := c.Preferences(ctx); ok {
		return prefs
	}
	return preference.RejectAll()
}

func (c *Controller) publish(prefs preference.Preferences) {
	for _, fn := range c.subscribers {
		fn(prefs)
	}
}

func (c *Controller) render() {
	switch c.phase {
	case Hidden:
		c.view.SetVisible(c.anchors.Root, false)
	case MainVisible:
		c.view.SetVisible(c.anchors.Root, true)
		c.view.SetVisible(c.anchors.MainView, true)
		c.view.SetVisible(c.anchors.SettingsPanel, false)
	case SettingsVisible:
		c.view.SetVisible(c.anchors.Root, true)
		c.view.SetVisible(c.anchors.MainView, false)
		c.view.SetVisible(c.anchors.SettingsPanel, true)
	}
}

func (c *Controller) notify(level toast.Level, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(level, msg)
	}
}

// persist writes prefs once, applies them even if the write failed, and reports the outcome.
func (c *Controller) persist(ctx context.Context, prefs preference.Preferences) {
	rec, err := c.store.Write(ctx, prefs)
	if err != nil {
		c.logger.WithError(err).Error("Failed to persist cookie preferences")
		c.Apply(prefs)
		c.notify(toast.Error, msgSaveFailed)
		return
	}
	c.Apply(rec.Preferences)
	c.notify(toast.Success, msgSaved)
}

func persistFixed(prefs func() preference.Preferences) effect {
	return func(c *Controller, ctx context.Context, _ *preference.Preferences) {
		c.persist(ctx, prefs())
	}
}

func persistChosen(c *Controller, ctx context.Context, prefs *preference.Preferences) {
	c.persist(ctx, *prefs)
}

// forget drops the stored record; third-party hooks fall back to essential only.
func forget(c *Controller, ctx context.Context, _ *preference.Preferences) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.WithError(err).Error("Failed to clear cookie preferences")
		c.notify(toast.Error, msgResetFail)
	} else {
		c.notify(toast.Info, msgReset)
	}
	c.current = nil
	c.forgotten = true
	c.publish(preference.RejectAll())
}
