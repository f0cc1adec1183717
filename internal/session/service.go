package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/banner"
	"github.com/wso2/cookie-consent/internal/loader"
	"github.com/wso2/cookie-consent/internal/page"
	"github.com/wso2/cookie-consent/internal/preference"
	"github.com/wso2/cookie-consent/internal/system/error/serviceerror"
	"github.com/wso2/cookie-consent/internal/system/kvstore"
	"github.com/wso2/cookie-consent/internal/system/middleware"
	"github.com/wso2/cookie-consent/internal/toast"
)

const msgFallbackAccepted = "Only essential cookies will be used."

// Dependencies wires a session service.
type Dependencies struct {
	KV kvstore.Store
	// Loader fetches banner assets; nil when the banner markup is static.
	Loader *loader.Loader
	// StaticMarkup is injected directly into every page when set.
	StaticMarkup  string
	Anchors       banner.Anchors
	Preference    preference.Options
	ToastDuration time.Duration
	IdleTimeout   time.Duration
	// Hooks receive every applied preference set, e.g. analytics toggles.
	Hooks  []banner.ApplyFunc
	Logger *logrus.Entry
}

// SessionService manages page sessions.
type SessionService interface {
	Open(ctx context.Context, visitorID, pagePath string) (*View, *serviceerror.ServiceError)
	Get(ctx context.Context, visitorID, sessionID string) (*View, *serviceerror.ServiceError)
	Dispatch(ctx context.Context, visitorID, sessionID string, req EventRequest) (*View, *serviceerror.ServiceError)
	ShowSettings(ctx context.Context, visitorID, sessionID string) (*View, *serviceerror.ServiceError)
	AcceptFallback(ctx context.Context, visitorID, sessionID string) (*View, *serviceerror.ServiceError)
	Preferences(ctx context.Context, visitorID, sessionID string) (*PreferencesResponse, *serviceerror.ServiceError)
	DismissToast(ctx context.Context, visitorID, sessionID, toastID string) *serviceerror.ServiceError
	Close(ctx context.Context, visitorID, sessionID string) *serviceerror.ServiceError
	Sweep(now time.Time) int
}

// pageSession is one loaded page. mu serializes its events.
type pageSession struct {
	mu        sync.Mutex
	id        string
	visitorID string
	doc       *page.Document
	ctrl      *banner.Controller
	fallback  *loader.FallbackBanner
	toasts    *toast.Center
	assets    []loader.AssetResult
	lastSeen  time.Time
}

type sessionService struct {
	deps     Dependencies
	mu       sync.Mutex
	sessions map[string]*pageSession
	now      func() time.Time
	logger   *logrus.Entry
}

func newSessionService(deps Dependencies) *sessionService {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &sessionService{
		deps:     deps,
		sessions: make(map[string]*pageSession),
		now:      time.Now,
		logger:   logger,
	}
}

// Open runs the page bootstrap: inject or load the banner, then initialize the state machine.
func (s *sessionService) Open(ctx context.Context, visitorID, pagePath string) (*View, *serviceerror.ServiceError) {
	if visitorID == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "visitor id is required")
	}

	sess := &pageSession{
		id:        uuid.NewString(),
		visitorID: visitorID,
		doc:       page.New(pagePath),
		lastSeen:  s.now(),
	}
	logger := s.logger.WithFields(logrus.Fields{
		"session_id":     sess.id,
		"page":           sess.doc.Path(),
		"correlation_id": middleware.CorrelationIDFromContext(ctx),
	})

	usingFallback := false
	switch {
	case s.deps.StaticMarkup != "":
		if err := sess.doc.InjectMarkup(s.deps.StaticMarkup); err != nil {
			logger.WithError(err).Warn("Failed to inject static banner markup")
		}
	case s.deps.Loader != nil:
		res := s.deps.Loader.Load(ctx, sess.doc)
		sess.assets = res.Assets
		usingFallback = res.Fallback
	}

	store := preference.NewStore(kvstore.Namespace(s.deps.KV, visitorID), s.storeOptions(logger))
	sess.toasts = toast.NewCenter(s.deps.ToastDuration, logger.WithField("component", "toast"))
	sess.ctrl = banner.NewController(s.deps.Anchors, sess.doc, store, sess.toasts, logger.WithField("component", "banner"))
	for _, hook := range s.deps.Hooks {
		sess.ctrl.Subscribe(hook)
	}
	sess.fallback = loader.NewFallbackBanner(sess.doc, store, sess.ctrl.Apply, logger.WithField("component", "fallback"))

	// Without its script the full banner cannot run; the fallback banner takes over
	// unless the visitor already has a valid record.
	phase := banner.Hidden
	if usingFallback {
		if rec, ok := store.Read(ctx); ok {
			sess.doc.SetVisible(loader.FallbackRootID, false)
			sess.ctrl.Apply(rec.Preferences)
		}
	} else {
		phase = sess.ctrl.Init(ctx)
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"phase":    phase.String(),
		"enabled":  sess.ctrl.Enabled(),
		"fallback": sess.fallback.Present(),
	}).Info("Page session opened")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(ctx, sess), nil
}

func (s *sessionService) storeOptions(logger *logrus.Entry) preference.Options {
	opts := s.deps.Preference
	opts.Logger = logger.WithField("component", "preference")
	return opts
}

func (s *sessionService) Get(ctx context.Context, visitorID, sessionID string) (*View, *serviceerror.ServiceError) {
	sess, svcErr := s.lookup(visitorID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(ctx, sess), nil
}

func (s *sessionService) Dispatch(ctx context.Context, visitorID, sessionID string, req EventRequest) (*View, *serviceerror.ServiceError) {
	event, ok := banner.ParseEvent(req.Event)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError,
			fmt.Sprintf("unknown event %q", req.Event))
	}
	return s.withSession(ctx, visitorID, sessionID, func(sess *pageSession) error {
		_, err := sess.ctrl.Dispatch(ctx, event, req.Preferences)
		return err
	})
}

func (s *sessionService) ShowSettings(ctx context.Context, visitorID, sessionID string) (*View, *serviceerror.ServiceError) {
	return s.withSession(ctx, visitorID, sessionID, func(sess *pageSession) error {
		_, err := sess.ctrl.ShowSettings(ctx)
		return err
	})
}

func (s *sessionService) AcceptFallback(ctx context.Context, visitorID, sessionID string) (*View, *serviceerror.ServiceError) {
	return s.withSession(ctx, visitorID, sessionID, func(sess *pageSession) error {
		if !sess.fallback.Present() {
			return errNoFallback
		}
		if err := sess.fallback.Accept(ctx); err != nil {
			sess.toasts.Notify(toast.Error, "We couldn't save your cookie choice. It applies to this page only.")
			return nil
		}
		sess.toasts.Notify(toast.Success, msgFallbackAccepted)
		return nil
	})
}

func (s *sessionService) Preferences(ctx context.Context, visitorID, sessionID string) (*PreferencesResponse, *serviceerror.ServiceError) {
	sess, svcErr := s.lookup(visitorID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	prefs, ok := sess.ctrl.Preferences(ctx)
	if !ok {
		return nil, &serviceerror.PreferencesNotFoundError
	}
	return &PreferencesResponse{Preferences: prefs}, nil
}

func (s *sessionService) DismissToast(_ context.Context, visitorID, sessionID, toastID string) *serviceerror.ServiceError {
	sess, svcErr := s.lookup(visitorID, sessionID)
	if svcErr != nil {
		return svcErr
	}
	if !sess.toasts.Dismiss(toastID) {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "toast not found")
	}
	return nil
}

func (s *sessionService) Close(_ context.Context, visitorID, sessionID string) *serviceerror.ServiceError {
	if _, svcErr := s.lookup(visitorID, sessionID); svcErr != nil {
		return svcErr
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	s.logger.WithField("session_id", sessionID).Debug("Page session closed")
	return nil
}

// Sweep drops sessions idle for longer than the idle timeout and returns how many were dropped.
func (s *sessionService) Sweep(now time.Time) int {
	if s.deps.IdleTimeout <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()
		if idle > s.deps.IdleTimeout {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Debug("Idle page sessions evicted")
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func RunJanitor(ctx context.Context, svc SessionService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			svc.Sweep(now)
		}
	}
}

var errNoFallback = errors.New("fallback banner is not shown on this page")

func (s *sessionService) withSession(ctx context.Context, visitorID, sessionID string, fn func(*pageSession) error) (*View, *serviceerror.ServiceError) {
	sess, svcErr := s.lookup(visitorID, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess); err != nil {
		return nil, toServiceError(err)
	}
	return s.view(ctx, sess), nil
}

func (s *sessionService) lookup(visitorID, sessionID string) (*pageSession, *serviceerror.ServiceError) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok || sess.visitorID != visitorID {
		return nil, &serviceerror.SessionNotFoundError
	}
	sess.mu.Lock()
	sess.lastSeen = s.now()
	sess.mu.Unlock()
	return sess, nil
}

// view must be called with sess.mu held.
func (s *sessionService) view(ctx context.Context, sess *pageSession) *View {
	v := &View{
		SessionID: sess.id,
		PagePath:  sess.doc.Path(),
		Phase:     sess.ctrl.Phase(),
		Enabled:   sess.ctrl.Enabled(),
		Fallback:  sess.fallback.Present(),
		Draft:     sess.ctrl.SettingsDraft(ctx),
		Toasts:    sess.toasts.Active(),
		Assets:    sess.assets,
		Page:      sess.doc.Snapshot(),
	}
	if prefs, ok := sess.ctrl.Preferences(ctx); ok {
		v.Preferences = &prefs
	}
	return v
}

func toServiceError(err error) *serviceerror.ServiceError {
	switch {
	case errors.Is(err, banner.ErrInvalidTransition):
		return serviceerror.CustomServiceError(serviceerror.InvalidTransitionError, err.Error())
	case errors.Is(err, banner.ErrDisabled):
		return &serviceerror.BannerDisabledError
	case errors.Is(err, banner.ErrMissingPreferences):
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "preferences are required to save")
	case errors.Is(err, errNoFallback):
		return serviceerror.CustomServiceError(serviceerror.ConflictError, err.Error())
	default:
		return &serviceerror.InternalServerError
	}
}
