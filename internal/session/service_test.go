package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/cookie-consent/internal/banner"
	"github.com/wso2/cookie-consent/internal/loader"
	"github.com/wso2/cookie-consent/internal/preference"
	"github.com/wso2/cookie-consent/internal/system/error/serviceerror"
	"github.com/wso2/cookie-consent/internal/system/kvstore"
	"github.com/wso2/cookie-consent/internal/system/retry"
	"github.com/wso2/cookie-consent/internal/toast"
)

const (
	visitorA = "6f1c1d1e-0000-4000-8000-00000000000a"
	visitorB = "6f1c1d1e-0000-4000-8000-00000000000b"
)

const bannerMarkup = `
<div id="cookie-banner" class="cookie-banner" role="dialog" hidden>
  <div id="cookie-banner-main">
    <button id="cookie-accept-all">Accept all</button>
    <button id="cookie-reject-all">Reject all</button>
    <button id="cookie-customize">Customize</button>
  </div>
  <div id="cookie-settings" hidden>
    <form id="cookie-settings-form">
      <button type="button" id="cookie-settings-back">Back</button>
    </form>
  </div>
</div>`

func staticDeps(kv kvstore.Store) Dependencies {
	return Dependencies{
		KV:           kv,
		StaticMarkup: bannerMarkup,
		Anchors:      banner.DefaultAnchors(),
		IdleTimeout:  time.Minute,
	}
}

type failingFetcher struct{}

func (failingFetcher) Fetch(_ context.Context, url string) (string, error) {
	return "", &loader.StatusError{URL: url, StatusCode: http.StatusBadGateway}
}

func fallbackDeps(t *testing.T, kv kvstore.Store) Dependencies {
	t.Helper()
	policy := retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		Jitter:      retry.NoJitter,
		Sleep:       func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	}
	l, err := loader.New(loader.Config{
		BaseURL:    "http://assets.invalid/",
		StylePath:  "assets/css/cookie-banner.css",
		MarkupPath: "components/cookie-banner.html",
		ScriptPath: "assets/js/cookie-banner.js",
		Anchor:     "cookie-banner",
		Policy:     policy,
	}, failingFetcher{}, nil)
	require.NoError(t, err)

	deps := staticDeps(kv)
	deps.StaticMarkup = ""
	deps.Loader = l
	return deps
}

func TestOpen_NewVisitorSeesBanner(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))

	view, svcErr := svc.Open(context.Background(), visitorA, "/index.html")
	require.Nil(t, svcErr)

	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "/index.html", view.PagePath)
	assert.Equal(t, banner.MainVisible, view.Phase)
	assert.True(t, view.Enabled)
	assert.False(t, view.Fallback)
	assert.Nil(t, view.Preferences)
	assert.Equal(t, preference.RejectAll(), view.Draft)
}

func TestOpen_RequiresVisitor(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))

	_, svcErr := svc.Open(context.Background(), "", "/index.html")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidRequestError.Code, svcErr.Code)
}

func TestEndToEnd_CustomSaveAcrossPageLoads(t *testing.T) {
	kv := kvstore.NewMemoryStore(0)
	svc := newSessionService(staticDeps(kv))
	ctx := context.Background()

	view, svcErr := svc.Open(ctx, visitorA, "/index.html")
	require.Nil(t, svcErr)
	require.Equal(t, banner.MainVisible, view.Phase)

	view, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "customize"})
	require.Nil(t, svcErr)
	require.Equal(t, banner.SettingsVisible, view.Phase)

	chosen := preference.Preferences{Analytics: true}
	view, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "save", Preferences: &chosen})
	require.Nil(t, svcErr)
	assert.Equal(t, banner.Hidden, view.Phase)
	require.Len(t, view.Toasts, 1)
	assert.Equal(t, toast.Success, view.Toasts[0].Level)

	want := preference.Preferences{Essential: true, Analytics: true}
	store := preference.NewStore(kvstore.Namespace(kv, visitorA), preference.Options{})
	rec, ok := store.Read(ctx)
	require.True(t, ok)
	assert.Equal(t, want, rec.Preferences)
	assert.WithinDuration(t, time.Now().AddDate(0, 6, 0), rec.ExpiresAt, time.Minute)

	next, svcErr := svc.Open(ctx, visitorA, "/jobs/view.html")
	require.Nil(t, svcErr)
	assert.Equal(t, banner.Hidden, next.Phase)
	require.NotNil(t, next.Preferences)
	assert.Equal(t, want, *next.Preferences)

	other, svcErr := svc.Open(ctx, visitorB, "/index.html")
	require.Nil(t, svcErr)
	assert.Equal(t, banner.MainVisible, other.Phase)
}

func TestDispatch_Errors(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))
	ctx := context.Background()
	view, _ := svc.Open(ctx, visitorA, "/")

	_, svcErr := svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "dance"})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidRequestError.Code, svcErr.Code)

	_, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "back"})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidTransitionError.Code, svcErr.Code)

	_, svcErr = svc.Dispatch(ctx, visitorB, view.SessionID, EventRequest{Event: "accept-all"})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.SessionNotFoundError.Code, svcErr.Code)

	_, svcErr = svc.Dispatch(ctx, visitorA, "missing", EventRequest{Event: "accept-all"})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.SessionNotFoundError.Code, svcErr.Code)

	_, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "customize"})
	require.Nil(t, svcErr)
	_, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "save"})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.InvalidRequestError.Code, svcErr.Code)
}

func TestShowSettingsAndForget(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))
	ctx := context.Background()
	view, _ := svc.Open(ctx, visitorA, "/")

	view, svcErr := svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "accept-all"})
	require.Nil(t, svcErr)
	require.Equal(t, banner.Hidden, view.Phase)

	view, svcErr = svc.ShowSettings(ctx, visitorA, view.SessionID)
	require.Nil(t, svcErr)
	assert.Equal(t, banner.SettingsVisible, view.Phase)
	assert.Equal(t, preference.AcceptAll(), view.Draft)

	view, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "forget"})
	require.Nil(t, svcErr)
	assert.Equal(t, banner.MainVisible, view.Phase)
	assert.Nil(t, view.Preferences)

	_, svcErr = svc.Preferences(ctx, visitorA, view.SessionID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.PreferencesNotFoundError.Code, svcErr.Code)
}

func TestHooksReceiveAppliedPreferences(t *testing.T) {
	var applied []preference.Preferences
	deps := staticDeps(kvstore.NewMemoryStore(0))
	deps.Hooks = []banner.ApplyFunc{func(p preference.Preferences) { applied = append(applied, p) }}
	svc := newSessionService(deps)
	ctx := context.Background()

	view, _ := svc.Open(ctx, visitorA, "/")
	_, svcErr := svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "reject-all"})
	require.Nil(t, svcErr)

	assert.Equal(t, []preference.Preferences{preference.RejectAll()}, applied)
}

func TestPersistenceFailureKeepsDecisionForPage(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(16)))
	ctx := context.Background()
	view, _ := svc.Open(ctx, visitorA, "/")

	view, svcErr := svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "accept-all"})
	require.Nil(t, svcErr)
	assert.Equal(t, banner.Hidden, view.Phase)
	require.Len(t, view.Toasts, 1)
	assert.Equal(t, toast.Error, view.Toasts[0].Level)

	resp, svcErr := svc.Preferences(ctx, visitorA, view.SessionID)
	require.Nil(t, svcErr)
	assert.Equal(t, preference.AcceptAll(), resp.Preferences)

	next, _ := svc.Open(ctx, visitorA, "/")
	assert.Equal(t, banner.MainVisible, next.Phase)
}

func TestMissingAnchorsDisableBanner(t *testing.T) {
	deps := staticDeps(kvstore.NewMemoryStore(0))
	deps.StaticMarkup = `<div id="cookie-banner"></div>`
	svc := newSessionService(deps)
	ctx := context.Background()

	view, svcErr := svc.Open(ctx, visitorA, "/")
	require.Nil(t, svcErr)
	assert.False(t, view.Enabled)
	assert.Equal(t, banner.Hidden, view.Phase)

	_, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "accept-all"})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.BannerDisabledError.Code, svcErr.Code)
}

func TestFallbackBanner(t *testing.T) {
	kv := kvstore.NewMemoryStore(0)
	svc := newSessionService(fallbackDeps(t, kv))
	ctx := context.Background()

	view, svcErr := svc.Open(ctx, visitorA, "/jobs/view.html")
	require.Nil(t, svcErr)
	assert.True(t, view.Fallback)
	assert.False(t, view.Enabled)
	require.NotEmpty(t, view.Assets)
	assert.Equal(t, 3, view.Assets[0].Attempts)

	_, svcErr = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "accept-all"})
	require.NotNil(t, svcErr)

	view, svcErr = svc.AcceptFallback(ctx, visitorA, view.SessionID)
	require.Nil(t, svcErr)
	assert.False(t, view.Fallback)
	require.NotNil(t, view.Preferences)
	assert.Equal(t, preference.RejectAll(), *view.Preferences)

	_, svcErr = svc.AcceptFallback(ctx, visitorA, view.SessionID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ConflictError.Code, svcErr.Code)

	next, svcErr := svc.Open(ctx, visitorA, "/index.html")
	require.Nil(t, svcErr)
	assert.False(t, next.Fallback)
	require.NotNil(t, next.Preferences)
}

func TestAcceptFallback_HiddenForReturningVisitor(t *testing.T) {
	kv := kvstore.NewMemoryStore(0)
	ctx := context.Background()
	store := preference.NewStore(kvstore.Namespace(kv, visitorA), preference.Options{})
	_, err := store.Write(ctx, preference.AcceptAll())
	require.NoError(t, err)

	svc := newSessionService(fallbackDeps(t, kv))
	view, svcErr := svc.Open(ctx, visitorA, "/index.html")
	require.Nil(t, svcErr)
	assert.False(t, view.Fallback)

	_, svcErr = svc.AcceptFallback(ctx, visitorA, view.SessionID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ConflictError.Code, svcErr.Code)

	rec, ok := store.Read(ctx)
	require.True(t, ok)
	assert.Equal(t, preference.AcceptAll(), rec.Preferences)
}

func TestAcceptFallback_NotPresent(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))
	ctx := context.Background()
	view, _ := svc.Open(ctx, visitorA, "/")

	_, svcErr := svc.AcceptFallback(ctx, visitorA, view.SessionID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ConflictError.Code, svcErr.Code)
}

func TestDismissToastAndClose(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))
	ctx := context.Background()
	view, _ := svc.Open(ctx, visitorA, "/")
	view, _ = svc.Dispatch(ctx, visitorA, view.SessionID, EventRequest{Event: "accept-all"})
	require.Len(t, view.Toasts, 1)

	assert.Nil(t, svc.DismissToast(ctx, visitorA, view.SessionID, view.Toasts[0].ID))
	assert.NotNil(t, svc.DismissToast(ctx, visitorA, view.SessionID, view.Toasts[0].ID))

	assert.NotNil(t, svc.Close(ctx, visitorB, view.SessionID))
	assert.Nil(t, svc.Close(ctx, visitorA, view.SessionID))
	_, svcErr := svc.Get(ctx, visitorA, view.SessionID)
	assert.NotNil(t, svcErr)
}

func TestSweep(t *testing.T) {
	svc := newSessionService(staticDeps(kvstore.NewMemoryStore(0)))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	stale, _ := svc.Open(ctx, visitorA, "/")
	now = now.Add(45 * time.Second)
	fresh, _ := svc.Open(ctx, visitorA, "/pricing.html")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, svc.Sweep(now))

	_, svcErr := svc.Get(ctx, visitorA, stale.SessionID)
	assert.NotNil(t, svcErr)
	_, svcErr = svc.Get(ctx, visitorA, fresh.SessionID)
	assert.Nil(t, svcErr)
}

func TestToServiceError(t *testing.T) {
	assert.Equal(t, serviceerror.InternalServerError.Code, toServiceError(errors.New("boom")).Code)
	assert.Equal(t, serviceerror.BannerDisabledError.Code, toServiceError(banner.ErrDisabled).Code)
}
