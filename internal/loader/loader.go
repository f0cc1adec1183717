// Package loader fetches the cookie banner assets into a page, falling back to a
// minimal inline banner when they cannot be loaded.
package loader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/page"
	"github.com/wso2/cookie-consent/internal/system/retry"
)

// AssetKind identifies one of the banner assets.
type AssetKind string

const (
	Style  AssetKind = "style"
	Markup AssetKind = "markup"
	Script AssetKind = "script"
)

// DefaultTimeout bounds a single fetch attempt.
const DefaultTimeout = 5 * time.Second

// Document is the page the assets are injected into.
type Document interface {
	Path() string
	HasStyle(ref string) bool
	HasScript(ref string) bool
	HasElement(id string) bool
	InjectStyle(ref, css string)
	InjectMarkup(markup string) error
	InjectScript(ref, js string)
}

// Config locates the banner assets. Asset paths are relative to the site root.
type Config struct {
	BaseURL    string
	StylePath  string
	MarkupPath string
	ScriptPath string
	// Anchor is the element id the markup must contain.
	Anchor  string
	Timeout time.Duration
	Policy  retry.Policy
}

// AssetResult describes how one asset was handled.
type AssetResult struct {
	Kind     AssetKind `json:"kind"`
	Ref      string    `json:"ref"`
	URL      string    `json:"url,omitempty"`
	Attempts int       `json:"attempts"`
	Skipped  bool      `json:"skipped"`
	Error    string    `json:"error,omitempty"`
}

// Result is the outcome of Load.
type Result struct {
	Assets   []AssetResult `json:"assets"`
	Fallback bool          `json:"fallback"`
}

// Loader injects the banner assets into documents.
type Loader struct {
	cfg     Config
	base    *url.URL
	fetcher Fetcher
	logger  *logrus.Entry
}

// New creates a loader. It fails only for an unparsable base URL.
func New(cfg Config, fetcher Fetcher, logger *logrus.Entry) (*Loader, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = retry.DefaultPolicy()
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loader{cfg: cfg, base: base, fetcher: fetcher, logger: logger}, nil
}

// ResolvePath returns assetPath as the page at pagePath would reference it:
// top-level pages use it as is, nested pages climb one "../" per directory.
func ResolvePath(pagePath, assetPath string) string {
	return strings.Repeat("../", page.Depth(pagePath)) + strings.TrimPrefix(assetPath, "/")
}

// Load fetches style, markup and script in that order. Assets already in the
// document are skipped. The first asset that cannot be loaded stops the sequence
// and the fallback banner is injected instead. Load never returns an error.
func (l *Loader) Load(ctx context.Context, doc Document) Result {
	var res Result

	steps := []struct {
		kind    AssetKind
		path    string
		present func(ref string) bool
		inject  func(ref, body string) error
	}{
		{Style, l.cfg.StylePath, doc.HasStyle, func(ref, body string) error {
			doc.InjectStyle(ref, body)
			return nil
		}},
		{Markup, l.cfg.MarkupPath, func(string) bool { return doc.HasElement(l.cfg.Anchor) }, func(_, body string) error {
			return doc.InjectMarkup(body)
		}},
		{Script, l.cfg.ScriptPath, doc.HasScript, func(ref, body string) error {
			doc.InjectScript(ref, body)
			return nil
		}},
	}

	for _, step := range steps {
		ref := ResolvePath(doc.Path(), step.path)
		ar := AssetResult{Kind: step.kind, Ref: ref}
		if step.present(ref) {
			ar.Skipped = true
			res.Assets = append(res.Assets, ar)
			continue
		}

		assetURL, err := l.assetURL(doc.Path(), ref)
		if err != nil {
			ar.Error = err.Error()
			res.Assets = append(res.Assets, ar)
			l.fail(doc, &res, ar)
			return res
		}
		ar.URL = assetURL

		body, attempts, err := l.fetch(ctx, step.kind, assetURL)
		ar.Attempts = attempts
		if err == nil {
			err = step.inject(ref, body)
		}
		if err != nil {
			ar.Error = err.Error()
			res.Assets = append(res.Assets, ar)
			l.fail(doc, &res, ar)
			return res
		}

		res.Assets = append(res.Assets, ar)
		l.logger.WithFields(logrus.Fields{
			"asset":    step.kind,
			"url":      assetURL,
			"attempts": attempts,
		}).Debug("Banner asset loaded")
	}
	return res
}

// assetURL resolves ref relative to the page URL under the base URL.
func (l *Loader) assetURL(pagePath, ref string) (string, error) {
	pageURL, err := l.base.Parse(strings.TrimPrefix(page.Clean(pagePath), "/"))
	if err != nil {
		return "", fmt.Errorf("invalid page path: %w", err)
	}
	u, err := pageURL.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid asset path: %w", err)
	}
	return u.String(), nil
}

func (l *Loader) fetch(ctx context.Context, kind AssetKind, assetURL string) (string, int, error) {
	var body string
	attempts, err := retry.Do(ctx, l.cfg.Policy, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()

		b, err := l.fetcher.Fetch(attemptCtx, assetURL)
		if err == nil && kind == Markup {
			err = validateMarkup(b, l.cfg.Anchor)
		}
		if err != nil {
			l.logger.WithError(err).WithFields(logrus.Fields{
				"asset":   kind,
				"url":     assetURL,
				"attempt": attempt,
			}).Debug("Banner asset attempt failed")
			return err
		}
		body = b
		return nil
	})
	return body, attempts, err
}

func (l *Loader) fail(doc Document, res *Result, ar AssetResult) {
	l.logger.WithFields(logrus.Fields{
		"asset":    ar.Kind,
		"path":     ar.Ref,
		"url":      ar.URL,
		"attempts": ar.Attempts,
		"error":    ar.Error,
	}).Warn("Banner asset could not be loaded, using fallback banner")

	res.Fallback = true
	if doc.HasElement(FallbackRootID) {
		return
	}
	if err := doc.InjectMarkup(FallbackMarkup); err != nil {
		l.logger.WithError(err).Error("Failed to inject fallback banner")
	}
}
