package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/banner"
	"github.com/wso2/cookie-consent/internal/loader"
	"github.com/wso2/cookie-consent/internal/preference"
	"github.com/wso2/cookie-consent/internal/session"
	"github.com/wso2/cookie-consent/internal/system/config"
	"github.com/wso2/cookie-consent/internal/system/constants"
	"github.com/wso2/cookie-consent/internal/system/database"
	"github.com/wso2/cookie-consent/internal/system/kvstore"
	"github.com/wso2/cookie-consent/internal/system/log"
	"github.com/wso2/cookie-consent/internal/system/middleware"
	"github.com/wso2/cookie-consent/internal/system/retry"
)

// storage is the key-value backend behind every visitor's consent record.
type storage struct {
	kv     kvstore.Store
	health func(ctx context.Context) error
	close  func()
}

// openStorage connects the configured backend.
func openStorage(ctx context.Context, cfg *config.StorageConfig, recordTTL time.Duration, logger *logrus.Logger) (*storage, error) {
	switch cfg.Type {
	case config.StorageMySQL:
		db, err := database.Initialize(&cfg.MySQL, logger)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			kv:     kvstore.NewMySQLStore(db.DB),
			health: db.HealthCheck,
			close:  func() { _ = db.Close() },
		}, nil

	case config.StorageRedis:
		rdb, err := kvstore.DialRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"addr":       cfg.Redis.Addr,
			"record_ttl": recordTTL,
		}).Info("Connected to redis")
		return &storage{
			kv:     kvstore.NewRedisStore(rdb, recordTTL),
			health: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			close:  func() { _ = rdb.Close() },
		}, nil

	default:
		logger.WithField("quota_bytes", cfg.QuotaBytes).Info("Using in-memory consent storage")
		return &storage{
			kv:     kvstore.NewMemoryStore(cfg.QuotaBytes),
			health: func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	}
}

// registerServices registers the banner assets, the health check and the session API on router.
func registerServices(router *gin.Engine, cfg *config.Config, store *storage) (session.SessionService, error) {
	logger := log.GetLogger()

	deps := session.Dependencies{
		KV:      store.kv,
		Anchors: banner.DefaultAnchors(),
		Preference: preference.Options{
			StorageKey:     cfg.Consent.StorageKey,
			SchemaVersion:  cfg.Consent.SchemaVersion,
			ValidityMonths: cfg.Consent.ValidityMonths,
		},
		ToastDuration: cfg.Toast.Duration,
		IdleTimeout:   cfg.Session.IdleTimeout,
		Hooks:         []banner.ApplyFunc{analyticsHook(log.WithComponent("analytics"))},
		Logger:        log.WithComponent("session"),
	}

	if cfg.Banner.Static {
		markupFile := filepath.Join(cfg.Banner.AssetDir, cfg.Banner.MarkupPath)
		markup, err := os.ReadFile(markupFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read banner markup %s: %w", markupFile, err)
		}
		deps.StaticMarkup = string(markup)
	} else {
		l, err := loader.New(loader.Config{
			BaseURL:    cfg.Banner.AssetBaseURL,
			StylePath:  cfg.Banner.StylePath,
			MarkupPath: cfg.Banner.MarkupPath,
			ScriptPath: cfg.Banner.ScriptPath,
			Anchor:     deps.Anchors.Root,
			Timeout:    cfg.Banner.FetchTimeout,
			Policy: retry.Policy{
				MaxAttempts: cfg.Banner.Retry.MaxAttempts,
				BaseDelay:   cfg.Banner.Retry.BaseDelay,
				Factor:      cfg.Banner.Retry.Factor,
				Jitter:      retry.RatioJitter(cfg.Banner.Retry.JitterRatio),
			},
		}, loader.NewHTTPFetcher(nil), log.WithComponent("loader"))
		if err != nil {
			return nil, err
		}
		deps.Loader = l
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.health(ctx); err != nil {
			logger.WithError(err).Warn("Storage health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.Static("/assets", filepath.Join(cfg.Banner.AssetDir, "assets"))
	router.Static("/components", filepath.Join(cfg.Banner.AssetDir, "components"))

	api := router.Group(constants.APIBasePath, middleware.VisitorMiddleware())
	svc := session.Initialize(api, deps)
	logger.Info("Session module initialized")

	return svc, nil
}

// analyticsHook stands in for the third-party scripts gated by consent.
func analyticsHook(logger *logrus.Entry) banner.ApplyFunc {
	return func(prefs preference.Preferences) {
		fields := logrus.Fields{}
		for _, c := range preference.Categories {
			fields[string(c)] = prefs.Allowed(c)
		}
		logger.WithFields(fields).Debug("Consent applied to tracking integrations")
	}
}
