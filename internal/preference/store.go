package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/system/kvstore"
)

const (
	DefaultStorageKey     = "cookiePreferences"
	DefaultSchemaVersion  = "1.0"
	DefaultValidityMonths = 6
)

// Options tune a Store. Zero values fall back to the defaults above.
type Options struct {
	StorageKey     string
	SchemaVersion  string
	ValidityMonths int
	Now            func() time.Time
	Logger         *logrus.Entry
}

// Store reads and writes the single consent record of one visitor.
type Store struct {
	kv             kvstore.Store
	key            string
	version        string
	validityMonths int
	now            func() time.Time
	logger         *logrus.Entry
}

// NewStore creates a preference store over kv.
func NewStore(kv kvstore.Store, opts Options) *Store {
	s := &Store{
		kv:             kv,
		key:            opts.StorageKey,
		version:        opts.SchemaVersion,
		validityMonths: opts.ValidityMonths,
		now:            opts.Now,
		logger:         opts.Logger,
	}
	if s.key == "" {
		s.key = DefaultStorageKey
	}
	if s.version == "" {
		s.version = DefaultSchemaVersion
	}
	if s.validityMonths <= 0 {
		s.validityMonths = DefaultValidityMonths
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return s
}

// Read returns the stored record if one exists and is valid. It never fails:
// missing, malformed, mismatched or expired data all read as absent.
func (s *Store) Read(ctx context.Context) (*ConsentRecord, bool) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read consent record, treating as absent")
		return nil, false
	}

	rec, err := s.decode(raw)
	if err != nil {
		s.logger.WithError(err).Warn("Ignoring malformed consent record")
		return nil, false
	}
	if !IsValid(rec, s.now()) {
		s.logger.WithField("expires_at", rec.ExpiresAt).Debug("Stored consent record has expired")
		return nil, false
	}
	return rec, true
}

// Write replaces the stored record with prefs, stamped with a fresh expiry and the schema version.
// The returned record is valid even when persisting it failed.
func (s *Store) Write(ctx context.Context, prefs Preferences) (*ConsentRecord, error) {
	rec := &ConsentRecord{
		Preferences:   prefs.Normalize(),
		ExpiresAt:     s.now().UTC().AddDate(0, s.validityMonths, 0),
		SchemaVersion: s.version,
	}

	payload, err := json.Marshal(storedRecord{
		Prefs:   &rec.Preferences,
		Expiry:  &rec.ExpiresAt,
		Version: rec.SchemaVersion,
	})
	if err != nil {
		return rec, fmt.Errorf("failed to encode consent record: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		return rec, fmt.Errorf("failed to persist consent record: %w", err)
	}
	return rec, nil
}

// Clear removes the stored record.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear consent record: %w", err)
	}
	return nil
}

func (s *Store) decode(raw string) (*ConsentRecord, error) {
	var stored storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("failed to parse consent record: %w", err)
	}
	if stored.Prefs == nil {
		return nil, fmt.Errorf("consent record has no preferences")
	}
	if stored.Expiry == nil {
		return nil, fmt.Errorf("consent record has no expiry")
	}
	version := stored.Version
	if version == "" {
		version = s.version
	}
	if version != s.version {
		return nil, fmt.Errorf("unsupported consent record version %q", stored.Version)
	}
	return &ConsentRecord{
		Preferences:   stored.Prefs.Normalize(),
		ExpiresAt:     *stored.Expiry,
		SchemaVersion: version,
	}, nil
}

// IsValid reports whether rec is present, carries an expiry, and has not expired at now.
func IsValid(rec *ConsentRecord, now time.Time) bool {
	if rec == nil || rec.ExpiresAt.IsZero() {
		return false
	}
	return rec.ExpiresAt.After(now)
}
