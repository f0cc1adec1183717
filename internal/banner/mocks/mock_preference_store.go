package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wso2/cookie-consent/internal/preference"
)

// MockPreferenceStore is a mock implementation of banner.PreferenceStore
type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) Read(ctx context.Context) (*preference.ConsentRecord, bool) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*preference.ConsentRecord), args.Bool(1)
}

func (m *MockPreferenceStore) Write(ctx context.Context, prefs preference.Preferences) (*preference.ConsentRecord, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*preference.ConsentRecord), args.Error(1)
}

func (m *MockPreferenceStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
