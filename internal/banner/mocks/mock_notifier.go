package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/wso2/cookie-consent/internal/toast"
)

// MockNotifier is a mock implementation of toast.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(level toast.Level, message string) {
	m.Called(level, message)
}
