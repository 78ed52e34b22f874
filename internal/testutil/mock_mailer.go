package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockMailer implements notify.Mailer for testing.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}
