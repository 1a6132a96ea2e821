package mocks

import (
	"context"

	"reminderapi/internal/telephony"

	"github.com/stretchr/testify/mock"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, call telephony.OutboundCall) (string, error) {
	args := m.Called(ctx, call)
	return args.String(0), args.Error(1)
}
