package mocks

import (
	"context"
	"encoding/json"

	"reminderapi/internal/elevenlabs"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) SignedURL(ctx context.Context, agentID string) (string, error) {
	args := m.Called(ctx, agentID)
	return args.String(0), args.Error(1)
}

func (m *MockClient) ConversationAnalysis(ctx context.Context, conversationID string) (map[string]string, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockClient) ListAgents(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockConversationDialer struct {
	mock.Mock
}

func (m *MockConversationDialer) Dial(ctx context.Context, signedURL string) (elevenlabs.Conn, error) {
	args := m.Called(ctx, signedURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(elevenlabs.Conn), args.Error(1)
}
