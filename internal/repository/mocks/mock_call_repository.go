package mocks

import (
	"context"
	"time"

	"reminderapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) Create(ctx context.Context, rec *model.CallRecord) (*model.CallRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallRecord), args.Error(1)
}

func (m *MockCallRepository) UpdateStage(ctx context.Context, key model.CallKey, stage string) error {
	args := m.Called(ctx, key, stage)
	return args.Error(0)
}

func (m *MockCallRepository) SetConversationID(ctx context.Context, key model.CallKey, conversationID string) error {
	args := m.Called(ctx, key, conversationID)
	return args.Error(0)
}

func (m *MockCallRepository) FindByConversationID(ctx context.Context, conversationID string) (*model.CallRecord, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallRecord), args.Error(1)
}

func (m *MockCallRepository) MergeAnalysis(ctx context.Context, conversationID string, analysis map[string]string) error {
	args := m.Called(ctx, conversationID, analysis)
	return args.Error(0)
}

func (m *MockCallRepository) ListByDate(ctx context.Context, agentID, date string) ([]model.CallRecord, error) {
	args := m.Called(ctx, agentID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CallRecord), args.Error(1)
}

func (m *MockCallRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]model.CallRecord, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CallRecord), args.Error(1)
}
