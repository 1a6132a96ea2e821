package mocks

import (
	"context"
	"encoding/json"

	"reminderapi/internal/model"
	"reminderapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) CreateCall(ctx context.Context, req model.CallRequest, host string) error {
	args := m.Called(ctx, req, host)
	return args.Error(0)
}

func (m *MockReminderService) HandleCallStatus(ctx context.Context, to, status, agentID string) error {
	args := m.Called(ctx, to, status, agentID)
	return args.Error(0)
}

func (m *MockReminderService) Records(ctx context.Context, agentID, date string) ([]model.CallRecord, error) {
	args := m.Called(ctx, agentID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CallRecord), args.Error(1)
}

func (m *MockReminderService) RecordByConversation(ctx context.Context, conversationID string) (*model.CallRecord, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallRecord), args.Error(1)
}

func (m *MockReminderService) Report(ctx context.Context, agentID, date string) (*service.Report, error) {
	args := m.Called(ctx, agentID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Report), args.Error(1)
}

func (m *MockReminderService) ReportLink(ctx context.Context, agentID, date string) (string, error) {
	args := m.Called(ctx, agentID, date)
	return args.String(0), args.Error(1)
}

func (m *MockReminderService) SyncRecent(ctx context.Context) ([]model.CallRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CallRecord), args.Error(1)
}

func (m *MockReminderService) Agents(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockReminderService) ServeMediaStream(ctx context.Context, conn service.MessageConn) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}
