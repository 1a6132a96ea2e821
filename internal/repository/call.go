package repository

import (
	"context"
	"errors"
	"time"

	"reminderapi/internal/model"
)

// ErrNotFound is returned when no call record matches the given key.
var ErrNotFound = errors.New("call record not found")

// CallRepository defines data access for reminder call records.
// No business logic here, only persistence.
type CallRepository interface {
	// Create stores a record under its identity key, replacing any record
	// already stored under that key.
	Create(ctx context.Context, rec *model.CallRecord) (*model.CallRecord, error)

	// UpdateStage sets the stage of the record identified by key.
	UpdateStage(ctx context.Context, key model.CallKey, stage string) error

	// SetConversationID links the record identified by key to an agent conversation.
	SetConversationID(ctx context.Context, key model.CallKey, conversationID string) error

	// FindByConversationID returns the record linked to the given conversation.
	FindByConversationID(ctx context.Context, conversationID string) (*model.CallRecord, error)

	// MergeAnalysis merges analysis values into the record linked to the conversation.
	MergeAnalysis(ctx context.Context, conversationID string, analysis map[string]string) error

	// ListByDate returns all records an agent placed on the given day, oldest first.
	ListByDate(ctx context.Context, agentID, date string) ([]model.CallRecord, error)

	// ListCreatedBetween returns records created in [start, end].
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]model.CallRecord, error)
}
