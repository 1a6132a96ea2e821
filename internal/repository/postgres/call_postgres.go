package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reminderapi/internal/model"
	"reminderapi/internal/repository"
)

const callColumns = `id, agent_id, call_date, calling_to, stage, conversation_id, prompt, scheduled_time, analysis, created_at, updated_at`

// CallPostgres is a PostgreSQL implementation of repository.CallRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type CallPostgres struct {
	db *sql.DB
}

// NewCallPostgres creates a new CallPostgres repository.
func NewCallPostgres(db *sql.DB) *CallPostgres {
	return &CallPostgres{db: db}
}

var _ repository.CallRepository = (*CallPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (*model.CallRecord, error) {
	var (
		rec      model.CallRecord
		convID   sql.NullString
		analysis []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.AgentID,
		&rec.CallDate,
		&rec.CallingTo,
		&rec.Stage,
		&convID,
		&rec.Prompt,
		&rec.Time,
		&analysis,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.ConversationID = convID.String
	rec.Analysis = map[string]string{}
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &rec.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
	}
	return &rec, nil
}

// Create upserts the record by (agent_id, call_date, calling_to). A repeated
// reminder to the same number on the same day starts over with a clean state.
func (r *CallPostgres) Create(ctx context.Context, rec *model.CallRecord) (*model.CallRecord, error) {
	const q = `
		INSERT INTO ai_calls (id, agent_id, call_date, calling_to, stage, prompt, scheduled_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (agent_id, call_date, calling_to) DO UPDATE SET
			stage = EXCLUDED.stage,
			prompt = EXCLUDED.prompt,
			scheduled_time = EXCLUDED.scheduled_time,
			conversation_id = NULL,
			analysis = '{}'::jsonb,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + callColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.AgentID,
		rec.CallDate,
		rec.CallingTo,
		rec.Stage,
		rec.Prompt,
		rec.Time,
		rec.CreatedAt,
	)
	return scanCall(row)
}

// UpdateStage sets the stage of one record.
func (r *CallPostgres) UpdateStage(ctx context.Context, key model.CallKey, stage string) error {
	const q = `
		UPDATE ai_calls SET stage = $4, updated_at = now()
		WHERE agent_id = $1 AND call_date = $2 AND calling_to = $3
	`
	return r.execOne(ctx, q, key.AgentID, key.CallDate, key.CallingTo, stage)
}

// SetConversationID links one record to an agent conversation.
func (r *CallPostgres) SetConversationID(ctx context.Context, key model.CallKey, conversationID string) error {
	const q = `
		UPDATE ai_calls SET conversation_id = $4, updated_at = now()
		WHERE agent_id = $1 AND call_date = $2 AND calling_to = $3
	`
	return r.execOne(ctx, q, key.AgentID, key.CallDate, key.CallingTo, conversationID)
}

// FindByConversationID returns the newest record linked to the conversation.
func (r *CallPostgres) FindByConversationID(ctx context.Context, conversationID string) (*model.CallRecord, error) {
	const q = `
		SELECT ` + callColumns + `
		FROM ai_calls
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	rec, err := scanCall(r.db.QueryRowContext(ctx, q, conversationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// MergeAnalysis merges values into the analysis document; existing keys are overwritten.
func (r *CallPostgres) MergeAnalysis(ctx context.Context, conversationID string, analysis map[string]string) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	const q = `
		UPDATE ai_calls SET analysis = analysis || $2::jsonb, updated_at = now()
		WHERE conversation_id = $1
	`
	return r.execOne(ctx, q, conversationID, string(payload))
}

// ListByDate returns an agent's records for one day ordered by creation time.
func (r *CallPostgres) ListByDate(ctx context.Context, agentID, date string) ([]model.CallRecord, error) {
	const q = `
		SELECT ` + callColumns + `
		FROM ai_calls
		WHERE agent_id = $1 AND call_date = $2
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, q, agentID, date)
}

// ListCreatedBetween returns records whose creation time falls in [start, end].
func (r *CallPostgres) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]model.CallRecord, error) {
	const q = `
		SELECT ` + callColumns + `
		FROM ai_calls
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, q, start, end)
}

func (r *CallPostgres) list(ctx context.Context, q string, args ...any) ([]model.CallRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.CallRecord, 0)
	for rows.Next() {
		rec, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CallPostgres) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
