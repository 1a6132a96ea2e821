package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_ai_calls",
		SQL: `CREATE TABLE IF NOT EXISTS ai_calls (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  agent_id        TEXT        NOT NULL,
  call_date       TEXT        NOT NULL,
  calling_to      TEXT        NOT NULL,
  stage           TEXT        NOT NULL,
  conversation_id TEXT,
  prompt          TEXT        NOT NULL DEFAULT '',
  scheduled_time  TEXT        NOT NULL DEFAULT '',
  analysis        JSONB       NOT NULL DEFAULT '{}'::jsonb,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uq_ai_calls_key UNIQUE (agent_id, call_date, calling_to)
);`,
	},
	{
		Name: "create_index_ai_calls_conversation_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ai_calls_conversation_id ON ai_calls (conversation_id);`,
	},
	{
		Name: "create_index_ai_calls_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ai_calls_created_at ON ai_calls (created_at);`,
	},
}

// EnsureMigrated checks if the 'ai_calls' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *slog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With("component", "database", "db_host", dbHost)

	log.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.ai_calls') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			"status", "success",
			"detail", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
