package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"onboard/internal/wizard/models"
)

// PostgresStore persists events to the onboarding_audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is applied by migrations in deployment; tests apply it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS onboarding_audit_events (
    id          UUID PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    employee_id TEXT NOT NULL,
    step_id     TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    detail      JSONB NOT NULL DEFAULT '{}'::jsonb
);
CREATE INDEX IF NOT EXISTS onboarding_audit_events_employee_idx
    ON onboarding_audit_events (employee_id, occurred_at);
`

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO onboarding_audit_events (id, occurred_at, employee_id, step_id, action, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Timestamp, event.EmployeeID, string(event.StepID), string(event.Action), detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEmployee(ctx context.Context, employeeID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, employee_id, step_id, action, detail
		FROM onboarding_audit_events
		WHERE employee_id = $1
		ORDER BY occurred_at`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e          Event
			occurredAt time.Time
			stepID     string
			action     string
			detail     []byte
		)
		if err := rows.Scan(&e.ID, &occurredAt, &e.EmployeeID, &stepID, &action, &detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Timestamp = occurredAt
		e.StepID = models.StepID(stepID)
		e.Action = Action(action)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
