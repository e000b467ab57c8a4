// Package audit records the onboarding engine's append-only event trail:
// saves, signatures, revocations, transitions, and validation findings.
package audit

import (
	"time"

	"onboard/internal/wizard/models"
)

// Action labels what happened. Kept as plain strings so downstream consumers
// never need this module to decode events.
type Action string

const (
	ActionStepSaved             Action = "step_saved"
	ActionStepCompleted         Action = "step_completed"
	ActionStepSigned            Action = "step_signed"
	ActionCertificationRevoked  Action = "certification_revoked"
	ActionCertificationRestored Action = "certification_restored"
	ActionTransition            Action = "transition"
	ActionFindingRaised         Action = "finding_raised"
	ActionFindingAcknowledged   Action = "finding_acknowledged"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	EmployeeID string            `json:"employee_id"`
	StepID     models.StepID     `json:"step_id,omitempty"`
	Action     Action            `json:"action"`
	Detail     map[string]string `json:"detail,omitempty"`
}
