// Package models defines the data records the onboarding engine operates on:
// form snapshots, certification records, validation findings, and the
// employee's completion state.
package models

import "time"

// StepID identifies one page/section of the onboarding wizard.
type StepID string

const (
	StepPersonalInfo  StepID = "personal-info"
	StepIdentity      StepID = "i9-identity"
	StepTax           StepID = "w4-tax"
	StepDirectDeposit StepID = "direct-deposit"
	StepBenefits      StepID = "benefits"
	StepPolicies      StepID = "policies"
	StepSupplementA   StepID = "supplement-a"
	StepReviewSign    StepID = "review-sign"
)

// Origin records which store a snapshot came from or was last confirmed by.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// FormSnapshot is one saved state of a step's form for an employee.
// Snapshots are superseded by later ones, never mutated in place.
type FormSnapshot struct {
	EmployeeID  string      `json:"employee_id"`
	StepID      StepID      `json:"step_id"`
	Payload     StepPayload `json:"payload"`
	Fingerprint string      `json:"fingerprint"`
	Origin      Origin      `json:"origin"`
	SavedAt     time.Time   `json:"saved_at"`
	// Seq orders writes for a single step; a completion carrying a stale
	// sequence must not clobber a fresher snapshot.
	Seq uint64 `json:"seq"`
}

// HasContent reports whether the payload has at least one non-empty leaf
// value. Remote snapshots with content are authoritative during
// reconciliation.
func (s *FormSnapshot) HasContent() bool {
	if s == nil {
		return false
	}
	return s.Payload.HasContent()
}

// CertificationRecord captures the digital signature over a step's content.
// Valid is derived at read time; an invalidated record stays around until a
// new signing event replaces it.
type CertificationRecord struct {
	StepID StepID `json:"step_id"`
	// SignedFingerprint is the snapshot fingerprint at the moment of signing.
	SignedFingerprint string     `json:"signed_fingerprint"`
	SignedAt          time.Time  `json:"signed_at"`
	Artifact          []byte     `json:"artifact"`
	Valid             bool       `json:"valid"`
	InvalidatedAt     *time.Time `json:"invalidated_at,omitempty"`
}

// FindingKind labels a class of cross-field discrepancy.
type FindingKind string

const (
	FindingIdentityNumberMismatch FindingKind = "identity-number-mismatch"
)

// Severity separates findings that block completion from advisory ones.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityAdvisory Severity = "advisory"
)

// ValidationFinding is a discrepancy between entered and extracted data.
// Entered and Extracted are masked (last four digits) for display; PairKey
// fingerprints the underlying normalized pair so acknowledgment can be reset
// when either value changes.
type ValidationFinding struct {
	Kind         FindingKind `json:"kind"`
	StepID       StepID      `json:"step_id"`
	Severity     Severity    `json:"severity"`
	Entered      string      `json:"entered"`
	Extracted    string      `json:"extracted"`
	PairKey      string      `json:"pair_key"`
	Acknowledged bool        `json:"acknowledged"`
}

// CompletionState tracks which steps an employee has completed and visited.
// Visited steps stay enabled for backward navigation regardless of later
// edits.
type CompletionState struct {
	Completed map[StepID]bool `json:"completed"`
	Visited   map[StepID]bool `json:"visited"`
}

func NewCompletionState() CompletionState {
	return CompletionState{
		Completed: make(map[StepID]bool),
		Visited:   make(map[StepID]bool),
	}
}

func (c CompletionState) IsComplete(id StepID) bool { return c.Completed[id] }

func (c CompletionState) IsVisited(id StepID) bool { return c.Visited[id] }

func (c *CompletionState) MarkComplete(id StepID) {
	if c.Completed == nil {
		c.Completed = make(map[StepID]bool)
	}
	c.Completed[id] = true
}

// UnmarkComplete is used when a signed step is invalidated and must be
// re-signed before counting toward gating again.
func (c *CompletionState) UnmarkComplete(id StepID) {
	if c.Completed != nil {
		delete(c.Completed, id)
	}
}

func (c *CompletionState) MarkVisited(id StepID) {
	if c.Visited == nil {
		c.Visited = make(map[StepID]bool)
	}
	c.Visited[id] = true
}

// Clone returns an independent copy so callers can evaluate gates without
// aliasing the live state.
func (c CompletionState) Clone() CompletionState {
	out := NewCompletionState()
	for k, v := range c.Completed {
		out.Completed[k] = v
	}
	for k, v := range c.Visited {
		out.Visited[k] = v
	}
	return out
}
