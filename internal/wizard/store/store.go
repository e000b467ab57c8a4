// Package store defines the two persistence tiers the engine reconciles:
// a fast, ephemeral local cache and the authoritative remote step store.
package store

import (
	"context"

	"onboard/internal/wizard/models"
)

// CacheStore is the local snapshot cache, keyed by employee and step.
// Implementations return sentinel.ErrNotFound when no entry exists and
// sentinel.ErrMalformed when an entry exists but cannot be decoded; the
// service treats both as "absent" during reconciliation.
type CacheStore interface {
	Get(ctx context.Context, employeeID string, stepID models.StepID) (*models.FormSnapshot, error)
	Put(ctx context.Context, snapshot models.FormSnapshot) error
	Delete(ctx context.Context, employeeID string, stepID models.StepID) error
}

// RemoteStep is the remote store's view of one step.
type RemoteStep struct {
	Payload models.StepPayload `json:"payload"`
	// HasContent is asserted by the remote store itself; once true, the
	// remote snapshot is authoritative during reconciliation.
	HasContent    bool                        `json:"has_content"`
	Certification *models.CertificationRecord `json:"certification,omitempty"`
}

// SaveRequest is the body of a remote write.
type SaveRequest struct {
	Payload       models.StepPayload          `json:"payload"`
	Certification *models.CertificationRecord `json:"certification,omitempty"`
}

// RemoteStore is the authoritative step data store. Implementations return
// sentinel.ErrNotFound for unknown steps and sentinel.ErrUnavailable
// (wrapped) for transport failures.
type RemoteStore interface {
	Fetch(ctx context.Context, employeeID string, stepID models.StepID) (*RemoteStep, error)
	Save(ctx context.Context, employeeID string, stepID models.StepID, req SaveRequest) error
}
