// Package certify tracks the payload fingerprint captured at signing time
// and revokes certification whenever the current payload drifts from it.
package certify

import (
	"time"

	"onboard/internal/wizard/fingerprint"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/registry"
	dErrors "onboard/pkg/domain-errors"
)

// Sign creates a certification record over the exact payload being
// certified. The fingerprint is taken here, atomically with recording the
// artifact - never from a payload computed later.
func Sign(step registry.Step, payload models.StepPayload, artifact []byte, now time.Time) (*models.CertificationRecord, error) {
	if !step.RequiresSignature {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "step %s does not take a signature", step.ID)
	}
	if len(artifact) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature artifact is required")
	}
	fp, err := fingerprint.ForStep(payload, step.RecertifyOnExtraction)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fingerprint payload for signing")
	}
	return &models.CertificationRecord{
		StepID:            step.ID,
		SignedFingerprint: fp,
		SignedAt:          now,
		Artifact:          artifact,
		Valid:             true,
	}, nil
}

// Check re-derives certification validity from the current payload. It runs
// on every load and every successful save. Validity is never carried over a
// fingerprint change: a record is valid exactly when the current fingerprint
// equals the signed one.
//
// Returns the record to keep (a copy when validity flipped) and whether it
// changed. A nil record stays nil.
func Check(step registry.Step, payload models.StepPayload, record *models.CertificationRecord, now time.Time) (*models.CertificationRecord, bool, error) {
	if record == nil {
		return nil, false, nil
	}
	current, err := fingerprint.ForStep(payload, step.RecertifyOnExtraction)
	if err != nil {
		return record, false, dErrors.Wrap(err, dErrors.CodeInternal, "fingerprint payload for certification check")
	}

	valid := current == record.SignedFingerprint
	if valid == record.Valid {
		return record, false, nil
	}

	updated := *record
	updated.Valid = valid
	if valid {
		updated.InvalidatedAt = nil
	} else {
		t := now
		updated.InvalidatedAt = &t
	}
	return &updated, true, nil
}
