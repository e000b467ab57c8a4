package service

import (
	"context"
	"strconv"

	"onboard/internal/audit"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/scheduler"
	"onboard/internal/wizard/validate"
	dErrors "onboard/pkg/domain-errors"
)

// SaveStep schedules a debounced save of the step's latest payload. It
// returns as soon as the edit is recorded; persistence happens after the
// quiet period or on the next Flush.
func (s *Service) SaveStep(ctx context.Context, employeeID string, stepID models.StepID, payload models.StepPayload) error {
	ctx, span := s.tracer.Start(ctx, "wizard.SaveStep")
	defer span.End()

	if _, ok := s.registry.Get(stepID); !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "unknown step %s", stepID)
	}
	if payload.Kind == "" {
		payload.Kind = stepID
	}
	if payload.Kind != stepID {
		return dErrors.Newf(dErrors.CodeInvalidInput, "payload kind %s does not match step %s", payload.Kind, stepID)
	}

	if stepID == models.StepIdentity {
		s.enrichDocuments(ctx, employeeID, &payload)
	}

	s.sched.Schedule(ctx, employeeID, stepID, payload)
	return nil
}

// Flush persists any pending edits for the step immediately, awaiting the
// remote write. This is the explicit save-and-continue path.
func (s *Service) Flush(ctx context.Context, employeeID string, stepID models.StepID) error {
	ctx, span := s.tracer.Start(ctx, "wizard.Flush")
	defer span.End()
	return s.sched.Flush(ctx, employeeID, stepID)
}

// enrichDocuments runs field extraction for uploaded documents that have no
// extracted fields yet. Extraction failure never fails the save.
func (s *Service) enrichDocuments(ctx context.Context, employeeID string, payload *models.StepPayload) {
	if s.extract == nil || payload.Identity == nil {
		return
	}
	for i, doc := range payload.Identity.Documents {
		if doc.DocumentID == "" || len(doc.Extracted) > 0 {
			continue
		}
		fields, err := s.extract.Extract(ctx, employeeID, doc)
		if err != nil {
			s.logger.WarnContext(ctx, "document extraction failed",
				"employee_id", employeeID, "document_id", doc.DocumentID, "error", err)
			continue
		}
		if len(fields) > 0 {
			payload.Identity.Documents[i].Extracted = fields
		}
	}
}

// onSaved is the scheduler's post-save hook: metrics, the audit trail,
// certification re-check, and cross-field revalidation all run on every
// completed save.
func (s *Service) onSaved(ctx context.Context, res scheduler.SaveResult) {
	snapshot := res.Snapshot

	path := "debounced"
	if res.Flushed {
		path = "flush"
	}
	s.metrics.IncrementSave(path, res.RemoteOK)
	s.audit.Record(ctx, snapshot.EmployeeID, snapshot.StepID, audit.ActionStepSaved, map[string]string{
		"fingerprint": snapshot.Fingerprint,
		"path":        path,
		"remote_ok":   strconv.FormatBool(res.RemoteOK),
	})

	step, ok := s.registry.Get(snapshot.StepID)
	if !ok {
		return
	}
	s.applyCertification(ctx, snapshot.EmployeeID, step, snapshot.Payload, nil)

	if snapshot.StepID == models.StepPersonalInfo || snapshot.StepID == models.StepIdentity {
		s.refreshFindings(ctx, snapshot.EmployeeID, snapshot.StepID, snapshot.Payload)
	}
}

// refreshFindings recomputes the identity-number comparison from the latest
// payloads of the two steps involved. The payload just loaded or saved is
// passed in; the counterpart comes from the cache.
func (s *Service) refreshFindings(ctx context.Context, employeeID string, stepID models.StepID, payload models.StepPayload) *models.ValidationFinding {
	entered := ""
	extracted := ""
	switch stepID {
	case models.StepPersonalInfo:
		entered = payload.EnteredIdentityNumber()
		extracted = s.cachedPayload(ctx, employeeID, models.StepIdentity).ExtractedIdentityNumber()
	case models.StepIdentity:
		extracted = payload.ExtractedIdentityNumber()
		entered = s.cachedPayload(ctx, employeeID, models.StepPersonalInfo).EnteredIdentityNumber()
	default:
		return nil
	}

	s.mu.Lock()
	p := s.progressFor(employeeID)
	previous := p.findings[models.StepIdentity]
	s.mu.Unlock()

	finding := validate.Compare(models.StepIdentity, entered, extracted, previous)

	s.mu.Lock()
	if finding == nil {
		delete(p.findings, models.StepIdentity)
	} else {
		p.findings[models.StepIdentity] = finding
	}
	s.mu.Unlock()

	if finding != nil && (previous == nil || previous.PairKey != finding.PairKey) {
		s.metrics.IncrementFinding()
		s.audit.Record(ctx, employeeID, models.StepIdentity, audit.ActionFindingRaised, map[string]string{
			"kind":     string(finding.Kind),
			"pair_key": finding.PairKey,
		})
	}
	return finding
}

// cachedPayload returns the cached payload for a step, or the empty payload
// when nothing usable is cached.
func (s *Service) cachedPayload(ctx context.Context, employeeID string, stepID models.StepID) models.StepPayload {
	snap, err := s.cache.Get(ctx, employeeID, stepID)
	if err != nil || snap == nil {
		return models.EmptyPayload(stepID)
	}
	return snap.Payload
}

// Acknowledge marks the step's finding as reviewed by the employee.
// Acknowledgment sticks until the underlying values change.
func (s *Service) Acknowledge(ctx context.Context, employeeID string, stepID models.StepID) error {
	s.mu.Lock()
	p := s.progressFor(employeeID)
	finding := p.findings[stepID]
	if finding != nil {
		finding.Acknowledged = true
	}
	s.mu.Unlock()

	if finding == nil {
		return dErrors.Newf(dErrors.CodeNotFound, "no finding on step %s", stepID)
	}
	s.audit.Record(ctx, employeeID, stepID, audit.ActionFindingAcknowledged, map[string]string{
		"kind":     string(finding.Kind),
		"pair_key": finding.PairKey,
	})
	return nil
}
