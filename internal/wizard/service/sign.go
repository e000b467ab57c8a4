package service

import (
	"context"
	"errors"
	"strings"

	"onboard/internal/audit"
	"onboard/internal/wizard/certify"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/store"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
)

// Sign certifies the step's current content. Pending edits are flushed
// first so the fingerprint is taken over exactly what both stores hold; the
// certification is persisted remotely before it is reported back, and the
// form PDF is regenerated before the call returns.
func (s *Service) Sign(ctx context.Context, employeeID string, stepID models.StepID, artifact []byte) (*models.CertificationRecord, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.Sign")
	defer span.End()

	step, ok := s.registry.Get(stepID)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown step %s", stepID)
	}
	if err := s.Flush(ctx, employeeID, stepID); err != nil {
		return nil, err
	}

	result, _, _ := s.loadReconciled(ctx, employeeID, stepID)

	record, err := certify.Sign(step, result.Snapshot.Payload, artifact, s.clock())
	if err != nil {
		return nil, err
	}

	saveReq := store.SaveRequest{Payload: result.Snapshot.Payload, Certification: record}
	if err := s.remote.Save(ctx, employeeID, stepID, saveReq); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist signed step")
	}

	s.mu.Lock()
	p := s.progressFor(employeeID)
	p.certs[stepID] = record
	completed := len(result.Snapshot.Payload.MissingRequired()) == 0
	if completed {
		p.state.MarkComplete(stepID)
	}
	s.mu.Unlock()

	s.audit.Record(ctx, employeeID, stepID, audit.ActionStepSigned, deviceDetail(ctx, map[string]string{
		"signed_fingerprint": record.SignedFingerprint,
	}))
	if completed {
		s.audit.Record(ctx, employeeID, stepID, audit.ActionStepCompleted, nil)
	}

	// The filled-form PDF must reflect the signed content before the user
	// moves on; the render is awaited but a render outage does not undo the
	// signature.
	if s.pdf != nil {
		if _, err := s.pdf.Render(ctx, employeeID, stepID); err != nil {
			s.logger.WarnContext(ctx, "pdf regeneration after signing failed",
				"employee_id", employeeID, "step_id", stepID, "error", err)
		}
	}
	return record, nil
}

// CompleteStep marks a step done once its requirements hold: all required
// fields present, a valid signature where one is required, and - on the
// terminal review step - every finding acknowledged.
func (s *Service) CompleteStep(ctx context.Context, employeeID string, stepID models.StepID) error {
	ctx, span := s.tracer.Start(ctx, "wizard.CompleteStep")
	defer span.End()

	step, ok := s.registry.Get(stepID)
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "unknown step %s", stepID)
	}
	if err := s.Flush(ctx, employeeID, stepID); err != nil {
		return err
	}

	result, remoteStep, _ := s.loadReconciled(ctx, employeeID, stepID)
	if missing := result.Snapshot.Payload.MissingRequired(); len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "required fields missing: %s", strings.Join(missing, ", "))
	}

	record := s.applyCertification(ctx, employeeID, step, result.Snapshot.Payload, remoteCert(remoteStep))
	if step.RequiresSignature && (record == nil || !record.Valid) {
		return dErrors.Newf(dErrors.CodeForbidden, "step %s requires a valid signature", stepID)
	}

	if stepID == s.registry.Terminal().ID {
		if err := s.findingsBlockReview(employeeID); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.progressFor(employeeID).state.MarkComplete(stepID)
	s.mu.Unlock()

	s.audit.Record(ctx, employeeID, stepID, audit.ActionStepCompleted, nil)
	s.autoAdvance(ctx, employeeID, stepID)
	return nil
}

// findingsBlockReview rejects final review while findings are blocking or
// still unacknowledged. Advisory findings never block the steps they sit on,
// only the terminal sign-off.
func (s *Service) findingsBlockReview(employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for stepID, finding := range s.progressFor(employeeID).findings {
		if finding.Severity == models.SeverityBlocking {
			return dErrors.Newf(dErrors.CodeConflict, "blocking finding on step %s", stepID)
		}
		if !finding.Acknowledged {
			return dErrors.Newf(dErrors.CodeConflict, "unacknowledged finding on step %s", stepID)
		}
	}
	return nil
}

// RenderPDF returns the current filled-form PDF for the step. Concurrent
// requests share one upstream render.
func (s *Service) RenderPDF(ctx context.Context, employeeID string, stepID models.StepID) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.RenderPDF")
	defer span.End()

	if _, ok := s.registry.Get(stepID); !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown step %s", stepID)
	}
	if s.pdf == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "pdf rendering is not configured")
	}
	pdf, err := s.pdf.Render(ctx, employeeID, stepID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no pdf for step")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "render pdf")
	}
	return pdf, nil
}
