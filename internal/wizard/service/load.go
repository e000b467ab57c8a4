package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"onboard/internal/audit"
	"onboard/internal/wizard/certify"
	"onboard/internal/wizard/fingerprint"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/reconcile"
	"onboard/internal/wizard/registry"
	"onboard/internal/wizard/store"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
)

// StepStatus is one row of the wizard overview.
type StepStatus struct {
	ID                models.StepID `json:"id"`
	Order             int           `json:"order"`
	Title             string        `json:"title"`
	RequiresSignature bool          `json:"requires_signature"`
	Optional          bool          `json:"optional"`
	Enabled           bool          `json:"enabled"`
	Visited           bool          `json:"visited"`
	Completed         bool          `json:"completed"`
	Current           bool          `json:"current"`
	// CertificationValid is nil while the step has never been signed.
	CertificationValid *bool `json:"certification_valid,omitempty"`
}

// Overview is the full wizard state for the step list and breadcrumbs.
type Overview struct {
	Steps   []StepStatus    `json:"steps"`
	Current models.StepID   `json:"current"`
	History []models.StepID `json:"history,omitempty"`
}

// StepView is the reconciled state of one step.
type StepView struct {
	Step          StepStatus                  `json:"step"`
	Payload       models.StepPayload          `json:"payload"`
	Fingerprint   string                      `json:"fingerprint"`
	Origin        models.Origin               `json:"origin"`
	Source        reconcile.Source            `json:"source"`
	Certification *models.CertificationRecord `json:"certification,omitempty"`
	// CertificationNotice is set when a previously signed step has changed
	// and must be signed again.
	CertificationNotice string                    `json:"certification_notice,omitempty"`
	Finding             *models.ValidationFinding `json:"finding,omitempty"`
	MissingRequired     []string                  `json:"missing_required,omitempty"`
	// RemoteDegraded marks a load served from the local cache because the
	// remote store could not be reached.
	RemoteDegraded bool `json:"remote_degraded,omitempty"`
}

// Steps returns the overview used to render the step list.
func (s *Service) Steps(ctx context.Context, employeeID string) (Overview, error) {
	_, span := s.tracer.Start(ctx, "wizard.Steps")
	defer span.End()

	state := s.completionState(employeeID)

	s.mu.Lock()
	p := s.progressFor(employeeID)
	current := p.current
	history := append([]models.StepID(nil), p.history...)
	certValid := make(map[models.StepID]*bool, len(p.certs))
	for id, rec := range p.certs {
		v := rec.Valid
		certValid[id] = &v
	}
	s.mu.Unlock()

	var out []StepStatus
	for _, step := range s.registry.Steps() {
		out = append(out, StepStatus{
			ID:                 step.ID,
			Order:              step.Order,
			Title:              step.Title,
			RequiresSignature:  step.RequiresSignature,
			Optional:           step.IsOptionalBranch,
			Enabled:            s.guard.CanEnter(step.ID, state),
			Visited:            state.IsVisited(step.ID),
			Completed:          state.IsComplete(step.ID),
			Current:            step.ID == current,
			CertificationValid: certValid[step.ID],
		})
	}
	return Overview{Steps: out, Current: current, History: history}, nil
}

// LoadStep reconciles both stores, re-checks certification, recomputes
// cross-field findings, and marks the step visited.
func (s *Service) LoadStep(ctx context.Context, employeeID string, stepID models.StepID) (*StepView, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.LoadStep")
	defer span.End()
	started := s.clock()

	step, ok := s.registry.Get(stepID)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown step %s", stepID)
	}
	if !s.guard.CanEnter(stepID, s.completionState(employeeID)) {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "step %s is not reachable yet", stepID)
	}

	result, remoteStep, remoteDegraded := s.loadReconciled(ctx, employeeID, stepID)
	s.metrics.ObserveLoad(string(result.Source), s.clock().Sub(started))

	record := s.applyCertification(ctx, employeeID, step, result.Snapshot.Payload, remoteCert(remoteStep))

	var finding *models.ValidationFinding
	if stepID == models.StepPersonalInfo || stepID == models.StepIdentity {
		finding = s.refreshFindings(ctx, employeeID, stepID, result.Snapshot.Payload)
	} else {
		s.mu.Lock()
		finding = s.progressFor(employeeID).findings[stepID]
		s.mu.Unlock()
	}

	s.mu.Lock()
	p := s.progressFor(employeeID)
	p.state.MarkVisited(stepID)
	visited := p.state.Clone()
	s.mu.Unlock()

	var notice string
	if record != nil && !record.Valid {
		notice = "this step changed after it was signed; review and sign again"
	}

	return &StepView{
		Step: StepStatus{
			ID:                step.ID,
			Order:             step.Order,
			Title:             step.Title,
			RequiresSignature: step.RequiresSignature,
			Optional:          step.IsOptionalBranch,
			Enabled:           true,
			Visited:           true,
			Completed:         visited.IsComplete(stepID),
		},
		Payload:             result.Snapshot.Payload,
		Fingerprint:         result.Snapshot.Fingerprint,
		Origin:              result.Snapshot.Origin,
		Source:              result.Source,
		Certification:       record,
		CertificationNotice: notice,
		Finding:             finding,
		MissingRequired:     result.Snapshot.Payload.MissingRequired(),
		RemoteDegraded:      remoteDegraded,
	}, nil
}

// loadReconciled reads both stores in parallel and merges them. Failures
// degrade to the other store; only reconciliation semantics live in the
// reconcile package.
func (s *Service) loadReconciled(ctx context.Context, employeeID string, stepID models.StepID) (reconcile.Result, *store.RemoteStep, bool) {
	var (
		local          *models.FormSnapshot
		remoteStep     *store.RemoteStep
		remoteDegraded bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.cache.Get(gctx, employeeID, stepID)
		switch {
		case err == nil:
			local = snap
		case errors.Is(err, sentinel.ErrNotFound):
		case errors.Is(err, sentinel.ErrMalformed):
			// A corrupted entry is treated as absent and evicted so the next
			// write starts clean.
			s.logger.WarnContext(gctx, "malformed cache snapshot dropped",
				"employee_id", employeeID, "step_id", stepID)
			_ = s.cache.Delete(gctx, employeeID, stepID)
		default:
			s.logger.WarnContext(gctx, "cache read failed",
				"employee_id", employeeID, "step_id", stepID, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		rs, err := s.remote.Fetch(gctx, employeeID, stepID)
		switch {
		case err == nil:
			remoteStep = rs
		case errors.Is(err, sentinel.ErrNotFound):
		default:
			remoteDegraded = true
			s.logger.WarnContext(gctx, "remote fetch failed, serving local snapshot",
				"employee_id", employeeID, "step_id", stepID, "error", err)
		}
		return nil
	})
	_ = g.Wait()

	var remoteSnap *models.FormSnapshot
	if remoteStep != nil {
		snap := models.FormSnapshot{
			EmployeeID: employeeID,
			StepID:     stepID,
			Payload:    remoteStep.Payload,
			Origin:     models.OriginRemote,
			SavedAt:    s.clock(),
		}
		if local != nil {
			snap.Seq = local.Seq
		}
		if fp, err := fingerprint.Fingerprint(snap.Payload); err == nil {
			snap.Fingerprint = fp
		}
		remoteSnap = &snap
	}

	result := reconcile.Reconcile(employeeID, stepID, local, remoteSnap)
	if result.Source == reconcile.SourceRemote {
		// Write-back so subsequent reads are fast and consistent.
		if err := s.cache.Put(ctx, result.Snapshot); err != nil {
			s.logger.WarnContext(ctx, "cache write-back failed",
				"employee_id", employeeID, "step_id", stepID, "error", err)
		}
	}
	return result, remoteStep, remoteDegraded
}

func remoteCert(rs *store.RemoteStep) *models.CertificationRecord {
	if rs == nil {
		return nil
	}
	return rs.Certification
}

// applyCertification resolves the current certification record (the remote
// store's copy is authoritative when present), re-derives its validity
// against the payload, and applies the consequences of a flip.
func (s *Service) applyCertification(ctx context.Context, employeeID string, step registry.Step, payload models.StepPayload, fromRemote *models.CertificationRecord) *models.CertificationRecord {
	s.mu.Lock()
	p := s.progressFor(employeeID)
	record := p.certs[step.ID]
	if fromRemote != nil {
		record = fromRemote
		p.certs[step.ID] = record
	}
	s.mu.Unlock()

	if record == nil {
		return nil
	}

	updated, changed, err := certify.Check(step, payload, record, s.clock())
	if err != nil {
		s.logger.WarnContext(ctx, "certification check failed",
			"employee_id", employeeID, "step_id", step.ID, "error", err)
		return record
	}
	if !changed {
		return updated
	}

	s.mu.Lock()
	p.certs[step.ID] = updated
	if !updated.Valid {
		p.state.UnmarkComplete(step.ID)
	}
	s.mu.Unlock()

	direction := "restored"
	action := audit.ActionCertificationRestored
	if !updated.Valid {
		direction = "revoked"
		action = audit.ActionCertificationRevoked
	}
	s.metrics.IncrementCertificationFlip(direction)
	s.audit.Record(ctx, employeeID, step.ID, action, map[string]string{
		"signed_fingerprint": updated.SignedFingerprint,
	})
	s.logger.InfoContext(ctx, "certification validity changed",
		"employee_id", employeeID, "step_id", step.ID, "valid", updated.Valid)
	return updated
}
