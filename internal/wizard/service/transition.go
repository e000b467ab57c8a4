package service

import (
	"context"
	"errors"

	"onboard/internal/audit"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/nav"
)

// Transition moves the employee from one step to another. Pending edits on
// the step being left are flushed first; the move's side effects (history
// append, current-step update, visited mark) run exactly once even when the
// UI fires the event twice.
func (s *Service) Transition(ctx context.Context, employeeID string, from, to models.StepID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.Transition")
	defer span.End()

	state := s.completionState(employeeID)
	performed, err := s.guard.Transition(ctx, from, to, state, func(ctx context.Context) error {
		if err := s.Flush(ctx, employeeID, from); err != nil {
			return err
		}
		s.mu.Lock()
		p := s.progressFor(employeeID)
		p.history = append(p.history, to)
		p.current = to
		p.state.MarkVisited(to)
		s.mu.Unlock()

		s.audit.Record(ctx, employeeID, to, audit.ActionTransition, deviceDetail(ctx, map[string]string{
			"from": string(from),
			"to":   string(to),
		}))
		return nil
	})

	switch {
	case performed:
		s.metrics.IncrementTransition("performed")
	case errors.Is(err, nav.ErrTransitionInFlight):
		s.metrics.IncrementTransition("suppressed")
	case err != nil:
		s.metrics.IncrementTransition("rejected")
	}
	return performed, err
}

// CanEnter reports whether the employee may reach the step right now.
func (s *Service) CanEnter(employeeID string, stepID models.StepID) bool {
	return s.guard.CanEnter(stepID, s.completionState(employeeID))
}

// autoAdvance moves the employee onto the next main-flow step after a
// completion opened its gate. It only fires while the employee still sits on
// the step just completed, and a failed or suppressed advance leaves them
// where they are.
func (s *Service) autoAdvance(ctx context.Context, employeeID string, completed models.StepID) {
	next, ok := s.registry.Next(completed)
	if !ok {
		return
	}
	s.mu.Lock()
	onStep := s.progressFor(employeeID).current == completed
	s.mu.Unlock()
	if !onStep {
		return
	}
	if _, err := s.Transition(ctx, employeeID, completed, next.ID); err != nil && !errors.Is(err, nav.ErrTransitionInFlight) {
		s.logger.WarnContext(ctx, "auto-advance after completion failed",
			"employee_id", employeeID, "from", completed, "to", next.ID, "error", err)
	}
}
