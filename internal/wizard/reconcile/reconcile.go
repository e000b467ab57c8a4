// Package reconcile merges the local-cache snapshot and the remote snapshot
// for a step into one effective state.
//
// "First truthy data wins" logic used to be scattered across per-step load
// paths; it is consolidated here as a single pure function so the precedence
// rule is tested once.
package reconcile

import "onboard/internal/wizard/models"

// Source names which input won the merge.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceEmpty  Source = "empty"
)

// Result is the effective snapshot plus provenance. The caller is expected
// to write Snapshot back into the local cache so subsequent reads are fast
// and consistent; the write-back is the caller's side effect, keeping this
// function pure and idempotent.
type Result struct {
	Snapshot models.FormSnapshot
	Source   Source
}

// Reconcile applies the precedence policy:
//
//  1. remote absent: local wins (or empty if both absent)
//  2. remote has real content: remote wins — the remote store is
//     authoritative once populated, which stops a stale local cache from
//     resurfacing after the step was completed in another session
//  3. remote present but empty scaffolding: local wins if present
//  4. otherwise: empty snapshot for the step
//
// Malformed inputs must be mapped to nil by the caller before this point.
func Reconcile(employeeID string, stepID models.StepID, local, remote *models.FormSnapshot) Result {
	switch {
	case remote == nil:
		if local != nil {
			return Result{Snapshot: *local, Source: SourceLocal}
		}
		return empty(employeeID, stepID)
	case remote.HasContent():
		return Result{Snapshot: *remote, Source: SourceRemote}
	case local != nil:
		return Result{Snapshot: *local, Source: SourceLocal}
	default:
		return empty(employeeID, stepID)
	}
}

func empty(employeeID string, stepID models.StepID) Result {
	return Result{
		Snapshot: models.FormSnapshot{
			EmployeeID: employeeID,
			StepID:     stepID,
			Payload:    models.EmptyPayload(stepID),
			Origin:     models.OriginLocal,
		},
		Source: SourceEmpty,
	}
}
