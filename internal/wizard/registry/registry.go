// Package registry holds the static, ordered definition of the onboarding
// flow: each step, its gating predicate, and its completion requirements.
// The table is fixed at process start and immutable afterwards.
package registry

import (
	"sort"

	"onboard/internal/wizard/models"
)

// GateFunc decides whether a step is reachable given the employee's
// completion state. Gates only look backwards in the flow.
type GateFunc func(models.CompletionState) bool

// Step is the static definition of one wizard step.
type Step struct {
	ID    models.StepID
	Order int
	Title string
	// RequiresSignature marks steps whose completion needs a valid
	// certification record.
	RequiresSignature bool
	// IsOptionalBranch marks sub-flows that never gate later steps.
	IsOptionalBranch bool
	// RecertifyOnExtraction widens the certification fingerprint to include
	// document-extraction results, so extraction drift after signing revokes
	// the signature. Policy per step; off by default.
	RecertifyOnExtraction bool
	Gate                  GateFunc
}

// Registry is the ordered step table.
type Registry struct {
	steps []Step
	byID  map[models.StepID]Step
}

func afterComplete(ids ...models.StepID) GateFunc {
	return func(c models.CompletionState) bool {
		for _, id := range ids {
			if !c.IsComplete(id) {
				return false
			}
		}
		return true
	}
}

func always(models.CompletionState) bool { return true }

// New builds the fixed onboarding flow.
func New() *Registry {
	steps := []Step{
		{
			ID:    models.StepPersonalInfo,
			Order: 1,
			Title: "Personal Information",
			Gate:  always,
		},
		{
			ID:                    models.StepIdentity,
			Order:                 2,
			Title:                 "Employment Eligibility (I-9)",
			RequiresSignature:     true,
			RecertifyOnExtraction: true,
			Gate:                  afterComplete(models.StepPersonalInfo),
		},
		{
			ID:               models.StepSupplementA,
			Order:            3,
			Title:            "Preparer / Translator Supplement",
			IsOptionalBranch: true,
			Gate:             afterComplete(models.StepIdentity),
		},
		{
			ID:                models.StepTax,
			Order:             4,
			Title:             "Tax Withholding (W-4)",
			RequiresSignature: true,
			Gate:              afterComplete(models.StepIdentity),
		},
		{
			ID:    models.StepDirectDeposit,
			Order: 5,
			Title: "Direct Deposit",
			Gate:  afterComplete(models.StepTax),
		},
		{
			ID:    models.StepBenefits,
			Order: 6,
			Title: "Benefits Enrollment",
			Gate:  afterComplete(models.StepDirectDeposit),
		},
		{
			ID:    models.StepPolicies,
			Order: 7,
			Title: "Company Policies",
			Gate:  afterComplete(models.StepBenefits),
		},
		{
			ID:                models.StepReviewSign,
			Order:             8,
			Title:             "Review & Sign",
			RequiresSignature: true,
			Gate: afterComplete(
				models.StepPersonalInfo,
				models.StepIdentity,
				models.StepTax,
				models.StepDirectDeposit,
				models.StepBenefits,
				models.StepPolicies,
			),
		},
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	byID := make(map[models.StepID]Step, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}
	return &Registry{steps: steps, byID: byID}
}

// Get returns the step definition for an ID.
func (r *Registry) Get(id models.StepID) (Step, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Steps returns the flow in order. The slice is a copy.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// First returns the entry step of the flow.
func (r *Registry) First() Step { return r.steps[0] }

// Terminal returns the final review/certification step.
func (r *Registry) Terminal() Step { return r.steps[len(r.steps)-1] }

// Next returns the step that follows id in the main flow, skipping optional
// branches. Used for auto-advance after completion.
func (r *Registry) Next(id models.StepID) (Step, bool) {
	cur, ok := r.byID[id]
	if !ok {
		return Step{}, false
	}
	for _, s := range r.steps {
		if s.Order > cur.Order && !s.IsOptionalBranch {
			return s, true
		}
	}
	return Step{}, false
}

// Required returns the steps whose completion gates the terminal step.
func (r *Registry) Required() []Step {
	var out []Step
	for _, s := range r.steps {
		if !s.IsOptionalBranch && s.ID != models.StepReviewSign {
			out = append(out, s)
		}
	}
	return out
}
