package models

import "encoding/json"

// StepPayload is a tagged union keyed by step. Exactly one variant should be
// set, matching Kind. Typed variants keep the hasher and validator total
// functions over a known shape instead of an open-ended document.
type StepPayload struct {
	Kind StepID `json:"kind"`

	PersonalInfo  *PersonalInfo  `json:"personal_info,omitempty"`
	Identity      *Identity      `json:"identity,omitempty"`
	Tax           *Tax           `json:"tax,omitempty"`
	DirectDeposit *DirectDeposit `json:"direct_deposit,omitempty"`
	Benefits      *Benefits      `json:"benefits,omitempty"`
	Policies      *Policies      `json:"policies,omitempty"`
	Supplement    *Supplement    `json:"supplement,omitempty"`
	Review        *Review        `json:"review,omitempty"`
}

// DocumentRef references an uploaded document by ID. Binary content lives
// with the document storage collaborator; only metadata and a content digest
// are persisted in snapshots, so re-hashing a payload never re-reads blobs.
type DocumentRef struct {
	DocumentID    string            `json:"document_id"`
	Name          string            `json:"name"`
	Size          int64             `json:"size"`
	ContentDigest string            `json:"content_digest"`
	Category      string            `json:"category"`
	Extracted     map[string]string `json:"extracted,omitempty"`
}

// ExtractedFieldIdentityNumber is the extraction-service key for the national
// identity number compared against the entered value.
const ExtractedFieldIdentityNumber = "identity_number"

type PersonalInfo struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	IdentityNumber string `json:"identity_number"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
}

type Identity struct {
	WorkAuthorization string        `json:"work_authorization"`
	AlienNumber       string        `json:"alien_number,omitempty"`
	Documents         []DocumentRef `json:"documents,omitempty"`
}

type Tax struct {
	FilingStatus     string `json:"filing_status"`
	MultipleJobs     bool   `json:"multiple_jobs"`
	DependentsAmount int    `json:"dependents_amount"`
	OtherIncome      int    `json:"other_income"`
	ExtraWithholding int    `json:"extra_withholding"`
	Exempt           bool   `json:"exempt"`
}

type DirectDeposit struct {
	BankName      string `json:"bank_name"`
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
}

type Dependent struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Relationship string `json:"relationship"`
	DateOfBirth  string `json:"date_of_birth"`
}

type Benefits struct {
	PlanID        string      `json:"plan_id"`
	CoverageLevel string      `json:"coverage_level"`
	Waived        bool        `json:"waived"`
	Dependents    []Dependent `json:"dependents,omitempty"`
}

type Policies struct {
	AcknowledgedPolicyIDs []string `json:"acknowledged_policy_ids,omitempty"`
}

// Supplement carries the optional preparer/translator sub-flow.
type Supplement struct {
	PreparerFirstName string `json:"preparer_first_name"`
	PreparerLastName  string `json:"preparer_last_name"`
	PreparerAddress   string `json:"preparer_address"`
}

type Review struct {
	Confirmed bool   `json:"confirmed"`
	Notes     string `json:"notes,omitempty"`
}

// EmptyPayload returns the zero payload for a step, used when neither store
// has a snapshot.
func EmptyPayload(id StepID) StepPayload {
	return StepPayload{Kind: id}
}

// HasContent reports whether any leaf value in the payload is non-empty.
// The Kind tag is structural and does not count as content.
func (p StepPayload) HasContent() bool {
	raw, err := json.Marshal(p)
	if err != nil {
		return false
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	delete(doc, "kind")
	return anyNonEmptyLeaf(doc)
}

func anyNonEmptyLeaf(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, child := range t {
			if anyNonEmptyLeaf(child) {
				return true
			}
		}
		return false
	case []any:
		for _, child := range t {
			if anyNonEmptyLeaf(child) {
				return true
			}
		}
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return false
	}
}

// EnteredIdentityNumber returns the identity number the employee typed, if
// this payload carries one.
func (p StepPayload) EnteredIdentityNumber() string {
	if p.PersonalInfo != nil {
		return p.PersonalInfo.IdentityNumber
	}
	return ""
}

// ExtractedIdentityNumber returns the identity number pulled from uploaded
// documents, if any document carries one.
func (p StepPayload) ExtractedIdentityNumber() string {
	if p.Identity == nil {
		return ""
	}
	for _, doc := range p.Identity.Documents {
		if v := doc.Extracted[ExtractedFieldIdentityNumber]; v != "" {
			return v
		}
	}
	return ""
}

// MissingRequired lists required fields that are empty for this payload's
// step. A non-empty result blocks step completion but never blocks saving.
func (p StepPayload) MissingRequired() []string {
	var missing []string
	need := func(field, value string) {
		if value == "" {
			missing = append(missing, field)
		}
	}
	switch p.Kind {
	case StepPersonalInfo:
		if p.PersonalInfo == nil {
			return []string{"personal_info"}
		}
		need("first_name", p.PersonalInfo.FirstName)
		need("last_name", p.PersonalInfo.LastName)
		need("date_of_birth", p.PersonalInfo.DateOfBirth)
		need("identity_number", p.PersonalInfo.IdentityNumber)
	case StepIdentity:
		if p.Identity == nil {
			return []string{"identity"}
		}
		need("work_authorization", p.Identity.WorkAuthorization)
		if len(p.Identity.Documents) == 0 {
			missing = append(missing, "documents")
		}
	case StepTax:
		if p.Tax == nil {
			return []string{"tax"}
		}
		need("filing_status", p.Tax.FilingStatus)
	case StepDirectDeposit:
		if p.DirectDeposit == nil {
			return []string{"direct_deposit"}
		}
		need("bank_name", p.DirectDeposit.BankName)
		need("routing_number", p.DirectDeposit.RoutingNumber)
		need("account_number", p.DirectDeposit.AccountNumber)
	case StepBenefits:
		if p.Benefits == nil {
			return []string{"benefits"}
		}
		if !p.Benefits.Waived {
			need("plan_id", p.Benefits.PlanID)
			need("coverage_level", p.Benefits.CoverageLevel)
		}
	case StepPolicies:
		if p.Policies == nil || len(p.Policies.AcknowledgedPolicyIDs) == 0 {
			missing = append(missing, "acknowledged_policy_ids")
		}
	case StepSupplementA:
		// Optional branch: no required fields.
	case StepReviewSign:
		if p.Review == nil || !p.Review.Confirmed {
			missing = append(missing, "confirmed")
		}
	}
	return missing
}
