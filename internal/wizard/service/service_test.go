package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/audit"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/nav"
	"onboard/internal/wizard/reconcile"
	"onboard/internal/wizard/registry"
	"onboard/internal/wizard/store"
	"onboard/internal/wizard/store/cache"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
	"onboard/pkg/requestcontext"
)

// memRemote is an in-memory stand-in for the remote step store.
type memRemote struct {
	mu        sync.Mutex
	steps     map[string]*store.RemoteStep
	failFetch bool
	failSave  bool
}

func newMemRemote() *memRemote {
	return &memRemote{steps: make(map[string]*store.RemoteStep)}
}

func remoteKey(employeeID string, stepID models.StepID) string {
	return employeeID + "|" + string(stepID)
}

func (r *memRemote) Fetch(_ context.Context, employeeID string, stepID models.StepID) (*store.RemoteStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFetch {
		return nil, fmt.Errorf("fetch: %w", sentinel.ErrUnavailable)
	}
	rs, ok := r.steps[remoteKey(employeeID, stepID)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *rs
	return &copied, nil
}

func (r *memRemote) Save(_ context.Context, employeeID string, stepID models.StepID, req store.SaveRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return fmt.Errorf("save: %w", sentinel.ErrUnavailable)
	}
	r.steps[remoteKey(employeeID, stepID)] = &store.RemoteStep{
		Payload:       req.Payload,
		HasContent:    req.Payload.HasContent(),
		Certification: req.Certification,
	}
	return nil
}

func (r *memRemote) get(employeeID string, stepID models.StepID) *store.RemoteStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps[remoteKey(employeeID, stepID)]
}

func newTestService(t *testing.T, remote store.RemoteStore) (*Service, *cache.MemoryStore) {
	t.Helper()
	local := cache.NewMemoryStore()
	s := New(registry.New(), local, remote,
		// Long quiet period so tests drive persistence through Flush.
		WithQuietPeriod(time.Hour),
		WithLockWindow(time.Second),
	)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s, local
}

func personalPayload(identityNumber string) models.StepPayload {
	return models.StepPayload{
		Kind: models.StepPersonalInfo,
		PersonalInfo: &models.PersonalInfo{
			FirstName:      "Ada",
			LastName:       "Reyes",
			DateOfBirth:    "1994-02-11",
			IdentityNumber: identityNumber,
		},
	}
}

func identityPayload(extracted string) models.StepPayload {
	doc := models.DocumentRef{
		DocumentID:    "doc-1",
		Name:          "passport.pdf",
		ContentDigest: "abc123",
		Category:      "passport",
	}
	if extracted != "" {
		doc.Extracted = map[string]string{models.ExtractedFieldIdentityNumber: extracted}
	}
	return models.StepPayload{
		Kind: models.StepIdentity,
		Identity: &models.Identity{
			WorkAuthorization: "citizen",
			Documents:         []models.DocumentRef{doc},
		},
	}
}

func fullTaxPayload() models.StepPayload {
	return models.StepPayload{
		Kind: models.StepTax,
		Tax:  &models.Tax{FilingStatus: "single"},
	}
}

func TestLoadStepEmptyBothStores(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())

	view, err := s.LoadStep(context.Background(), "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, reconcile.SourceEmpty, view.Source)
	assert.Equal(t, models.StepPersonalInfo, view.Payload.Kind)
	assert.True(t, view.Step.Visited)
	assert.NotEmpty(t, view.MissingRequired)
}

func TestLoadStepRemoteWinsAndWritesBack(t *testing.T) {
	remote := newMemRemote()
	s, local := newTestService(t, remote)
	ctx := context.Background()

	// Stale local state alongside populated remote state.
	require.NoError(t, local.Put(ctx, models.FormSnapshot{
		EmployeeID: "emp-1",
		StepID:     models.StepPersonalInfo,
		Payload:    personalPayload("111-11-1111"),
		Origin:     models.OriginLocal,
	}))
	require.NoError(t, remote.Save(ctx, "emp-1", models.StepPersonalInfo, store.SaveRequest{
		Payload: personalPayload("222-22-2222"),
	}))

	view, err := s.LoadStep(ctx, "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, reconcile.SourceRemote, view.Source)
	assert.Equal(t, "222-22-2222", view.Payload.PersonalInfo.IdentityNumber)

	snap, err := local.Get(ctx, "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, models.OriginRemote, snap.Origin)
	assert.Equal(t, "222-22-2222", snap.Payload.PersonalInfo.IdentityNumber)
}

func TestLoadStepLocalWinsOverEmptyRemoteScaffolding(t *testing.T) {
	remote := newMemRemote()
	s, local := newTestService(t, remote)
	ctx := context.Background()

	require.NoError(t, local.Put(ctx, models.FormSnapshot{
		EmployeeID: "emp-1",
		StepID:     models.StepPersonalInfo,
		Payload:    personalPayload("111-11-1111"),
		Origin:     models.OriginLocal,
	}))
	// Remote created the step shell but holds no data.
	require.NoError(t, remote.Save(ctx, "emp-1", models.StepPersonalInfo, store.SaveRequest{
		Payload: models.EmptyPayload(models.StepPersonalInfo),
	}))

	view, err := s.LoadStep(ctx, "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, reconcile.SourceLocal, view.Source)
	assert.Equal(t, "111-11-1111", view.Payload.PersonalInfo.IdentityNumber)
}

func TestLoadStepDegradesWhenRemoteDown(t *testing.T) {
	remote := newMemRemote()
	remote.failFetch = true
	s, local := newTestService(t, remote)
	ctx := context.Background()

	require.NoError(t, local.Put(ctx, models.FormSnapshot{
		EmployeeID: "emp-1",
		StepID:     models.StepPersonalInfo,
		Payload:    personalPayload("111-11-1111"),
		Origin:     models.OriginLocal,
	}))

	view, err := s.LoadStep(ctx, "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, reconcile.SourceLocal, view.Source)
	assert.True(t, view.RemoteDegraded)
}

func TestLoadStepDropsMalformedCacheEntry(t *testing.T) {
	remote := newMemRemote()
	s, local := newTestService(t, remote)
	ctx := context.Background()

	local.PutRaw("emp-1", models.StepPersonalInfo, []byte("{not json"))
	require.NoError(t, remote.Save(ctx, "emp-1", models.StepPersonalInfo, store.SaveRequest{
		Payload: personalPayload("222-22-2222"),
	}))

	view, err := s.LoadStep(ctx, "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, reconcile.SourceRemote, view.Source)

	// The corrupted entry was replaced by the write-back.
	snap, err := local.Get(ctx, "emp-1", models.StepPersonalInfo)
	require.NoError(t, err)
	assert.Equal(t, "222-22-2222", snap.Payload.PersonalInfo.IdentityNumber)
}

func TestLoadStepGatedStepForbidden(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())

	_, err := s.LoadStep(context.Background(), "emp-1", models.StepTax)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestSaveFlushUnknownStep(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	err := s.SaveStep(context.Background(), "emp-1", "no-such-step", models.StepPayload{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSaveStepKindMismatch(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	err := s.SaveStep(context.Background(), "emp-1", models.StepPersonalInfo, fullTaxPayload())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestFlushSurfacesRemoteFailure(t *testing.T) {
	remote := newMemRemote()
	remote.failSave = true
	s, _ := newTestService(t, remote)
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepPersonalInfo, personalPayload("111-11-1111")))
	err := s.Flush(ctx, "emp-1", models.StepPersonalInfo)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestSignPersistsCertificationAndCompletes(t *testing.T) {
	remote := newMemRemote()
	s, _ := newTestService(t, remote)
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepTax, fullTaxPayload()))
	record, err := s.Sign(ctx, "emp-1", models.StepTax, []byte("sig-artifact"))
	require.NoError(t, err)
	assert.True(t, record.Valid)
	assert.NotEmpty(t, record.SignedFingerprint)

	rs := remote.get("emp-1", models.StepTax)
	require.NotNil(t, rs)
	require.NotNil(t, rs.Certification)
	assert.Equal(t, record.SignedFingerprint, rs.Certification.SignedFingerprint)

	overview, err := s.Steps(ctx, "emp-1")
	require.NoError(t, err)
	for _, st := range overview.Steps {
		if st.ID == models.StepTax {
			assert.True(t, st.Completed)
			require.NotNil(t, st.CertificationValid)
			assert.True(t, *st.CertificationValid)
		}
	}
}

func TestSignRejectsNonSignatureStep(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	_, err := s.Sign(context.Background(), "emp-1", models.StepDirectDeposit, []byte("sig"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestEditAfterSigningRevokesCertification(t *testing.T) {
	remote := newMemRemote()
	s, _ := newTestService(t, remote)
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepTax, fullTaxPayload()))
	_, err := s.Sign(ctx, "emp-1", models.StepTax, []byte("sig"))
	require.NoError(t, err)

	edited := fullTaxPayload()
	edited.Tax.FilingStatus = "married"
	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepTax, edited))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepTax))

	overview, err := s.Steps(ctx, "emp-1")
	require.NoError(t, err)
	for _, st := range overview.Steps {
		if st.ID == models.StepTax {
			assert.False(t, st.Completed, "revocation reopens the step")
			require.NotNil(t, st.CertificationValid)
			assert.False(t, *st.CertificationValid)
		}
	}


	// Reverting the edit restores the exact signed content and validity.
	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepTax, fullTaxPayload()))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepTax))

	overview, err = s.Steps(ctx, "emp-1")
	require.NoError(t, err)
	for _, st := range overview.Steps {
		if st.ID == models.StepTax {
			require.NotNil(t, st.CertificationValid)
			assert.True(t, *st.CertificationValid)
		}
	}
}

func TestIdentityNumberMismatchFinding(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepPersonalInfo, personalPayload("123-45-6789")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepPersonalInfo))
	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepIdentity, identityPayload("123456780")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepIdentity))

	require.NoError(t, s.CompleteStep(ctx, "emp-1", models.StepPersonalInfo))
	view, err := s.LoadStep(ctx, "emp-1", models.StepIdentity)
	require.NoError(t, err)
	require.NotNil(t, view.Finding)
	assert.Equal(t, models.FindingIdentityNumberMismatch, view.Finding.Kind)
	assert.Equal(t, models.SeverityAdvisory, view.Finding.Severity)
	assert.Equal(t, "*****6789", view.Finding.Entered)
	assert.Equal(t, "*****6780", view.Finding.Extracted)
	assert.False(t, view.Finding.Acknowledged)

	// Acknowledgment sticks while the pair is unchanged.
	require.NoError(t, s.Acknowledge(ctx, "emp-1", models.StepIdentity))
	view, err = s.LoadStep(ctx, "emp-1", models.StepIdentity)
	require.NoError(t, err)
	require.NotNil(t, view.Finding)
	assert.True(t, view.Finding.Acknowledged)

	// A new extracted value resets acknowledgment.
	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepIdentity, identityPayload("123456781")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepIdentity))
	view, err = s.LoadStep(ctx, "emp-1", models.StepIdentity)
	require.NoError(t, err)
	require.NotNil(t, view.Finding)
	assert.False(t, view.Finding.Acknowledged)

	// Agreement clears the finding entirely.
	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepIdentity, identityPayload("123-45-6789")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepIdentity))
	view, err = s.LoadStep(ctx, "emp-1", models.StepIdentity)
	require.NoError(t, err)
	assert.Nil(t, view.Finding)
}

func TestAcknowledgeWithoutFinding(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	err := s.Acknowledge(context.Background(), "emp-1", models.StepIdentity)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCompleteStepMissingRequiredFields(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	err := s.CompleteStep(context.Background(), "emp-1", models.StepPersonalInfo)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCompleteStepRequiresValidSignature(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepTax, fullTaxPayload()))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepTax))
	err := s.CompleteStep(ctx, "emp-1", models.StepTax)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestTransitionDuplicateSuppressed(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepPersonalInfo, personalPayload("123-45-6789")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepPersonalInfo))
	// Completion auto-advances onto the identity step.
	require.NoError(t, s.CompleteStep(ctx, "emp-1", models.StepPersonalInfo))

	// The duplicate UI event inside the suppression window.
	performed, err := s.Transition(ctx, "emp-1", models.StepPersonalInfo, models.StepIdentity)
	assert.False(t, performed)
	assert.ErrorIs(t, err, nav.ErrTransitionInFlight)

	overview, err := s.Steps(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepIdentity, overview.Current)
	assert.Equal(t, []models.StepID{models.StepIdentity}, overview.History)
}

func TestCompleteStepAutoAdvances(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepPersonalInfo, personalPayload("123-45-6789")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepPersonalInfo))
	require.NoError(t, s.CompleteStep(ctx, "emp-1", models.StepPersonalInfo))

	overview, err := s.Steps(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepIdentity, overview.Current)
	assert.Equal(t, []models.StepID{models.StepIdentity}, overview.History)

	// Re-completing a step the employee already left does not move them.
	require.NoError(t, s.CompleteStep(ctx, "emp-1", models.StepPersonalInfo))
	overview, err = s.Steps(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepIdentity, overview.Current)
	assert.Len(t, overview.History, 1)
}

func TestAuditEventsRecordClientDevice(t *testing.T) {
	publisher := audit.NewPublisher(audit.NewMemoryStore())
	s := New(registry.New(), cache.NewMemoryStore(), newMemRemote(),
		WithQuietPeriod(time.Hour),
		WithLockWindow(time.Second),
		WithAudit(publisher),
	)
	t.Cleanup(func() { s.Close(context.Background()) })

	ctx := requestcontext.WithDevice(context.Background(), requestcontext.Device{
		Browser: "Firefox",
		OS:      "Ubuntu",
	})

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepPersonalInfo, personalPayload("123-45-6789")))
	require.NoError(t, s.Flush(ctx, "emp-1", models.StepPersonalInfo))
	require.NoError(t, s.CompleteStep(ctx, "emp-1", models.StepPersonalInfo))

	require.NoError(t, s.SaveStep(ctx, "emp-1", models.StepIdentity, identityPayload("123456789")))
	_, err := s.Sign(ctx, "emp-1", models.StepIdentity, []byte("sig"))
	require.NoError(t, err)

	events, err := publisher.Trail(ctx, "emp-1")
	require.NoError(t, err)

	var signed, moved bool
	for _, ev := range events {
		switch ev.Action {
		case audit.ActionStepSigned:
			signed = true
			assert.NotEmpty(t, ev.Detail["signed_fingerprint"])
			assert.Equal(t, "Firefox", ev.Detail["device_browser"])
			assert.Equal(t, "Ubuntu", ev.Detail["device_os"])
			assert.Equal(t, "false", ev.Detail["device_mobile"])
		case audit.ActionTransition:
			moved = true
			assert.Equal(t, "Firefox", ev.Detail["device_browser"])
		}
	}
	assert.True(t, signed)
	assert.True(t, moved)
}

func TestTransitionToGatedStepRejected(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	performed, err := s.Transition(context.Background(), "emp-1", models.StepPersonalInfo, models.StepReviewSign)
	assert.False(t, performed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestTransitionSelfIsSilentlyIgnored(t *testing.T) {
	s, _ := newTestService(t, newMemRemote())
	performed, err := s.Transition(context.Background(), "emp-1", models.StepPersonalInfo, models.StepPersonalInfo)
	assert.False(t, performed)
	assert.NoError(t, err)
}

// TestFullOnboardingFlow walks an employee through the whole wizard:
// fill and complete each step, sign where required, trip and resolve a
// cross-field finding, revoke a signature by editing, re-sign, and finish.
func TestFullOnboardingFlow(t *testing.T) {
	remote := newMemRemote()
	s, _ := newTestService(t, remote)
	ctx := context.Background()
	const emp = "emp-e2e"

	// Personal info.
	require.NoError(t, s.SaveStep(ctx, emp, models.StepPersonalInfo, personalPayload("123-45-6789")))
	require.NoError(t, s.Flush(ctx, emp, models.StepPersonalInfo))
	require.NoError(t, s.CompleteStep(ctx, emp, models.StepPersonalInfo))

	// Completion auto-advances onto the identity step.
	overview, err := s.Steps(ctx, emp)
	require.NoError(t, err)
	require.Equal(t, models.StepIdentity, overview.Current)

	// Identity upload disagrees with the entered number.
	require.NoError(t, s.SaveStep(ctx, emp, models.StepIdentity, identityPayload("123456780")))
	require.NoError(t, s.Flush(ctx, emp, models.StepIdentity))
	view, err := s.LoadStep(ctx, emp, models.StepIdentity)
	require.NoError(t, err)
	require.NotNil(t, view.Finding)
	require.NoError(t, s.Acknowledge(ctx, emp, models.StepIdentity))

	// Sign identity; the signature covers extraction data on this step.
	_, err = s.Sign(ctx, emp, models.StepIdentity, []byte("i9-signature"))
	require.NoError(t, err)

	// Editing the signed step revokes the signature and closes later gates.
	edited := identityPayload("123456780")
	edited.Identity.AlienNumber = "A12345678"
	require.NoError(t, s.SaveStep(ctx, emp, models.StepIdentity, edited))
	require.NoError(t, s.Flush(ctx, emp, models.StepIdentity))
	assert.False(t, s.CanEnter(emp, models.StepTax))

	view, err = s.LoadStep(ctx, emp, models.StepIdentity)
	require.NoError(t, err)
	require.NotNil(t, view.Certification)
	assert.False(t, view.Certification.Valid)
	assert.NotEmpty(t, view.CertificationNotice)

	// Re-signing restores progress.
	_, err = s.Sign(ctx, emp, models.StepIdentity, []byte("i9-signature-2"))
	require.NoError(t, err)
	require.True(t, s.CanEnter(emp, models.StepTax))

	performed, err := s.Transition(ctx, emp, models.StepIdentity, models.StepTax)
	require.NoError(t, err)
	require.True(t, performed)

	// Tax withholding, signed.
	require.NoError(t, s.SaveStep(ctx, emp, models.StepTax, fullTaxPayload()))
	_, err = s.Sign(ctx, emp, models.StepTax, []byte("w4-signature"))
	require.NoError(t, err)

	// Direct deposit.
	require.NoError(t, s.SaveStep(ctx, emp, models.StepDirectDeposit, models.StepPayload{
		Kind: models.StepDirectDeposit,
		DirectDeposit: &models.DirectDeposit{
			BankName:      "First Exterior",
			RoutingNumber: "021000021",
			AccountNumber: "0012345678",
			AccountType:   "checking",
		},
	}))
	require.NoError(t, s.Flush(ctx, emp, models.StepDirectDeposit))
	require.NoError(t, s.CompleteStep(ctx, emp, models.StepDirectDeposit))

	// Benefits, waived.
	require.NoError(t, s.SaveStep(ctx, emp, models.StepBenefits, models.StepPayload{
		Kind:     models.StepBenefits,
		Benefits: &models.Benefits{Waived: true},
	}))
	require.NoError(t, s.Flush(ctx, emp, models.StepBenefits))
	require.NoError(t, s.CompleteStep(ctx, emp, models.StepBenefits))

	// Policies.
	require.NoError(t, s.SaveStep(ctx, emp, models.StepPolicies, models.StepPayload{
		Kind:     models.StepPolicies,
		Policies: &models.Policies{AcknowledgedPolicyIDs: []string{"handbook-v4"}},
	}))
	require.NoError(t, s.Flush(ctx, emp, models.StepPolicies))
	require.NoError(t, s.CompleteStep(ctx, emp, models.StepPolicies))

	// Terminal review is now reachable and sign-off completes the flow.
	require.True(t, s.CanEnter(emp, models.StepReviewSign))
	require.NoError(t, s.SaveStep(ctx, emp, models.StepReviewSign, models.StepPayload{
		Kind:   models.StepReviewSign,
		Review: &models.Review{Confirmed: true},
	}))
	_, err = s.Sign(ctx, emp, models.StepReviewSign, []byte("final-signature"))
	require.NoError(t, err)
	require.NoError(t, s.CompleteStep(ctx, emp, models.StepReviewSign))

	overview, err = s.Steps(ctx, emp)
	require.NoError(t, err)
	for _, st := range overview.Steps {
		if !st.Optional {
			assert.True(t, st.Completed, "step %s", st.ID)
		}
	}
}
