package certify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/wizard/models"
	"onboard/internal/wizard/registry"
	dErrors "onboard/pkg/domain-errors"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func taxStep(t *testing.T) registry.Step {
	t.Helper()
	step, ok := registry.New().Get(models.StepTax)
	require.True(t, ok)
	return step
}

func identityStep(t *testing.T) registry.Step {
	t.Helper()
	step, ok := registry.New().Get(models.StepIdentity)
	require.True(t, ok)
	return step
}

func taxPayload(filing string) models.StepPayload {
	return models.StepPayload{
		Kind: models.StepTax,
		Tax:  &models.Tax{FilingStatus: filing, DependentsAmount: 2000},
	}
}

func TestSignThenEditInvalidates(t *testing.T) {
	step := taxStep(t)
	payload := taxPayload("married")

	record, err := Sign(step, payload, []byte("sig-artifact"), now)
	require.NoError(t, err)
	assert.True(t, record.Valid)

	// Unchanged payload keeps the record untouched.
	same, changed, err := Check(step, payload, record, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, record, same)

	// Any later edit revokes.
	edited := taxPayload("single")
	revoked, changed, err := Check(step, edited, record, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, revoked.Valid)
	require.NotNil(t, revoked.InvalidatedAt)
	assert.True(t, record.Valid, "original record is not mutated")
}

func TestReSigningRestoresValidity(t *testing.T) {
	step := taxStep(t)
	record, err := Sign(step, taxPayload("married"), []byte("sig"), now)
	require.NoError(t, err)

	edited := taxPayload("single")
	revoked, _, err := Check(step, edited, record, now)
	require.NoError(t, err)
	require.False(t, revoked.Valid)

	resigned, err := Sign(step, edited, []byte("sig-2"), now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, resigned.Valid)

	kept, changed, err := Check(step, edited, resigned, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, kept.Valid)
}

func TestRevertToSignedContentRestoresValidity(t *testing.T) {
	step := taxStep(t)
	signed := taxPayload("married")
	record, err := Sign(step, signed, []byte("sig"), now)
	require.NoError(t, err)

	revoked, _, err := Check(step, taxPayload("single"), record, now)
	require.NoError(t, err)
	require.False(t, revoked.Valid)

	restored, changed, err := Check(step, signed, revoked, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, restored.Valid)
	assert.Nil(t, restored.InvalidatedAt)
}

func TestExtractionDriftPolicy(t *testing.T) {
	payload := models.StepPayload{
		Kind: models.StepIdentity,
		Identity: &models.Identity{
			WorkAuthorization: "citizen",
			Documents:         []models.DocumentRef{{DocumentID: "doc-1", ContentDigest: "aa"}},
		},
	}
	step := identityStep(t)
	require.True(t, step.RecertifyOnExtraction)

	record, err := Sign(step, payload, []byte("sig"), now)
	require.NoError(t, err)

	// Extraction results land after signing; the identity step's policy
	// treats that as drift.
	payload.Identity.Documents[0].Extracted = map[string]string{
		models.ExtractedFieldIdentityNumber: "123456789",
	}
	revoked, changed, err := Check(step, payload, record, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, revoked.Valid)
}

func TestSignValidation(t *testing.T) {
	step := taxStep(t)
	_, err := Sign(step, taxPayload("married"), nil, now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	plain, ok := registry.New().Get(models.StepPersonalInfo)
	require.True(t, ok)
	_, err = Sign(plain, models.EmptyPayload(models.StepPersonalInfo), []byte("sig"), now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCheckWithoutRecord(t *testing.T) {
	record, changed, err := Check(taxStep(t), taxPayload("married"), nil, now)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.False(t, changed)
}
