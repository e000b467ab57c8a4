// Package validate compares user-entered identity fields against the same
// fields extracted from uploaded documents. Findings are advisory: they are
// surfaced and must be acknowledged, but never block progress on their own.
package validate

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"onboard/internal/wizard/models"
)

// Compare checks the entered identity number against the extracted one.
//
// Returns nil when there is nothing to compare (either value absent) or when
// the normalized values agree - agreement clears any previous finding. On
// disagreement it returns an advisory finding carrying masked values.
// Acknowledgment from a previous finding is carried over only while the
// underlying pair is unchanged; new values reset it.
func Compare(stepID models.StepID, entered, extracted string, previous *models.ValidationFinding) *models.ValidationFinding {
	enteredNorm := normalize(entered)
	extractedNorm := normalize(extracted)
	if enteredNorm == "" || extractedNorm == "" {
		return nil
	}
	if enteredNorm == extractedNorm {
		return nil
	}

	finding := &models.ValidationFinding{
		Kind:      models.FindingIdentityNumberMismatch,
		StepID:    stepID,
		Severity:  models.SeverityAdvisory,
		Entered:   Mask(enteredNorm),
		Extracted: Mask(extractedNorm),
		PairKey:   pairKey(enteredNorm, extractedNorm),
	}
	if previous != nil && previous.PairKey == finding.PairKey {
		finding.Acknowledged = previous.Acknowledged
	}
	return finding
}

// normalize strips everything but digits; the values are national identity
// numbers entered with arbitrary punctuation.
func normalize(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mask hides all but the last four digits for display.
func Mask(v string) string {
	if len(v) <= 4 {
		return v
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

// pairKey fingerprints the normalized pair so acknowledgment stickiness can
// be checked without storing the raw numbers on the finding.
func pairKey(entered, extracted string) string {
	sum := blake2b.Sum256([]byte(entered + "|" + extracted))
	return hex.EncodeToString(sum[:8])
}
