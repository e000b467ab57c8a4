// Package fingerprint produces stable digests of step payloads.
//
// The digest is taken over a canonical JSON form (object keys sorted
// recursively), so two structurally-equal payloads always hash the same
// regardless of field or key order. Uploaded file bytes never participate:
// DocumentRef carries only metadata and its own content digest.
package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"onboard/internal/wizard/models"
)

// Fingerprint digests the payload's form content. Extraction results on
// uploaded documents are excluded, so re-running extraction alone does not
// change the fingerprint.
func Fingerprint(p models.StepPayload) (string, error) {
	return digest(p, false)
}

// WithExtraction digests the payload including document extraction results.
// Used for steps whose certification policy re-certifies on extraction drift.
func WithExtraction(p models.StepPayload) (string, error) {
	return digest(p, true)
}

// For a step definition, pick the fingerprint the certification policy wants.
func ForStep(p models.StepPayload, recertifyOnExtraction bool) (string, error) {
	if recertifyOnExtraction {
		return WithExtraction(p)
	}
	return Fingerprint(p)
}

func digest(p models.StepPayload, includeExtraction bool) (string, error) {
	canonical, err := Canonical(p, includeExtraction)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonical returns the canonical JSON encoding of a payload. Exposed for
// tests and for the audit trail, which records what exactly was hashed.
func Canonical(p models.StepPayload, includeExtraction bool) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	// Round-tripping through map[string]any normalizes struct field order to
	// encoding/json's sorted map-key order and collapses equivalent number
	// encodings.
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	doc = scrub(doc, includeExtraction)
	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical payload: %w", err)
	}
	return canonical, nil
}

// scrub drops extraction maps when they are not part of the fingerprint.
func scrub(v any, includeExtraction bool) any {
	switch t := v.(type) {
	case map[string]any:
		for key, child := range t {
			if !includeExtraction && key == "extracted" {
				delete(t, key)
				continue
			}
			t[key] = scrub(child, includeExtraction)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = scrub(child, includeExtraction)
		}
		return t
	default:
		return v
	}
}
