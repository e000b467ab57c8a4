package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator clients
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: snapshot/record does not exist in a store
// - ErrMalformed: cached value exists but cannot be decoded
// - ErrConflict: concurrent update lost (sequence behind)
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: remote store or collaborator temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrMalformed    = errors.New("malformed")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
