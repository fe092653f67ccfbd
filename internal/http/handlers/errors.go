// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic codes are mapped to HTTP responses via the fail() helper in
// this package and give clients a stable, machine-readable taxonomy alongside
// the human-readable message.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes (bad_request, unauthorized, conflict, ...) mirror common
//     HTTP status semantics.
//   - Domain-specific codes (invalid_status, call_in_progress) are reserved
//     for signaling errors that a bare status cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidStatus    = "invalid_status"
	ErrCodeCallInProgress   = "call_in_progress"
	ErrCodeInvalidAction    = "invalid_action"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
