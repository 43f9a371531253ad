// Package handlers defines the HTTP-layer error codes every endpoint maps
// failures onto.
//
// Codes are lowercase snake_case and stable: clients branch on them, the
// message field is for humans. The generic set mirrors HTTP status semantics;
// the domain set covers business failures a status alone cannot convey, like
// a rejected price batch. Every error response carries exactly one of these
// codes in the ErrorResponse envelope.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidPrice     = "invalid_price"
	ErrCodeUpdateFailed     = "update_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeCaptureFailed    = "capture_failed"
	ErrCodeTrackFailed      = "track_failed"
	ErrCodeSearchFailed     = "search_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
