// Package services defines the business logic for subscriptions, usage
// analytics, title capture, and user profiles. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that no local profile exists for the
	// authenticated principal.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidMonthlyCost is returned when any price in a subscription
	// update lies outside [0, 1000]. One invalid price rejects the whole
	// batch; nothing is persisted.
	ErrInvalidMonthlyCost = errors.New("monthly cost must be between 0 and 1000")

	// ErrNilTitle is returned when a capture request carries no title.
	ErrNilTitle = errors.New("title is required")

	// ErrTitleNotFound indicates that the requested captured title does not
	// exist.
	ErrTitleNotFound = errors.New("title not found")

	// ErrInvalidPreference is returned when a display-preference value is
	// outside the allowed set.
	ErrInvalidPreference = errors.New("invalid display preference")
)
