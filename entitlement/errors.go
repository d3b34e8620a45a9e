package entitlement

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================
//
// The calculation pipeline itself degrades to defaults instead of failing
// (missing start date, no absences, no requests). These errors cover the
// edges that are genuine caller mistakes or store failures.

var (
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidDateRange is returned when a record's end date precedes its
	// start date. Constructors reject these; stored rows are trusted.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidGrant is returned for bonus grants with nonpositive days
	// granted or days used outside [0, granted].
	ErrInvalidGrant = errors.New("invalid bonus grant")

	// ErrInvalidStatus is returned on a disallowed request status transition,
	// e.g. approving a request that is no longer pending.
	ErrInvalidStatus = errors.New("invalid request status transition")
)
