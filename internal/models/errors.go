package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a resource already exists, e.g. a taken
	// email address at signup.
	ErrConflict = errors.New("resource already exists")

	// ErrValidation is returned for input that passes structural checks but
	// breaks a business rule, e.g. a deadline in the past.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidCredentials is returned for a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when the caller's role or identity does not
	// authorize the requested operation.
	ErrForbidden = errors.New("operation not permitted for this user")

	// ErrAlreadyClaimed is returned when a convoyeur loses the claim race:
	// the mission was available when displayed but another convoyeur took it
	// first.
	ErrAlreadyClaimed = errors.New("mission is no longer available")

	// ErrInvalidTransition is returned when a mission status change would
	// move backward in the lifecycle or skip a state.
	ErrInvalidTransition = errors.New("mission status does not allow this operation")

	// ErrProfileIncomplete is returned when a convoyeur attempts to claim a
	// mission before filling in the required profile fields.
	ErrProfileIncomplete = errors.New("profile must be completed before claiming missions")

	// ErrSheetDirection is returned for an inspection sheet direction other
	// than "departure" or "arrival".
	ErrSheetDirection = errors.New("unknown inspection sheet direction")
)
