package services

import "errors"

// Errors shared across services and the HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed   = errors.New("validation failed")
	ErrUserNameRequired   = errors.New("user name is required")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidRoundNumber = errors.New("invalid round number")
	ErrNoTipsProvided     = errors.New("no tips provided")

	// Lockout: the tip exists but the round or game has started
	ErrTipLocked = errors.New("tip is locked")

	// Authorization
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Entity-specific not-found, kept distinct for context in responses
	ErrUserNotFound        = errors.New("user not found")
	ErrFamilyGroupNotFound = errors.New("family group not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrTipNotFound         = errors.New("tip not found")
	ErrTeamNotFound        = errors.New("team not found")

	// Conflicts
	ErrUserNameConflict = errors.New("user name is already in use")

	// Upstream data source
	ErrUpstreamUnavailable = errors.New("external data source unavailable")
)
