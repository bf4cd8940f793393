package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, unknown problem code).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when a role or ownership check fails.
// Handlers should map this to HTTP 403. A failed check never leaves a
// partial mutation behind.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized is returned when a credential cannot be resolved to a
// user: bad login, missing or invalid bearer token.
// Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict is the sentinel every state-machine guard rejection wraps.
// Match specific guards with errors.As on ConflictError; match the whole
// category with errors.Is(err, ErrConflict). Handlers map it to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrRateLimited is returned when a position update arrives before the
// per-driver minimum interval has elapsed. It is a soft, retryable
// rejection, not a server fault.
var ErrRateLimited = errors.New("too frequent requests")

// ConflictReason identifies which state-machine guard rejected a transition.
type ConflictReason string

const (
	// Membership guards.
	ConflictAlreadyMember  ConflictReason = "already_member"
	ConflictAlreadyPending ConflictReason = "already_pending"
	ConflictNotMember      ConflictReason = "not_member"

	// Trip accept guards, in check order.
	ConflictAlreadyFinishedByYou   ConflictReason = "already_finished_by_you"
	ConflictAlreadyYourCurrentTrip ConflictReason = "already_your_current_trip"
	ConflictAlreadyAccepted        ConflictReason = "already_accepted"
	ConflictNotFleetMember         ConflictReason = "not_fleet_member"
	ConflictAlreadyHasActiveTrip   ConflictReason = "already_has_active_trip"
	ConflictHasOpenProblem         ConflictReason = "has_open_problem"

	// Driver current-trip guards.
	ConflictNoCurrentTrip ConflictReason = "no_current_trip"
)

// conflictMessages are the human-readable strings surfaced in error
// responses, kept compatible with the historical API wording.
var conflictMessages = map[ConflictReason]string{
	ConflictAlreadyMember:          "Driver is already in fleet",
	ConflictAlreadyPending:         "Driver is already in pending fleet",
	ConflictNotMember:              "Driver is not a member of fleet",
	ConflictAlreadyFinishedByYou:   "You have already been finished this trip",
	ConflictAlreadyYourCurrentTrip: "It's your current trip",
	ConflictAlreadyAccepted:        "This trip has already been accepted",
	ConflictNotFleetMember:         "You are not a member in that fleet",
	ConflictAlreadyHasActiveTrip:   "You have already accepted current trip",
	ConflictHasOpenProblem:         "The trip has a problem",
	ConflictNoCurrentTrip:          "You have no current trip",
}

// ConflictError is a state-machine guard rejection with a stable reason code.
// It wraps ErrConflict so callers can match the category with errors.Is.
type ConflictError struct {
	Reason ConflictReason
}

func (e ConflictError) Error() string {
	if msg, ok := conflictMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// Conflict builds a ConflictError for the given reason.
func Conflict(reason ConflictReason) error {
	return ConflictError{Reason: reason}
}

// InvariantError marks a state that is reachable only through a bug, such as
// a finished trip with no driver. It maps to HTTP 409 like other conflicts
// but must be logged distinctly so it is never mistaken for an ordinary
// guard rejection.
type InvariantError struct {
	Msg string
}

func (e InvariantError) Error() string { return e.Msg }

func (e InvariantError) Unwrap() error { return ErrConflict }

// IsInvariant reports whether err carries an InvariantError.
func IsInvariant(err error) bool {
	var target InvariantError
	return errors.As(err, &target)
}
