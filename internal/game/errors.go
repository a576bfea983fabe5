package game

import "fmt"

// Kind classifies a domain error for transport mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindDependency Kind = "dependency"
	KindInternal   Kind = "internal"
)

// Error is the typed error every lifecycle transition returns. Reason is a
// stable machine-readable name; Message is safe to show to users, store error
// text never leaks into it.
type Error struct {
	Kind    Kind              `json:"kind"`
	Reason  string            `json:"reason"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Named transition outcomes. These are compared by identity (errors.Is works
// because the values are shared), so transitions must return them as-is.
var (
	ErrGameNotFound    = &Error{Kind: KindNotFound, Reason: "game_not_found", Message: "Game not found"}
	ErrProfileNotFound = &Error{Kind: KindNotFound, Reason: "profile_not_found", Message: "User profile not found"}

	ErrForbidden = &Error{Kind: KindForbidden, Reason: "forbidden", Message: "You don't have permission to perform this action"}

	ErrAlreadyMember          = &Error{Kind: KindConflict, Reason: "already_member", Message: "You have already joined this game"}
	ErrNotAMember             = &Error{Kind: KindConflict, Reason: "not_a_member", Message: "Not a member of this game"}
	ErrGameFull               = &Error{Kind: KindConflict, Reason: "game_full", Message: "This game is already full"}
	ErrCapacityExceeded       = &Error{Kind: KindConflict, Reason: "capacity_exceeded", Message: "Game capacity exceeded"}
	ErrJoinWindowClosed       = &Error{Kind: KindConflict, Reason: "join_window_closed", Message: "The join window for this game has closed"}
	ErrSkillIneligible        = &Error{Kind: KindConflict, Reason: "skill_ineligible", Message: "Your skill rating does not fit this game's skill band"}
	ErrOrganizerCannotLeave   = &Error{Kind: KindConflict, Reason: "organizer_cannot_leave", Message: "The organizer cannot leave their own game; cancel it instead"}
	ErrCannotRemoveOrganizer  = &Error{Kind: KindConflict, Reason: "cannot_remove_organizer", Message: "The organizer cannot be removed from their own game"}
	ErrCapacityBelowOccupancy = &Error{Kind: KindConflict, Reason: "capacity_below_occupancy", Message: "Cannot reduce capacity below the current number of players"}
	ErrAlreadyCancelled       = &Error{Kind: KindConflict, Reason: "already_cancelled", Message: "This game has already been cancelled"}
	ErrGameCancelled          = &Error{Kind: KindConflict, Reason: "game_cancelled", Message: "This game has been cancelled"}
	ErrGameEnded              = &Error{Kind: KindConflict, Reason: "game_ended", Message: "This game has already taken place"}

	ErrVenueUnavailable = &Error{Kind: KindValidation, Reason: "venue_unavailable", Message: "The selected venue is not available for games"}
)

// NewValidationError builds a per-field validation error.
func NewValidationError(fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Reason:  "validation_failed",
		Message: "Validation failed",
		Fields:  fields,
	}
}

// NewDependencyError wraps a collaborator failure (venue directory, profile
// store) without exposing its error text.
func NewDependencyError(collaborator string) *Error {
	return &Error{
		Kind:    KindDependency,
		Reason:  "dependency_unavailable",
		Message: fmt.Sprintf("The %s is currently unavailable, please try again", collaborator),
	}
}

// NewInternalError covers unexpected store failures and exhausted retries.
func NewInternalError() *Error {
	return &Error{
		Kind:    KindInternal,
		Reason:  "internal_error",
		Message: "An unexpected error occurred, please try again",
	}
}

// KindOf extracts the kind from a transition error, defaulting to internal
// for anything untyped.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}
