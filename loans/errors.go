package loans

import "errors"

// Ownership violations.
var (
	ErrOwnPlayer = errors.New("a team cannot negotiate a loan for its own player")
	ErrNotOwner  = errors.New("only the owning team can answer loan requests for this player")
)

// Transitions the current state does not allow.
var (
	ErrAlreadyRequested     = errors.New("your team has already requested a loan for this player")
	ErrNegotiatingWithOther = errors.New("player is already negotiating a loan with another team")
	ErrAlreadyLent          = errors.New("player has already been lent")
	ErrNoInterestedTeam     = errors.New("player has no interested team yet")
	ErrAlreadyAccepted      = errors.New("loan proposal was already accepted and cannot be declined")
	ErrLoanFinalized        = errors.New("loan deal is already finalized")
	ErrNotNegotiating       = errors.New("your team is not negotiating a loan for this player")
)

var ErrUnknownAction = errors.New("unknown loan action")

// IsForbidden reports whether err rejects the acting team rather than the state.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrOwnPlayer) || errors.Is(err, ErrNotOwner)
}

// IsConflict reports whether err rejects a transition that is illegal in the
// current state.
func IsConflict(err error) bool {
	switch {
	case errors.Is(err, ErrAlreadyRequested),
		errors.Is(err, ErrNegotiatingWithOther),
		errors.Is(err, ErrAlreadyLent),
		errors.Is(err, ErrNoInterestedTeam),
		errors.Is(err, ErrAlreadyAccepted),
		errors.Is(err, ErrLoanFinalized),
		errors.Is(err, ErrNotNegotiating):
		return true
	default:
		return false
	}
}
