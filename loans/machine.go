// Package loans implements the loan negotiation between an owning team and a
// prospective borrower.
//
//	idle --request--> pending(B) --conclude--> on_loan(B)
//	pending(B) --decline/quit--> idle
//
// Every function applies the ownership guard before looking at the state and
// is total over the three statuses. Functions are pure: persisting the result
// is up to the caller.
package loans

import (
	"fmt"

	"github.com/Dosada05/loan-market/models"
)

type Action string

const (
	ActionRequest  Action = "request"
	ActionConclude Action = "conclude"
	ActionDecline  Action = "decline"
	ActionQuit     Action = "quit"
)

// Transition is a legal move from one loan state to another.
type Transition struct {
	Action Action
	Actor  models.TeamSnapshot
	From   models.Loan
	To     models.Loan
}

// Apply runs action on behalf of actor against the player's current loan.
func Apply(action Action, player models.Player, actor models.TeamSnapshot) (Transition, error) {
	if err := player.Loan.Validate(); err != nil {
		return Transition{}, fmt.Errorf("player %d: %w", player.ID, err)
	}

	var (
		next models.Loan
		err  error
	)
	switch action {
	case ActionRequest:
		next, err = RequestLoan(player, actor)
	case ActionConclude:
		next, err = ConcludeLoan(player, actor)
	case ActionDecline:
		next, err = Decline(player, actor)
	case ActionQuit:
		next, err = QuitLoan(player, actor)
	default:
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return Transition{}, err
	}

	return Transition{Action: action, Actor: actor, From: player.Loan, To: next}, nil
}

// RequestLoan records actor as the prospective borrower of an idle player.
func RequestLoan(player models.Player, actor models.TeamSnapshot) (models.Loan, error) {
	if isOwner(player, actor) {
		return player.Loan, ErrOwnPlayer
	}

	switch player.Loan.Status {
	case models.LoanIdle:
		return models.PendingLoan(actor), nil
	case models.LoanPending:
		if isBorrower(player.Loan, actor) {
			return player.Loan, ErrAlreadyRequested
		}
		return player.Loan, ErrNegotiatingWithOther
	case models.LoanOnLoan:
		return player.Loan, ErrAlreadyLent
	}
	return player.Loan, unknownStatus(player.Loan)
}

// ConcludeLoan accepts the pending request. Only the owning team may do it.
func ConcludeLoan(player models.Player, actor models.TeamSnapshot) (models.Loan, error) {
	if !isOwner(player, actor) {
		return player.Loan, ErrNotOwner
	}

	switch player.Loan.Status {
	case models.LoanIdle:
		return player.Loan, ErrNoInterestedTeam
	case models.LoanPending:
		return models.OnLoan(*player.Loan.Borrower), nil
	case models.LoanOnLoan:
		return player.Loan, ErrAlreadyLent
	}
	return player.Loan, unknownStatus(player.Loan)
}

// Decline rejects the pending request. Only the owning team may do it.
func Decline(player models.Player, actor models.TeamSnapshot) (models.Loan, error) {
	if !isOwner(player, actor) {
		return player.Loan, ErrNotOwner
	}

	switch player.Loan.Status {
	case models.LoanIdle:
		return player.Loan, ErrNoInterestedTeam
	case models.LoanPending:
		return models.IdleLoan(), nil
	case models.LoanOnLoan:
		return player.Loan, ErrAlreadyAccepted
	}
	return player.Loan, unknownStatus(player.Loan)
}

// QuitLoan withdraws the actor's own pending request.
func QuitLoan(player models.Player, actor models.TeamSnapshot) (models.Loan, error) {
	if isOwner(player, actor) {
		return player.Loan, ErrOwnPlayer
	}

	switch player.Loan.Status {
	case models.LoanIdle:
		return player.Loan, ErrNotNegotiating
	case models.LoanPending:
		if !isBorrower(player.Loan, actor) {
			return player.Loan, ErrNotNegotiating
		}
		return models.IdleLoan(), nil
	case models.LoanOnLoan:
		return player.Loan, ErrLoanFinalized
	}
	return player.Loan, unknownStatus(player.Loan)
}

func isOwner(player models.Player, actor models.TeamSnapshot) bool {
	return player.Team.ID == actor.ID
}

func isBorrower(loan models.Loan, actor models.TeamSnapshot) bool {
	return loan.Borrower != nil && loan.Borrower.ID == actor.ID
}

func unknownStatus(loan models.Loan) error {
	return fmt.Errorf("%w: unknown status %q", models.ErrInvalidLoan, loan.Status)
}
