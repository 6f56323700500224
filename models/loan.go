package models

import (
	"errors"
	"fmt"
)

// LoanStatus is the stage of a loan negotiation for a player.
type LoanStatus string

const (
	LoanIdle    LoanStatus = "idle"
	LoanPending LoanStatus = "pending"
	LoanOnLoan  LoanStatus = "on_loan"
)

var ErrInvalidLoan = errors.New("invalid loan state")

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanIdle, LoanPending, LoanOnLoan:
		return true
	default:
		return false
	}
}

// Loan is the negotiation state of a player. Borrower is set exactly when
// Status is pending or on_loan.
type Loan struct {
	Status   LoanStatus
	Borrower *TeamSnapshot
}

func IdleLoan() Loan {
	return Loan{Status: LoanIdle}
}

func PendingLoan(borrower TeamSnapshot) Loan {
	return Loan{Status: LoanPending, Borrower: &borrower}
}

func OnLoan(borrower TeamSnapshot) Loan {
	return Loan{Status: LoanOnLoan, Borrower: &borrower}
}

func (l Loan) Validate() error {
	switch l.Status {
	case LoanIdle:
		if l.Borrower != nil {
			return fmt.Errorf("%w: idle loan with borrower %d", ErrInvalidLoan, l.Borrower.ID)
		}
	case LoanPending, LoanOnLoan:
		if l.Borrower == nil {
			return fmt.Errorf("%w: %s loan without borrower", ErrInvalidLoan, l.Status)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidLoan, l.Status)
	}
	return nil
}

// Available reports whether the player can still be solicited for a loan.
func (l Loan) Available() bool {
	return l.Status != LoanOnLoan
}

// BorrowerID returns the borrowing team id, or nil when idle.
func (l Loan) BorrowerID() *int {
	if l.Borrower == nil {
		return nil
	}
	id := l.Borrower.ID
	return &id
}

// Equal compares status and borrower identity. Snapshot contents other than
// the id are not part of the state.
func (l Loan) Equal(other Loan) bool {
	if l.Status != other.Status {
		return false
	}
	if l.Borrower == nil || other.Borrower == nil {
		return l.Borrower == nil && other.Borrower == nil
	}
	return l.Borrower.ID == other.Borrower.ID
}
