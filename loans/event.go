package loans

import (
	"time"

	"github.com/Dosada05/loan-market/models"
)

type EventType string

const (
	EventRequested EventType = "LOAN_REQUESTED"
	EventConcluded EventType = "LOAN_CONCLUDED"
	EventDeclined  EventType = "LOAN_DECLINED"
	EventQuit      EventType = "LOAN_QUIT"
)

// Event describes a completed transition for the team on the other side of it.
type Event struct {
	Type       EventType           `json:"type"`
	PlayerID   int                 `json:"player_id"`
	PlayerName string              `json:"player_name"`
	Owner      models.TeamSnapshot `json:"owner"`
	Borrower   models.TeamSnapshot `json:"borrower"`
	From       models.LoanStatus   `json:"from"`
	To         models.LoanStatus   `json:"to"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NewEvent builds the event for a transition applied to player.
func NewEvent(player models.Player, tr Transition, at time.Time) Event {
	e := Event{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Owner:      player.Team,
		From:       tr.From.Status,
		To:         tr.To.Status,
		OccurredAt: at,
	}

	// decline and quit clear the borrower, so it is taken from the prior state
	switch {
	case tr.To.Borrower != nil:
		e.Borrower = *tr.To.Borrower
	case tr.From.Borrower != nil:
		e.Borrower = *tr.From.Borrower
	}

	switch tr.Action {
	case ActionRequest:
		e.Type = EventRequested
	case ActionConclude:
		e.Type = EventConcluded
	case ActionDecline:
		e.Type = EventDeclined
	case ActionQuit:
		e.Type = EventQuit
	}
	return e
}

// RecipientID is the team that did not act and should be told about the event.
func (e Event) RecipientID() int {
	switch e.Type {
	case EventRequested, EventQuit:
		return e.Owner.ID
	default:
		return e.Borrower.ID
	}
}
