package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/loan-market/models"
)

var (
	owner    = models.TeamSnapshot{ID: 1, Name: "Owner FC", Country: "Brazil", League: "Serie A"}
	borrower = models.TeamSnapshot{ID: 2, Name: "Borrower FC", Country: "Portugal", League: "Liga"}
	other    = models.TeamSnapshot{ID: 3, Name: "Other FC", Country: "Spain", League: "La Liga"}
)

func playerWith(loan models.Loan) models.Player {
	return models.Player{ID: 10, Name: "Zico", Team: owner, Loan: loan}
}

func TestApplyTransitionTable(t *testing.T) {
	idle := models.IdleLoan()
	pending := models.PendingLoan(borrower)
	onLoan := models.OnLoan(borrower)

	tests := []struct {
		name    string
		action  Action
		loan    models.Loan
		actor   models.TeamSnapshot
		want    models.Loan
		wantErr error
	}{
		{name: "request from idle", action: ActionRequest, loan: idle, actor: borrower, want: pending},
		{name: "request repeated by same team", action: ActionRequest, loan: pending, actor: borrower, wantErr: ErrAlreadyRequested},
		{name: "request by different team while pending", action: ActionRequest, loan: pending, actor: other, wantErr: ErrNegotiatingWithOther},
		{name: "request while on loan", action: ActionRequest, loan: onLoan, actor: other, wantErr: ErrAlreadyLent},
		{name: "request own player idle", action: ActionRequest, loan: idle, actor: owner, wantErr: ErrOwnPlayer},
		{name: "request own player pending", action: ActionRequest, loan: pending, actor: owner, wantErr: ErrOwnPlayer},
		{name: "request own player on loan", action: ActionRequest, loan: onLoan, actor: owner, wantErr: ErrOwnPlayer},

		{name: "conclude pending", action: ActionConclude, loan: pending, actor: owner, want: onLoan},
		{name: "conclude idle", action: ActionConclude, loan: idle, actor: owner, wantErr: ErrNoInterestedTeam},
		{name: "conclude on loan", action: ActionConclude, loan: onLoan, actor: owner, wantErr: ErrAlreadyLent},
		{name: "conclude by borrower", action: ActionConclude, loan: pending, actor: borrower, wantErr: ErrNotOwner},
		{name: "conclude by stranger", action: ActionConclude, loan: pending, actor: other, wantErr: ErrNotOwner},

		{name: "decline pending", action: ActionDecline, loan: pending, actor: owner, want: idle},
		{name: "decline idle", action: ActionDecline, loan: idle, actor: owner, wantErr: ErrNoInterestedTeam},
		{name: "decline on loan", action: ActionDecline, loan: onLoan, actor: owner, wantErr: ErrAlreadyAccepted},
		{name: "decline by borrower", action: ActionDecline, loan: pending, actor: borrower, wantErr: ErrNotOwner},

		{name: "quit own request", action: ActionQuit, loan: pending, actor: borrower, want: idle},
		{name: "quit on loan by borrower", action: ActionQuit, loan: onLoan, actor: borrower, wantErr: ErrLoanFinalized},
		{name: "quit on loan by other team", action: ActionQuit, loan: onLoan, actor: other, wantErr: ErrLoanFinalized},
		{name: "quit request of other team", action: ActionQuit, loan: pending, actor: other, wantErr: ErrNotNegotiating},
		{name: "quit idle", action: ActionQuit, loan: idle, actor: borrower, wantErr: ErrNotNegotiating},
		{name: "quit by owner", action: ActionQuit, loan: pending, actor: owner, wantErr: ErrOwnPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Apply(tt.action, playerWith(tt.loan), tt.actor)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsForbidden(err) != IsConflict(err), "error must be either forbidden or conflict")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(tr.To), "want %+v, got %+v", tt.want, tr.To)
			assert.True(t, tt.loan.Equal(tr.From))
			require.NoError(t, tr.To.Validate())
		})
	}
}

func TestApplyRejectsCorruptState(t *testing.T) {
	_, err := Apply(ActionRequest, playerWith(models.Loan{Status: models.LoanOnLoan}), borrower)
	require.ErrorIs(t, err, models.ErrInvalidLoan)
	assert.False(t, IsConflict(err))
	assert.False(t, IsForbidden(err))
}

func TestApplyUnknownAction(t *testing.T) {
	_, err := Apply("steal", playerWith(models.IdleLoan()), borrower)
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestUnavailableImpliesBorrower(t *testing.T) {
	actions := []Action{ActionRequest, ActionConclude, ActionDecline, ActionQuit}
	actors := []models.TeamSnapshot{owner, borrower, other}

	// walk every reachable state breadth-first and check the invariant on each
	seen := map[string]bool{}
	queue := []models.Loan{models.IdleLoan()}
	for len(queue) > 0 {
		loan := queue[0]
		queue = queue[1:]

		key := string(loan.Status)
		if loan.Borrower != nil {
			key += loan.Borrower.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		if !loan.Available() {
			require.NotNil(t, loan.Borrower, "state %s", key)
		}
		for _, a := range actions {
			for _, actor := range actors {
				tr, err := Apply(a, playerWith(loan), actor)
				if err != nil {
					continue
				}
				queue = append(queue, tr.To)
			}
		}
	}

	assert.Len(t, seen, 5, "idle, pending and on_loan for two possible borrowers")
}

func TestRequestAfterConcludeIsRejected(t *testing.T) {
	p := playerWith(models.IdleLoan())

	tr, err := Apply(ActionRequest, p, borrower)
	require.NoError(t, err)
	p.Loan = tr.To

	tr, err = Apply(ActionConclude, p, owner)
	require.NoError(t, err)
	p.Loan = tr.To

	_, err = Apply(ActionRequest, p, other)
	require.ErrorIs(t, err, ErrAlreadyLent)
}

func TestDeclineThenRequestAgain(t *testing.T) {
	p := playerWith(models.IdleLoan())

	tr, err := Apply(ActionRequest, p, borrower)
	require.NoError(t, err)
	p.Loan = tr.To

	tr, err = Apply(ActionDecline, p, owner)
	require.NoError(t, err)
	p.Loan = tr.To
	assert.Equal(t, models.LoanIdle, p.Loan.Status)
	assert.Nil(t, p.Loan.Borrower)

	tr, err = Apply(ActionRequest, p, borrower)
	require.NoError(t, err)
	assert.Equal(t, models.LoanPending, tr.To.Status)
	assert.Equal(t, borrower.ID, tr.To.Borrower.ID)
}

func TestRequestSnapshotsActor(t *testing.T) {
	actor := borrower
	next, err := RequestLoan(playerWith(models.IdleLoan()), actor)
	require.NoError(t, err)

	actor.Name = "Renamed FC"
	assert.Equal(t, "Borrower FC", next.Borrower.Name)
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		action        Action
		loan          models.Loan
		actor         models.TeamSnapshot
		wantType      EventType
		wantRecipient int
	}{
		{name: "request notifies owner", action: ActionRequest, loan: models.IdleLoan(), actor: borrower, wantType: EventRequested, wantRecipient: owner.ID},
		{name: "conclude notifies borrower", action: ActionConclude, loan: models.PendingLoan(borrower), actor: owner, wantType: EventConcluded, wantRecipient: borrower.ID},
		{name: "decline notifies borrower", action: ActionDecline, loan: models.PendingLoan(borrower), actor: owner, wantType: EventDeclined, wantRecipient: borrower.ID},
		{name: "quit notifies owner", action: ActionQuit, loan: models.PendingLoan(borrower), actor: borrower, wantType: EventQuit, wantRecipient: owner.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := playerWith(tt.loan)
			tr, err := Apply(tt.action, p, tt.actor)
			require.NoError(t, err)

			e := NewEvent(p, tr, at)
			assert.Equal(t, tt.wantType, e.Type)
			assert.Equal(t, tt.wantRecipient, e.RecipientID())
			assert.Equal(t, borrower.ID, e.Borrower.ID)
			assert.Equal(t, p.ID, e.PlayerID)
			assert.Equal(t, at, e.OccurredAt)
		})
	}
}
