package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/loan-market/models"
)

var playerRowColumns = []string{
	"id", "name", "age", "height", "position", "image_key",
	"team_id", "team_name", "team_email", "team_country", "team_league",
	"loan_status", "borrower_id", "borrower_name", "borrower_email", "borrower_country", "borrower_league",
	"created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func pendingRow(at time.Time) []driver.Value {
	return []driver.Value{
		7, "Zico", 25, 1.72, "midfielder", "players/zico.png",
		1, "Owner FC", "owner@fc.test", "Brazil", "Serie A",
		"pending", 2, "Borrower FC", "borrower@fc.test", "Portugal", "Liga",
		at, at,
	}
}

func TestPostgresPlayerGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresPlayerRepository(db)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(playerRowColumns).AddRow(pendingRow(at)...))

	p, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "Zico", p.Name)
	assert.Equal(t, 1, p.Team.ID)
	assert.Equal(t, models.LoanPending, p.Loan.Status)
	require.NotNil(t, p.Loan.Borrower)
	assert.Equal(t, 2, p.Loan.Borrower.ID)
	assert.Equal(t, "Portugal", p.Loan.Borrower.Country)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlayerGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresPlayerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = $1")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPostgresPlayerList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresPlayerRepository(db)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	owner := 1
	status := models.LoanPending
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND team_id = $1 AND loan_status = $2 ORDER BY created_at DESC, id DESC")).
		WithArgs(1, models.LoanPending).
		WillReturnRows(sqlmock.NewRows(playerRowColumns).AddRow(pendingRow(at)...))

	players, err := repo.List(context.Background(), PlayerFilter{OwnerID: &owner, Status: &status})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, 7, players[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlayerUpdateLoan(t *testing.T) {
	borrower := models.TeamSnapshot{ID: 2, Name: "Borrower FC", Email: "borrower@fc.test", Country: "Portugal", League: "Liga"}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("applies when state matches", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $7 AND loan_status = $8 AND borrower_id IS NOT DISTINCT FROM $9::integer")).
			WithArgs(models.LoanPending, int64(2), "Borrower FC", "borrower@fc.test", "Portugal", "Liga", 7, models.LoanIdle, nil).
			WillReturnRows(sqlmock.NewRows(playerRowColumns).AddRow(pendingRow(at)...))

		p, err := repo.UpdateLoan(context.Background(), 7, models.IdleLoan(), models.PendingLoan(borrower))
		require.NoError(t, err)
		assert.Equal(t, models.LoanPending, p.Loan.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports concurrent change", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE players SET")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.UpdateLoan(context.Background(), 7, models.IdleLoan(), models.PendingLoan(borrower))
		assert.ErrorIs(t, err, ErrLoanStateChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports deleted player", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE players SET")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.UpdateLoan(context.Background(), 7, models.IdleLoan(), models.PendingLoan(borrower))
		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})
}

func TestPostgresPlayerUpdate(t *testing.T) {
	borrower := models.TeamSnapshot{ID: 2, Name: "Borrower FC", Email: "borrower@fc.test", Country: "Portugal", League: "Liga"}
	at := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)

	edited := func() *models.Player {
		return &models.Player{
			ID: 7, Name: "Zico Jr", Age: 26, Height: 1.73, Position: "forward", ImageKey: "players/zico.png",
			Loan: models.IdleLoan(),
		}
	}

	t.Run("applies when loan is unchanged", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $12 AND loan_status = $13 AND borrower_id IS NOT DISTINCT FROM $14::integer")).
			WithArgs("Zico Jr", 26, 1.73, "forward", "players/zico.png", models.LoanIdle,
				nil, nil, nil, nil, nil,
				7, models.LoanPending, int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(at))

		p := edited()
		require.NoError(t, repo.Update(context.Background(), p, models.PendingLoan(borrower)))
		assert.Equal(t, at, p.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports concurrent transition", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE players SET")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.Update(context.Background(), edited(), models.PendingLoan(borrower))
		assert.ErrorIs(t, err, ErrLoanStateChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports deleted player", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE players SET")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.Update(context.Background(), edited(), models.IdleLoan())
		assert.ErrorIs(t, err, ErrPlayerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps name conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgresPlayerRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE players SET")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "players_name_position_key"})

		err := repo.Update(context.Background(), edited(), models.IdleLoan())
		assert.ErrorIs(t, err, ErrPlayerConflict)
	})
}

func TestPostgresPlayerCreateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresPlayerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO players")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "players_name_position_key"})

	p := &models.Player{Name: "Zico", Age: 25, Height: 1.72, Position: "midfielder", ImageKey: "k", Team: models.TeamSnapshot{ID: 1}, Loan: models.IdleLoan()}
	err := repo.Create(context.Background(), p)
	assert.ErrorIs(t, err, ErrPlayerConflict)
}

func TestPostgresPlayerDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresPlayerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM players WHERE id = $1")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM players WHERE id = $1")).
		WithArgs(8).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 7))
	assert.ErrorIs(t, repo.Delete(context.Background(), 8), ErrPlayerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTeamCreateConflicts(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: "teams_email_key", want: ErrTeamEmailConflict},
		{constraint: "teams_name_league_key", want: ErrTeamNameConflict},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresTeamRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO teams")).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := repo.Create(context.Background(), &models.Team{Name: "Owner FC"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
