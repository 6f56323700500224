package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/loan-market/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerConflict = errors.New("player with this name and position already exists")
	// ErrLoanStateChanged means the stored loan no longer matches the expected
	// state: another request changed it first.
	ErrLoanStateChanged = errors.New("player loan state changed concurrently")
)

// PlayerFilter narrows List. Nil fields are ignored.
type PlayerFilter struct {
	OwnerID    *int
	BorrowerID *int
	Status     *models.LoanStatus
	Limit      int
	Offset     int
}

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	FindByNameAndPosition(ctx context.Context, name, position string) (*models.Player, error)
	List(ctx context.Context, filter PlayerFilter) ([]models.Player, error)
	// Update writes every mutable column provided the stored loan still equals expected.
	Update(ctx context.Context, player *models.Player, expected models.Loan) error
	// UpdateLoan atomically replaces the loan if the stored one equals expected.
	UpdateLoan(ctx context.Context, id int, expected, next models.Loan) (*models.Player, error)
	Delete(ctx context.Context, id int) error
}

const playerColumns = `
	id, name, age, height, position, image_key,
	team_id, team_name, team_email, team_country, team_league,
	loan_status, borrower_id, borrower_name, borrower_email, borrower_country, borrower_league,
	created_at, updated_at`

// playerRow is the flat table layout of a player.
type playerRow struct {
	ID              int            `db:"id"`
	Name            string         `db:"name"`
	Age             int            `db:"age"`
	Height          float64        `db:"height"`
	Position        string         `db:"position"`
	ImageKey        string         `db:"image_key"`
	TeamID          int            `db:"team_id"`
	TeamName        string         `db:"team_name"`
	TeamEmail       string         `db:"team_email"`
	TeamCountry     string         `db:"team_country"`
	TeamLeague      string         `db:"team_league"`
	LoanStatus      string         `db:"loan_status"`
	BorrowerID      sql.NullInt64  `db:"borrower_id"`
	BorrowerName    sql.NullString `db:"borrower_name"`
	BorrowerEmail   sql.NullString `db:"borrower_email"`
	BorrowerCountry sql.NullString `db:"borrower_country"`
	BorrowerLeague  sql.NullString `db:"borrower_league"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (row playerRow) toModel() models.Player {
	p := models.Player{
		ID:       row.ID,
		Name:     row.Name,
		Age:      row.Age,
		Height:   row.Height,
		Position: row.Position,
		ImageKey: row.ImageKey,
		Team: models.TeamSnapshot{
			ID:      row.TeamID,
			Name:    row.TeamName,
			Email:   row.TeamEmail,
			Country: row.TeamCountry,
			League:  row.TeamLeague,
		},
		Loan:      models.Loan{Status: models.LoanStatus(row.LoanStatus)},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.BorrowerID.Valid {
		p.Loan.Borrower = &models.TeamSnapshot{
			ID:      int(row.BorrowerID.Int64),
			Name:    row.BorrowerName.String,
			Email:   row.BorrowerEmail.String,
			Country: row.BorrowerCountry.String,
			League:  row.BorrowerLeague.String,
		}
	}
	return p
}

// borrowerColumns are the nullable borrower values of a loan, in column order.
func borrowerColumns(loan models.Loan) []interface{} {
	if loan.Borrower == nil {
		return []interface{}{sql.NullInt64{}, sql.NullString{}, sql.NullString{}, sql.NullString{}, sql.NullString{}}
	}
	b := loan.Borrower
	return []interface{}{
		sql.NullInt64{Int64: int64(b.ID), Valid: true},
		sql.NullString{String: b.Name, Valid: true},
		sql.NullString{String: b.Email, Valid: true},
		sql.NullString{String: b.Country, Valid: true},
		sql.NullString{String: b.League, Valid: true},
	}
}

func expectedBorrowerID(loan models.Loan) sql.NullInt64 {
	if loan.Borrower == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(loan.Borrower.ID), Valid: true}
}

type postgresPlayerRepository struct {
	db *sqlx.DB
}

func NewPostgresPlayerRepository(db *sqlx.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (
			name, age, height, position, image_key,
			team_id, team_name, team_email, team_country, team_league,
			loan_status, borrower_id, borrower_name, borrower_email, borrower_country, borrower_league
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`

	args := []interface{}{
		p.Name, p.Age, p.Height, p.Position, p.ImageKey,
		p.Team.ID, p.Team.Name, p.Team.Email, p.Team.Country, p.Team.League,
		p.Loan.Status,
	}
	args = append(args, borrowerColumns(p.Loan)...)

	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapPlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	return r.getOne(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
}

func (r *postgresPlayerRepository) FindByNameAndPosition(ctx context.Context, name, position string) (*models.Player, error) {
	return r.getOne(ctx, `SELECT `+playerColumns+` FROM players WHERE name = $1 AND position = $2`, name, position)
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter PlayerFilter) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND team_id = $%d", argID)
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.BorrowerID != nil {
		query += fmt.Sprintf(" AND borrower_id = $%d", argID)
		args = append(args, *filter.BorrowerID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND loan_status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	var rows []playerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	players := make([]models.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toModel())
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player, expected models.Loan) error {
	query := `
		UPDATE players SET
			name = $1,
			age = $2,
			height = $3,
			position = $4,
			image_key = $5,
			loan_status = $6,
			borrower_id = $7,
			borrower_name = $8,
			borrower_email = $9,
			borrower_country = $10,
			borrower_league = $11,
			updated_at = now()
		WHERE id = $12 AND loan_status = $13 AND borrower_id IS NOT DISTINCT FROM $14::integer
		RETURNING updated_at`

	args := []interface{}{p.Name, p.Age, p.Height, p.Position, p.ImageKey, p.Loan.Status}
	args = append(args, borrowerColumns(p.Loan)...)
	args = append(args, p.ID, expected.Status, expectedBorrowerID(expected))

	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.missingOrChanged(ctx, p.ID)
	}
	return mapPlayerError(err)
}

func (r *postgresPlayerRepository) UpdateLoan(ctx context.Context, id int, expected, next models.Loan) (*models.Player, error) {
	query := `
		UPDATE players SET
			loan_status = $1,
			borrower_id = $2,
			borrower_name = $3,
			borrower_email = $4,
			borrower_country = $5,
			borrower_league = $6,
			updated_at = now()
		WHERE id = $7 AND loan_status = $8 AND borrower_id IS NOT DISTINCT FROM $9::integer
		RETURNING ` + playerColumns

	args := []interface{}{next.Status}
	args = append(args, borrowerColumns(next)...)
	args = append(args, id, expected.Status, expectedBorrowerID(expected))

	var row playerRow
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missingOrChanged(ctx, id)
		}
		return nil, mapPlayerError(err)
	}

	p := row.toModel()
	return &p, nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Player, error) {
	var row playerRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, mapPlayerError(err)
	}
	p := row.toModel()
	return &p, nil
}

// missingOrChanged explains why a conditional update matched no row.
func (r *postgresPlayerRepository) missingOrChanged(ctx context.Context, id int) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM players WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check player %d: %w", id, err)
	}
	if !exists {
		return ErrPlayerNotFound
	}
	return ErrLoanStateChanged
}

func mapPlayerError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlayerNotFound
	}
	if code, constraint, ok := constraintViolation(err); ok {
		switch {
		case code == pqUniqueViolation && constraint == "players_name_position_key":
			return ErrPlayerConflict
		case code == pqCheckViolation:
			return fmt.Errorf("%w: %s", models.ErrInvalidLoan, constraint)
		}
	}
	return err
}
