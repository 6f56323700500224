package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/loan-market/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamEmailConflict = errors.New("team email conflict")
	ErrTeamNameConflict  = errors.New("team name conflict in league")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByEmail(ctx context.Context, email string) (*models.Team, error)
	GetByNameAndLeague(ctx context.Context, name, league string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
}

const teamColumns = `id, name, email, country, league, password_hash, image_key, created_at, updated_at`

type postgresTeamRepository struct {
	db *sqlx.DB
}

func NewPostgresTeamRepository(db *sqlx.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, email, country, league, password_hash, image_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		team.Name,
		team.Email,
		team.Country,
		team.League,
		team.PasswordHash,
		team.ImageKey,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)

	return mapTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return r.getOne(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
}

func (r *postgresTeamRepository) GetByEmail(ctx context.Context, email string) (*models.Team, error) {
	return r.getOne(ctx, `SELECT `+teamColumns+` FROM teams WHERE email = $1`, email)
}

func (r *postgresTeamRepository) GetByNameAndLeague(ctx context.Context, name, league string) (*models.Team, error) {
	return r.getOne(ctx, `SELECT `+teamColumns+` FROM teams WHERE name = $1 AND league = $2`, name, league)
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	teams := make([]models.Team, 0)
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &teams, query); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			email = $2,
			country = $3,
			league = $4,
			password_hash = $5,
			image_key = $6,
			updated_at = now()
		WHERE id = $7
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		team.Name,
		team.Email,
		team.Country,
		team.League,
		team.PasswordHash,
		team.ImageKey,
		team.ID,
	).Scan(&team.UpdatedAt)

	return mapTeamError(err)
}

func (r *postgresTeamRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Team, error) {
	var team models.Team
	if err := r.db.GetContext(ctx, &team, query, args...); err != nil {
		return nil, mapTeamError(err)
	}
	return &team, nil
}

func mapTeamError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTeamNotFound
	}
	if code, constraint, ok := constraintViolation(err); ok && code == pqUniqueViolation {
		switch constraint {
		case "teams_email_key":
			return ErrTeamEmailConflict
		case "teams_name_league_key":
			return ErrTeamNameConflict
		}
	}
	return err
}
