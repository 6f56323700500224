package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/utils"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Team, error)
	Login(ctx context.Context, input LoginInput) (*models.Team, error)
}

type RegisterInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Country         string `json:"country" validate:"required,max=100"`
	League          string `json:"league" validate:"required,max=100"`
	Password        string `json:"password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmpassword" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authService struct {
	teamRepo repositories.TeamRepository
	log      *logger.Logger
}

func NewAuthService(teamRepo repositories.TeamRepository, log *logger.Logger) AuthService {
	return &authService{
		teamRepo: teamRepo,
		log:      log.With("service", "auth"),
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Team, error) {
	trim(&input.Name, &input.Email, &input.Country, &input.League)
	input.Email = strings.ToLower(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if err := checkTeamUnique(ctx, s.teamRepo, 0, input.Email, input.Name, input.League); err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:         input.Name,
		Email:        input.Email,
		Country:      input.Country,
		League:       input.League,
		PasswordHash: hash,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.log.Info("team registered", "team_id", team.ID)
	populateTeamDetails(team, nil)
	return team, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Team, error) {
	trim(&input.Email)
	input.Email = strings.ToLower(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find team by email: %w", err)
	}

	ok, err := utils.CheckPasswordHash(input.Password, team.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	populateTeamDetails(team, nil)
	return team, nil
}

// checkTeamUnique reports a conflict when another team than selfID already
// uses email, or name within league.
func checkTeamUnique(ctx context.Context, repo repositories.TeamRepository, selfID int, email, name, league string) error {
	existing, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrTeamEmailConflict
	case err != nil && !errors.Is(err, repositories.ErrTeamNotFound):
		return fmt.Errorf("failed to check team email: %w", err)
	}

	existing, err = repo.GetByNameAndLeague(ctx, name, league)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrTeamNameConflict
	case err != nil && !errors.Is(err, repositories.ErrTeamNotFound):
		return fmt.Errorf("failed to check team name: %w", err)
	}
	return nil
}

// hashPassword reports a password bcrypt cannot take as a validation error.
// The max tag counts characters, bcrypt counts bytes.
func hashPassword(password string) (string, error) {
	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", ValidationErrors{"password": fmt.Sprintf("must be at most %d bytes long", utils.MaxPasswordBytes)}
	}
	return hash, err
}
