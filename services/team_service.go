package services

import (
	"context"
	"strings"

	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/storage"
)

type TeamService interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, id, actorID int, input UpdateTeamInput, image *ImageUpload) (*models.Team, error)
}

// UpdateTeamInput replaces the profile of a team. The password changes only
// when Password is set.
type UpdateTeamInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Country         string `json:"country" validate:"required,max=100"`
	League          string `json:"league" validate:"required,max=100"`
	Password        string `json:"password" validate:"omitempty,max=72"`
	ConfirmPassword string `json:"confirmpassword" validate:"required_with=Password,eqfield=Password"`
}

type teamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	log      *logger.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader, log *logger.Logger) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		uploader: uploader,
		log:      log.With("service", "team"),
	}
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	populateTeamDetails(team, s.uploader)
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	for i := range teams {
		populateTeamDetails(&teams[i], s.uploader)
	}
	return teams, nil
}

// Update edits the caller's own team. Player snapshots already taken of the
// team keep the old values.
func (s *teamService) Update(ctx context.Context, id, actorID int, input UpdateTeamInput, image *ImageUpload) (*models.Team, error) {
	if id != actorID {
		return nil, ErrForbiddenOperation
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	trim(&input.Name, &input.Email, &input.Country, &input.League)
	input.Email = strings.ToLower(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := checkTeamUnique(ctx, s.teamRepo, team.ID, input.Email, input.Name, input.League); err != nil {
		return nil, err
	}

	team.Name = input.Name
	team.Email = input.Email
	team.Country = input.Country
	team.League = input.League

	if input.Password != "" {
		hash, err := hashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		team.PasswordHash = hash
	}

	var oldKey string
	if image != nil {
		key, err := storeImage(ctx, s.uploader, teamImagePrefix, image)
		if err != nil {
			return nil, err
		}
		if team.ImageKey != nil {
			oldKey = *team.ImageKey
		}
		team.ImageKey = &key
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if image != nil {
			discardImage(ctx, s.uploader, s.log, *team.ImageKey)
		}
		return nil, handleRepositoryError(err)
	}
	discardImage(ctx, s.uploader, s.log, oldKey)

	s.log.Info("team updated", "team_id", team.ID)
	populateTeamDetails(team, s.uploader)
	return team, nil
}
