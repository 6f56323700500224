package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/storage"
)

type PlayerService interface {
	Register(ctx context.Context, actorID int, input PlayerInput, image *ImageUpload) (*models.Player, error)
	Edit(ctx context.Context, id, actorID int, input PlayerInput, image *ImageUpload) (*models.Player, error)
	Delete(ctx context.Context, id, actorID int) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.Player, error)
}

type PlayerInput struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Age      int     `json:"age" validate:"required,gt=0"`
	Height   float64 `json:"height" validate:"required,gt=0"`
	Position string  `json:"position" validate:"required,max=50"`
}

type PlayerServiceOptions struct {
	// ResetLoanOnEdit returns an edited player to idle, dropping any pending
	// request or concluded loan.
	ResetLoanOnEdit bool
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
	uploader   storage.FileUploader
	opts       PlayerServiceOptions
	log        *logger.Logger
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	opts PlayerServiceOptions,
	log *logger.Logger,
) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		uploader:   uploader,
		opts:       opts,
		log:        log.With("service", "player"),
	}
}

func (s *playerService) Register(ctx context.Context, actorID int, input PlayerInput, image *ImageUpload) (*models.Player, error) {
	owner, err := resolveActor(ctx, s.teamRepo, actorID)
	if err != nil {
		return nil, err
	}

	trim(&input.Name, &input.Position)
	errs := ValidationErrors{}
	if image == nil {
		errs["image"] = "is required"
	}
	if err := errs.merge(validateStruct(input)); err != nil {
		return nil, err
	}

	if err := s.checkNameAvailable(ctx, 0, input.Name, input.Position); err != nil {
		return nil, err
	}

	key, err := storeImage(ctx, s.uploader, playerImagePrefix, image)
	if err != nil {
		return nil, err
	}

	player := &models.Player{
		Name:     input.Name,
		Age:      input.Age,
		Height:   input.Height,
		Position: input.Position,
		ImageKey: key,
		Team:     owner.Snapshot(),
		Loan:     models.IdleLoan(),
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		discardImage(ctx, s.uploader, s.log, key)
		return nil, handleRepositoryError(err)
	}

	s.log.Info("player registered", "player_id", player.ID, "team_id", owner.ID)
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}

func (s *playerService) Edit(ctx context.Context, id, actorID int, input PlayerInput, image *ImageUpload) (*models.Player, error) {
	player, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	trim(&input.Name, &input.Position)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkNameAvailable(ctx, player.ID, input.Name, input.Position); err != nil {
		return nil, err
	}

	var newKey string
	if image != nil {
		newKey, err = storeImage(ctx, s.uploader, playerImagePrefix, image)
		if err != nil {
			return nil, err
		}
	}
	oldKey := player.ImageKey

	for attempt := 1; ; attempt++ {
		expected := player.Loan

		player.Name = input.Name
		player.Age = input.Age
		player.Height = input.Height
		player.Position = input.Position
		if newKey != "" {
			player.ImageKey = newKey
		}
		if s.opts.ResetLoanOnEdit {
			player.Loan = models.IdleLoan()
		}

		err = s.playerRepo.Update(ctx, player, expected)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrLoanStateChanged) || attempt == maxTransitionAttempts {
			discardImage(ctx, s.uploader, s.log, newKey)
			return nil, handleRepositoryError(err)
		}

		// a loan transition landed in between; redo the edit on top of it
		player, err = s.getOwned(ctx, id, actorID)
		if err != nil {
			discardImage(ctx, s.uploader, s.log, newKey)
			return nil, err
		}
	}

	if newKey != "" {
		discardImage(ctx, s.uploader, s.log, oldKey)
	}

	s.log.Info("player edited", "player_id", player.ID, "team_id", actorID, "loan_status", player.Loan.Status)
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}

// Delete removes the player. A pending borrower is not told about it.
func (s *playerService) Delete(ctx context.Context, id, actorID int) error {
	player, err := s.getOwned(ctx, id, actorID)
	if err != nil {
		return err
	}

	if err := s.playerRepo.Delete(ctx, player.ID); err != nil {
		return handleRepositoryError(err)
	}
	discardImage(ctx, s.uploader, s.log, player.ImageKey)

	s.log.Info("player deleted", "player_id", player.ID, "team_id", actorID, "loan_status", player.Loan.Status)
	return nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]models.Player, error) {
	return listPlayers(ctx, s.playerRepo, s.uploader, repositories.PlayerFilter{})
}

func (s *playerService) ListByTeam(ctx context.Context, teamID int) ([]models.Player, error) {
	return listPlayers(ctx, s.playerRepo, s.uploader, repositories.PlayerFilter{OwnerID: &teamID})
}

// getOwned loads a player and checks that actorID owns it.
func (s *playerService) getOwned(ctx context.Context, id, actorID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if player.Team.ID != actorID {
		return nil, ErrForbiddenOperation
	}
	return player, nil
}

func (s *playerService) checkNameAvailable(ctx context.Context, selfID int, name, position string) error {
	existing, err := s.playerRepo.FindByNameAndPosition(ctx, name, position)
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check player name: %w", err)
	case existing.ID == selfID:
		return nil
	default:
		return withKind(ErrPlayerConflict, fmt.Errorf(
			"player %s (%s) is already registered by %s", name, position, existing.Team.Name))
	}
}

// resolveActor loads the acting team. A token for a deleted team is refused.
func resolveActor(ctx context.Context, repo repositories.TeamRepository, actorID int) (*models.Team, error) {
	team, err := repo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamRequired
		}
		return nil, fmt.Errorf("failed to load acting team %d: %w", actorID, err)
	}
	return team, nil
}

func listPlayers(ctx context.Context, repo repositories.PlayerRepository, uploader storage.FileUploader, filter repositories.PlayerFilter) ([]models.Player, error) {
	players, err := repo.List(ctx, filter)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	populatePlayerImageURLs(players, uploader)
	return players, nil
}
