package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/loan-market/loans"
	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/storage"
)

// maxTransitionAttempts bounds how often a write is re-evaluated after losing
// a race against a concurrent change of the same player.
const maxTransitionAttempts = 3

// LoanNotifier is told about every successful transition.
type LoanNotifier interface {
	Publish(event loans.Event)
}

type LoanService interface {
	RequestLoan(ctx context.Context, playerID, actorID int) (*models.Player, error)
	ConcludeLoan(ctx context.Context, playerID, actorID int) (*models.Player, error)
	Decline(ctx context.Context, playerID, actorID int) (*models.Player, error)
	QuitLoan(ctx context.Context, playerID, actorID int) (*models.Player, error)

	// ListRequested returns players the team has asked for and is still negotiating.
	ListRequested(ctx context.Context, teamID int) ([]models.Player, error)
	// ListIncomingRequests returns the team's own players with a pending request.
	ListIncomingRequests(ctx context.Context, teamID int) ([]models.Player, error)
	// ListLent returns the team's own players out on loan.
	ListLent(ctx context.Context, teamID int) ([]models.Player, error)
	// ListBorrowed returns players on loan to the team.
	ListBorrowed(ctx context.Context, teamID int) ([]models.Player, error)
	Overview(ctx context.Context, teamID int) (*LoanOverview, error)
}

type LoanOverview struct {
	Requested        []models.Player `json:"requested"`
	IncomingRequests []models.Player `json:"incoming_requests"`
	Lent             []models.Player `json:"lent"`
	Borrowed         []models.Player `json:"borrowed"`
}

type loanService struct {
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
	uploader   storage.FileUploader
	notifier   LoanNotifier
	log        *logger.Logger
	now        func() time.Time
}

func NewLoanService(
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	notifier LoanNotifier,
	log *logger.Logger,
) LoanService {
	return &loanService{
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		uploader:   uploader,
		notifier:   notifier,
		log:        log.With("service", "loan"),
		now:        time.Now,
	}
}

func (s *loanService) RequestLoan(ctx context.Context, playerID, actorID int) (*models.Player, error) {
	return s.transition(ctx, loans.ActionRequest, playerID, actorID)
}

func (s *loanService) ConcludeLoan(ctx context.Context, playerID, actorID int) (*models.Player, error) {
	return s.transition(ctx, loans.ActionConclude, playerID, actorID)
}

func (s *loanService) Decline(ctx context.Context, playerID, actorID int) (*models.Player, error) {
	return s.transition(ctx, loans.ActionDecline, playerID, actorID)
}

func (s *loanService) QuitLoan(ctx context.Context, playerID, actorID int) (*models.Player, error) {
	return s.transition(ctx, loans.ActionQuit, playerID, actorID)
}

// transition evaluates action against the stored player and writes the result
// only if nobody changed the loan meanwhile. On a lost race the fresh state is
// evaluated again, so the caller gets the error that state warrants.
func (s *loanService) transition(ctx context.Context, action loans.Action, playerID, actorID int) (*models.Player, error) {
	actor, err := resolveActor(ctx, s.teamRepo, actorID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		player, err := s.playerRepo.GetByID(ctx, playerID)
		if err != nil {
			return nil, handleRepositoryError(err)
		}

		tr, err := loans.Apply(action, *player, actor.Snapshot())
		if err != nil {
			return nil, classifyLoanError(err)
		}

		updated, err := s.playerRepo.UpdateLoan(ctx, player.ID, tr.From, tr.To)
		if errors.Is(err, repositories.ErrLoanStateChanged) {
			s.log.Debug("loan changed concurrently, retrying",
				"player_id", playerID, "team_id", actorID, "action", action, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, handleRepositoryError(err)
		}

		s.log.Info("loan transition applied",
			"player_id", updated.ID,
			"team_id", actorID,
			"action", action,
			"from", tr.From.Status,
			"to", tr.To.Status,
		)
		if s.notifier != nil {
			s.notifier.Publish(loans.NewEvent(*updated, tr, s.now()))
		}

		populatePlayerImageURL(updated, s.uploader)
		return updated, nil
	}

	return nil, withKind(ErrConflict, fmt.Errorf("%w: gave up after %d attempts", repositories.ErrLoanStateChanged, maxTransitionAttempts))
}

func classifyLoanError(err error) error {
	switch {
	case loans.IsForbidden(err):
		return withKind(ErrForbiddenOperation, err)
	case loans.IsConflict(err):
		return withKind(ErrConflict, err)
	default:
		return err
	}
}

func (s *loanService) ListRequested(ctx context.Context, teamID int) ([]models.Player, error) {
	return s.list(ctx, teamID, models.LoanPending, false)
}

func (s *loanService) ListIncomingRequests(ctx context.Context, teamID int) ([]models.Player, error) {
	return s.list(ctx, teamID, models.LoanPending, true)
}

func (s *loanService) ListLent(ctx context.Context, teamID int) ([]models.Player, error) {
	return s.list(ctx, teamID, models.LoanOnLoan, true)
}

func (s *loanService) ListBorrowed(ctx context.Context, teamID int) ([]models.Player, error) {
	return s.list(ctx, teamID, models.LoanOnLoan, false)
}

// list filters on the team as owner, or as borrower when owned is false.
func (s *loanService) list(ctx context.Context, teamID int, status models.LoanStatus, owned bool) ([]models.Player, error) {
	filter := repositories.PlayerFilter{Status: &status}
	if owned {
		filter.OwnerID = &teamID
	} else {
		filter.BorrowerID = &teamID
	}
	return listPlayers(ctx, s.playerRepo, s.uploader, filter)
}

func (s *loanService) Overview(ctx context.Context, teamID int) (*LoanOverview, error) {
	var overview LoanOverview
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(dst *[]models.Player, fn func(context.Context, int) ([]models.Player, error)) {
		g.Go(func() error {
			players, err := fn(gctx, teamID)
			if err != nil {
				return err
			}
			*dst = players
			return nil
		})
	}
	fetch(&overview.Requested, s.ListRequested)
	fetch(&overview.IncomingRequests, s.ListIncomingRequests)
	fetch(&overview.Lent, s.ListLent)
	fetch(&overview.Borrowed, s.ListBorrowed)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
