package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/loan-market/models"
)

// MemoryStore keeps teams and players in process memory. It honours the same
// uniqueness rules and conditional updates as the Postgres repositories and
// backs local runs and tests.
type MemoryStore struct {
	mu         sync.Mutex
	teams      map[int]models.Team
	players    map[int]models.Player
	nextTeam   int
	nextPlayer int
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:   make(map[int]models.Team),
		players: make(map[int]models.Player),
		now:     time.Now,
	}
}

func (s *MemoryStore) Teams() TeamRepository {
	return &memoryTeamRepository{s: s}
}

func (s *MemoryStore) Players() PlayerRepository {
	return &memoryPlayerRepository{s: s}
}

type memoryTeamRepository struct {
	s *MemoryStore
}

func (r *memoryTeamRepository) Create(_ context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkTeamUnique(*team); err != nil {
		return err
	}

	r.s.nextTeam++
	team.ID = r.s.nextTeam
	team.CreatedAt = r.s.now()
	team.UpdatedAt = team.CreatedAt
	r.s.teams[team.ID] = cloneTeam(*team)
	return nil
}

func (r *memoryTeamRepository) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	team, ok := r.s.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	team = cloneTeam(team)
	return &team, nil
}

func (r *memoryTeamRepository) GetByEmail(_ context.Context, email string) (*models.Team, error) {
	return r.find(func(t models.Team) bool { return t.Email == email })
}

func (r *memoryTeamRepository) GetByNameAndLeague(_ context.Context, name, league string) (*models.Team, error) {
	return r.find(func(t models.Team) bool { return t.Name == name && t.League == league })
}

func (r *memoryTeamRepository) List(_ context.Context) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	teams := make([]models.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		teams = append(teams, cloneTeam(t))
	}
	sort.Slice(teams, func(i, j int) bool {
		return newerFirst(teams[i].CreatedAt, teams[i].ID, teams[j].CreatedAt, teams[j].ID)
	})
	return teams, nil
}

func (r *memoryTeamRepository) Update(_ context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.teams[team.ID]; !ok {
		return ErrTeamNotFound
	}
	if err := r.s.checkTeamUnique(*team); err != nil {
		return err
	}

	team.UpdatedAt = r.s.now()
	r.s.teams[team.ID] = cloneTeam(*team)
	return nil
}

func (r *memoryTeamRepository) find(match func(models.Team) bool) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.teams {
		if match(t) {
			t = cloneTeam(t)
			return &t, nil
		}
	}
	return nil, ErrTeamNotFound
}

func (s *MemoryStore) checkTeamUnique(team models.Team) error {
	for id, t := range s.teams {
		if id == team.ID {
			continue
		}
		if t.Email == team.Email {
			return ErrTeamEmailConflict
		}
		if t.Name == team.Name && t.League == team.League {
			return ErrTeamNameConflict
		}
	}
	return nil
}

type memoryPlayerRepository struct {
	s *MemoryStore
}

func (r *memoryPlayerRepository) Create(_ context.Context, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := p.Loan.Validate(); err != nil {
		return err
	}
	if err := r.s.checkPlayerUnique(*p); err != nil {
		return err
	}

	r.s.nextPlayer++
	p.ID = r.s.nextPlayer
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.players[p.ID] = clonePlayer(*p)
	return nil
}

func (r *memoryPlayerRepository) GetByID(_ context.Context, id int) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p = clonePlayer(p)
	return &p, nil
}

func (r *memoryPlayerRepository) FindByNameAndPosition(_ context.Context, name, position string) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.players {
		if p.Name == name && p.Position == position {
			p = clonePlayer(p)
			return &p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (r *memoryPlayerRepository) List(_ context.Context, filter PlayerFilter) ([]models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	players := make([]models.Player, 0)
	for _, p := range r.s.players {
		if filter.OwnerID != nil && p.Team.ID != *filter.OwnerID {
			continue
		}
		if filter.BorrowerID != nil && (p.Loan.Borrower == nil || p.Loan.Borrower.ID != *filter.BorrowerID) {
			continue
		}
		if filter.Status != nil && p.Loan.Status != *filter.Status {
			continue
		}
		players = append(players, clonePlayer(p))
	}
	sort.Slice(players, func(i, j int) bool {
		return newerFirst(players[i].CreatedAt, players[i].ID, players[j].CreatedAt, players[j].ID)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(players) {
			return []models.Player{}, nil
		}
		players = players[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(players) {
		players = players[:filter.Limit]
	}
	return players, nil
}

func (r *memoryPlayerRepository) Update(_ context.Context, p *models.Player, expected models.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.players[p.ID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !stored.Loan.Equal(expected) {
		return ErrLoanStateChanged
	}
	if err := p.Loan.Validate(); err != nil {
		return err
	}
	if err := r.s.checkPlayerUnique(*p); err != nil {
		return err
	}

	p.Team = stored.Team
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.players[p.ID] = clonePlayer(*p)
	return nil
}

func (r *memoryPlayerRepository) UpdateLoan(_ context.Context, id int, expected, next models.Loan) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !stored.Loan.Equal(expected) {
		return nil, ErrLoanStateChanged
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	stored.Loan = next
	stored.UpdatedAt = r.s.now()
	r.s.players[id] = clonePlayer(stored)

	out := clonePlayer(stored)
	return &out, nil
}

func (r *memoryPlayerRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.players[id]; !ok {
		return ErrPlayerNotFound
	}
	delete(r.s.players, id)
	return nil
}

func (s *MemoryStore) checkPlayerUnique(p models.Player) error {
	for id, other := range s.players {
		if id != p.ID && other.Name == p.Name && other.Position == p.Position {
			return ErrPlayerConflict
		}
	}
	return nil
}

func newerFirst(ti time.Time, idi int, tj time.Time, idj int) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}

func cloneTeam(t models.Team) models.Team {
	if t.ImageKey != nil {
		key := *t.ImageKey
		t.ImageKey = &key
	}
	t.ImageURL = nil
	return t
}

func clonePlayer(p models.Player) models.Player {
	if p.Loan.Borrower != nil {
		b := *p.Loan.Borrower
		p.Loan.Borrower = &b
	}
	p.ImageURL = nil
	return p
}
