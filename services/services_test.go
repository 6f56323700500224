package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/loan-market/loans"
	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/storage"
	"github.com/Dosada05/loan-market/utils"
)

func TestMain(m *testing.M) {
	utils.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []loans.Event
}

func (n *recordingNotifier) Publish(e loans.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) all() []loans.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]loans.Event(nil), n.events...)
}

type fixture struct {
	teams    repositories.TeamRepository
	players  repositories.PlayerRepository
	uploader storage.FileUploader
	notifier *recordingNotifier
	dir      string

	auth    AuthService
	team    TeamService
	player  PlayerService
	loan    LoanService
	counter int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repositories.NewMemoryStore()
	dir := t.TempDir()
	uploader, err := storage.NewDiskUploader(dir, "/images/")
	require.NoError(t, err)

	f := &fixture{
		teams:    store.Teams(),
		players:  store.Players(),
		uploader: uploader,
		notifier: &recordingNotifier{},
		dir:      dir,
	}
	log := logger.Nop()
	f.auth = NewAuthService(f.teams, log)
	f.team = NewTeamService(f.teams, uploader, log)
	f.player = NewPlayerService(f.players, f.teams, uploader, PlayerServiceOptions{ResetLoanOnEdit: true}, log)
	f.loan = NewLoanService(f.players, f.teams, uploader, f.notifier, log)
	return f
}

func (f *fixture) newTeam(t *testing.T, name string) *models.Team {
	t.Helper()
	f.counter++
	team := &models.Team{
		Name:    name,
		Email:   fmt.Sprintf("team%d@example.com", f.counter),
		Country: "Brazil",
		League:  "Serie A",
	}
	require.NoError(t, f.teams.Create(context.Background(), team))
	return team
}

func (f *fixture) newPlayer(t *testing.T, owner *models.Team, name string) *models.Player {
	t.Helper()
	p, err := f.player.Register(context.Background(), owner.ID, PlayerInput{
		Name:     name,
		Age:      24,
		Height:   1.80,
		Position: "forward",
	}, pngUpload())
	require.NoError(t, err)
	return p
}

func pngUpload() *ImageUpload {
	return &ImageUpload{Filename: "photo.png", Size: 3, Reader: strings.NewReader("png")}
}
