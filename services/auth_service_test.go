package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:            "Owner FC",
		Email:           "Owner@Example.com ",
		Country:         "Brazil",
		League:          "Serie A",
		Password:        "s3cret",
		ConfirmPassword: "s3cret",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.auth.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, team.ID)
	assert.Equal(t, "owner@example.com", team.Email)
	assert.Empty(t, team.PasswordHash)

	logged, err := f.auth.Login(ctx, LoginInput{Email: "OWNER@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, team.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)

	_, err = f.auth.Login(ctx, LoginInput{Email: "owner@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		modify func(*RegisterInput)
		field  string
	}{
		{name: "missing name", modify: func(in *RegisterInput) { in.Name = "" }, field: "name"},
		{name: "bad email", modify: func(in *RegisterInput) { in.Email = "not-an-email" }, field: "email"},
		{name: "missing league", modify: func(in *RegisterInput) { in.League = "  " }, field: "league"},
		{name: "password mismatch", modify: func(in *RegisterInput) { in.ConfirmPassword = "other" }, field: "confirmpassword"},
		{name: "password too long", modify: func(in *RegisterInput) {
			in.Password = strings.Repeat("a", 80)
			in.ConfirmPassword = in.Password
		}, field: "password"},
		{name: "password too many bytes", modify: func(in *RegisterInput) {
			in.Password = strings.Repeat("é", 40)
			in.ConfirmPassword = in.Password
		}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRegistration()
			tt.modify(&input)

			_, err := f.auth.Register(context.Background(), input)
			var ve ValidationErrors
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve, tt.field)
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, validRegistration())
	require.NoError(t, err)

	sameEmail := validRegistration()
	sameEmail.Name = "Another FC"
	_, err = f.auth.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, ErrTeamEmailConflict)

	sameName := validRegistration()
	sameName.Email = "another@example.com"
	_, err = f.auth.Register(ctx, sameName)
	assert.ErrorIs(t, err, ErrTeamNameConflict)

	sameNameOtherLeague := sameName
	sameNameOtherLeague.League = "Serie B"
	_, err = f.auth.Register(ctx, sameNameOtherLeague)
	assert.NoError(t, err)
}

func TestUpdateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.auth.Register(ctx, validRegistration())
	require.NoError(t, err)
	other := f.newTeam(t, "Other FC")

	input := UpdateTeamInput{Name: "Renamed FC", Email: "owner@example.com", Country: "Brazil", League: "Serie A"}

	_, err = f.team.Update(ctx, team.ID, other.ID, input, nil)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	taken := input
	taken.Name = "Other FC"
	_, err = f.team.Update(ctx, team.ID, team.ID, taken, nil)
	assert.ErrorIs(t, err, ErrTeamNameConflict)

	mismatch := input
	mismatch.Password = "new"
	mismatch.ConfirmPassword = "nope"
	_, err = f.team.Update(ctx, team.ID, team.ID, mismatch, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	tooLong := input
	tooLong.Password = strings.Repeat("é", 40)
	tooLong.ConfirmPassword = tooLong.Password
	_, err = f.team.Update(ctx, team.ID, team.ID, tooLong, nil)
	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve, "password")

	withPassword := input
	withPassword.Password = "n3w"
	withPassword.ConfirmPassword = "n3w"
	updated, err := f.team.Update(ctx, team.ID, team.ID, withPassword,
		&ImageUpload{Filename: "crest.jpg", Size: 3, Reader: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed FC", updated.Name)
	require.NotNil(t, updated.ImageKey)
	assert.True(t, strings.HasPrefix(*updated.ImageKey, "teams/"))
	require.NotNil(t, updated.ImageURL)

	_, err = f.auth.Login(ctx, LoginInput{Email: "owner@example.com", Password: "n3w"})
	assert.NoError(t, err)
}

func TestTeamEditDoesNotRewritePlayerSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, err := f.auth.Register(ctx, validRegistration())
	require.NoError(t, err)
	p := f.newPlayer(t, team, "Zico")

	_, err = f.team.Update(ctx, team.ID, team.ID, UpdateTeamInput{Name: "Renamed FC", Email: "owner@example.com", Country: "Brazil", League: "Serie A"}, nil)
	require.NoError(t, err)

	stored, err := f.player.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner FC", stored.Team.Name)
}
