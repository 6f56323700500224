package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const teamContextKey contextKey = "team"

const (
	jwtClaimTeamID = "team_id"
	jwtClaimName   = "name"
)

var ErrNoTeamInContext = errors.New("team claims not found in context")

// GetTeamIDFromContext returns the authenticated team id stored by Authenticate.
func GetTeamIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(teamContextKey).(jwt.MapClaims)
	if !ok {
		return 0, ErrNoTeamInContext
	}
	return teamIDFromClaims(claims)
}

// WithTeamID stores teamID as if the request had been authenticated.
func WithTeamID(ctx context.Context, teamID int) context.Context {
	return context.WithValue(ctx, teamContextKey, jwt.MapClaims{jwtClaimTeamID: float64(teamID)})
}

func teamIDFromClaims(claims jwt.MapClaims) (int, error) {
	raw, ok := claims[jwtClaimTeamID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimTeamID)
	}

	var teamID int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimTeamID, v)
		}
		teamID = int(v)
	case int:
		teamID = v
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim: %w", jwtClaimTeamID, err)
		}
		teamID = parsed
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: %T", jwtClaimTeamID, raw)
	}

	if teamID <= 0 {
		return 0, fmt.Errorf("invalid team id in '%s' claim: %d", jwtClaimTeamID, teamID)
	}
	return teamID, nil
}
