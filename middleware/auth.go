package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/loan-market/models"
)

var (
	ErrMissingToken = errors.New("authorization token is required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenAuth issues and verifies HS256 team tokens.
type TokenAuth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenAuth(secret string, ttl time.Duration) *TokenAuth {
	return &TokenAuth{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token identifying team.
func (a *TokenAuth) Issue(team *models.Team) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		jwtClaimTeamID: team.ID,
		jwtClaimName:   team.Name,
		"exp":          now.Add(a.ttl).Unix(),
		"iat":          now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns its claims.
func (a *TokenAuth) Parse(tokenString string) (jwt.MapClaims, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	claims := jwt.MapClaims{}

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := teamIDFromClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token and stores the claims in the context.
func (a *TokenAuth) Authenticate(next http.Handler) http.Handler {
	return a.authenticate(next, bearerToken)
}

// AuthenticateWebSocket also accepts the token query parameter, because browsers
// cannot set headers on websocket upgrades. Mount it on the upgrade route only.
func (a *TokenAuth) AuthenticateWebSocket(next http.Handler) http.Handler {
	return a.authenticate(next, func(r *http.Request) string {
		if token := bearerToken(r); token != "" || r.Header.Get("Authorization") != "" {
			return token
		}
		return r.URL.Query().Get("token")
	})
}

// OptionalAuthenticate lets anonymous requests through, but still rejects a bad token.
func (a *TokenAuth) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		a.Authenticate(next).ServeHTTP(w, r)
	})
}

func (a *TokenAuth) authenticate(next http.Handler, extract func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extract(r)
		if tokenString == "" {
			unauthorized(w, ErrMissingToken)
			return
		}

		claims, err := a.Parse(tokenString)
		if err != nil {
			unauthorized(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), teamContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
