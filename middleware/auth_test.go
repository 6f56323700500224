package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/loan-market/models"
)

func echoTeamID(w http.ResponseWriter, r *http.Request) {
	teamID, err := GetTeamIDFromContext(r.Context())
	if err != nil {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(strconv.Itoa(teamID)))
}

func TestTokenAuthRoundTrip(t *testing.T) {
	auth := NewTokenAuth("secret", time.Hour)

	token, err := auth.Issue(&models.Team{ID: 42, Name: "Owner FC"})
	require.NoError(t, err)

	claims, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "Owner FC", claims[jwtClaimName])

	teamID, err := teamIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, 42, teamID)
}

func TestTokenAuthRejects(t *testing.T) {
	auth := NewTokenAuth("secret", time.Hour)

	t.Run("other secret", func(t *testing.T) {
		token, err := NewTokenAuth("other", time.Hour).Issue(&models.Team{ID: 1})
		require.NoError(t, err)
		_, err = auth.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenAuth("secret", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := expired.Issue(&models.Team{ID: 1})
		require.NoError(t, err)
		_, err = auth.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{jwtClaimTeamID: 1}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = auth.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no team claim", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = auth.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthenticateMiddleware(t *testing.T) {
	auth := NewTokenAuth("secret", time.Hour)
	token, err := auth.Issue(&models.Team{ID: 7})
	require.NoError(t, err)

	tests := []struct {
		name       string
		handler    func(http.Handler) http.Handler
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer header", handler: auth.Authenticate, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "7"},
		{name: "query token ignored", handler: auth.Authenticate, query: "?token=" + token, wantStatus: http.StatusUnauthorized},
		{name: "websocket query token", handler: auth.AuthenticateWebSocket, query: "?token=" + token, wantStatus: http.StatusOK, wantBody: "7"},
		{name: "websocket bearer header", handler: auth.AuthenticateWebSocket, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "7"},
		{name: "websocket bad header wins over query", handler: auth.AuthenticateWebSocket, header: "Basic " + token, query: "?token=" + token, wantStatus: http.StatusUnauthorized},
		{name: "websocket missing", handler: auth.AuthenticateWebSocket, wantStatus: http.StatusUnauthorized},
		{name: "missing", handler: auth.Authenticate, wantStatus: http.StatusUnauthorized},
		{name: "garbage", handler: auth.Authenticate, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", handler: auth.Authenticate, header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "optional anonymous", handler: auth.OptionalAuthenticate, wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "optional valid", handler: auth.OptionalAuthenticate, header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "7"},
		{name: "optional invalid", handler: auth.OptionalAuthenticate, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "optional query token ignored", handler: auth.OptionalAuthenticate, query: "?token=" + token, wantStatus: http.StatusOK, wantBody: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			tt.handler(http.HandlerFunc(echoTeamID)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestWithTeamID(t *testing.T) {
	ctx := WithTeamID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), 5)
	teamID, err := GetTeamIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, teamID)
}
