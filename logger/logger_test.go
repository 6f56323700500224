package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Env: "production", Output: &buf})

	l.Info("player registered", "player_id", 7)
	l.Debug("hidden in production")
	require.NoError(t, l.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "player registered", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(7), entry["player_id"])
	assert.Equal(t, "loan-market", entry["service"])
}

func TestNewWithFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{Env: "development", Output: &buf, File: file})

	l.With("team_id", 3).Warn("loan declined")
	_ = l.Sync()

	assert.Contains(t, buf.String(), "loan declined")
	assert.FileExists(t, file)
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Env: "production", Output: &buf})

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("nope"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/players/loan/1", nil))
	_ = l.Sync()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, float64(http.StatusConflict), entry["status"])
	assert.Equal(t, "/players/loan/1", entry["path"])
	assert.Equal(t, float64(4), entry["bytes"])
}

func TestMiddlewareStoresRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Env: "production", Output: &buf})

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler", "player_id", 3)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/players/3", nil))
	_ = l.Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "inside handler", entry["message"])
	assert.Equal(t, float64(3), entry["player_id"])
	assert.Contains(t, entry, "request_id")
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()).Info("dropped")
	})
}
