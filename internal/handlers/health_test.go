package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/generativefiction/fortuna-engine/pkg/gamestore"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

type failingStore struct {
	gamestore.Store
}

func (f failingStore) Ping(ctx context.Context) error { return errors.New("connection refused") }

func (f failingStore) Load(ctx context.Context, id uuid.UUID) (*world.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func TestHealthHealthy(t *testing.T) {
	h := NewHealthHandler(gamestore.NewMock(), slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "fortuna-engine", resp.Service)
	assert.Equal(t, "healthy", resp.Components["store"])
}

func TestHealthDegradedStore(t *testing.T) {
	h := NewHealthHandler(failingStore{gamestore.NewMock()}, slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["store"])
}

func TestHandlerErrorOnStoreFailure(t *testing.T) {
	h := newGameHandler(failingStore{gamestore.NewMock()})

	rec := postCommand(t, h, uuid.NewString(), "north")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
