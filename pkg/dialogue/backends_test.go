package dialogue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cacheContract exercises the behavior every backend must share.
func cacheContract(t *testing.T, cache Cache) {
	t.Helper()
	ctx := context.Background()
	d := sampleDialogue()

	_, found, err := cache.Get(ctx, d)
	require.NoError(t, err)
	assert.False(t, found, "fresh cache should miss")

	require.ErrorIs(t, cache.Put(ctx, d), ErrNoAnswer)

	require.NoError(t, cache.Put(ctx, d.WithAnswer("Well met.")))
	answer, found, err := cache.Get(ctx, d)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Well met.", answer)

	// A different key tuple is a different record.
	other := sampleDialogue()
	other.ModelVersion = "mock-model-v2"
	_, found, err = cache.Get(ctx, other)
	require.NoError(t, err)
	assert.False(t, found)

	// Writes are last-write-wins.
	require.NoError(t, cache.Put(ctx, d.WithAnswer("Well met again.")))
	answer, _, err = cache.Get(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "Well met again.", answer)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client, slog.Default())

	cacheContract(t, cache)

	require.NoError(t, cache.Ping(context.Background()))
}

func TestSQLiteCache(t *testing.T) {
	cache, err := OpenSQLiteCache(filepath.Join(t.TempDir(), "dialogue.db"))
	require.NoError(t, err)
	defer cache.Close()

	cacheContract(t, cache)
}

func TestRemoteCache(t *testing.T) {
	store := NewMemoryCache()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fetch_dialogue", func(w http.ResponseWriter, r *http.Request) {
		var d Dialogue
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		answer, found, err := store.Get(r.Context(), &d)
		require.NoError(t, err)
		if !found {
			answer = "None"
		}
		require.NoError(t, json.NewEncoder(w).Encode(answer))
	})
	mux.HandleFunc("/api/put_dialogue", func(w http.ResponseWriter, r *http.Request) {
		var d Dialogue
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		require.NoError(t, store.Put(r.Context(), &d))
		require.NoError(t, json.NewEncoder(w).Encode("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := NewRemoteCache(srv.URL)
	cacheContract(t, cache)
}

func TestRemoteCacheServerErrorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := NewRemoteCache(srv.URL)
	_, _, err := cache.Get(context.Background(), sampleDialogue())
	assert.Error(t, err, "a backend failure must never read as a miss")
}
