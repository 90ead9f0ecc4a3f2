package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/generativefiction/fortuna-engine/internal/services"
	"github.com/generativefiction/fortuna-engine/pkg/dialogue"
)

func dialogueRecord(model string) *dialogue.Dialogue {
	name := "Oren Pike"
	return &dialogue.Dialogue{
		CharacterName: &name,
		ModelVersion:  model,
		Question:      "Alfred: hello\nOren Pike:",
		Context:       "Oren is a steward.\nAlfred: hello\nOren Pike:",
		StopWords:     dialogue.JoinStops([]string{"Alfred:", "\n"}),
	}
}

func postDialogue(t *testing.T, handler http.HandlerFunc, d *dialogue.Dialogue) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(d)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))
	return rec
}

func decodeAnswer(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var answer string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&answer))
	return answer
}

func TestFetchMissComputesAndCaches(t *testing.T) {
	cache := dialogue.NewMemoryCache()
	llm := services.NewMockLLM()
	llm.Responses = []string{" Pleasure to meet you."}
	h := NewDialogueHandler(cache, llm, slog.Default())

	rec := postDialogue(t, h.HandleFetch, dialogueRecord("mock-model-v1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, " Pleasure to meet you.", decodeAnswer(t, rec))
	assert.Equal(t, 1, llm.CallCount())
	assert.Equal(t, 1, cache.Len())

	// A second fetch hits the cache and never reaches the model.
	rec = postDialogue(t, h.HandleFetch, dialogueRecord("mock-model-v1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, " Pleasure to meet you.", decodeAnswer(t, rec))
	assert.Equal(t, 1, llm.CallCount())
}

func TestFetchMissWrongModelVersionIsNone(t *testing.T) {
	cache := dialogue.NewMemoryCache()
	llm := services.NewMockLLM()
	h := NewDialogueHandler(cache, llm, slog.Default())

	rec := postDialogue(t, h.HandleFetch, dialogueRecord("some-other-model"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "None", decodeAnswer(t, rec))
	assert.Equal(t, 0, llm.CallCount(), "no model call for a foreign model version")
	assert.Equal(t, 0, cache.Len())
}

func TestFetchMissWithoutModelIsNone(t *testing.T) {
	h := NewDialogueHandler(dialogue.NewMemoryCache(), nil, slog.Default())

	rec := postDialogue(t, h.HandleFetch, dialogueRecord("mock-model-v1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "None", decodeAnswer(t, rec))
}

func TestPutThenFetch(t *testing.T) {
	cache := dialogue.NewMemoryCache()
	h := NewDialogueHandler(cache, nil, slog.Default())

	d := dialogueRecord("mock-model-v1").WithAnswer(" Mind the wet paint.")
	rec := postDialogue(t, h.HandlePut, d)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeAnswer(t, rec))

	rec = postDialogue(t, h.HandleFetch, dialogueRecord("mock-model-v1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, " Mind the wet paint.", decodeAnswer(t, rec))
}

func TestPutWithoutAnswerFails(t *testing.T) {
	h := NewDialogueHandler(dialogue.NewMemoryCache(), nil, slog.Default())

	rec := postDialogue(t, h.HandlePut, dialogueRecord("mock-model-v1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDialogueRejectsNonPost(t *testing.T) {
	h := NewDialogueHandler(dialogue.NewMemoryCache(), nil, slog.Default())

	rec := httptest.NewRecorder()
	h.HandleFetch(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.HandlePut(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
