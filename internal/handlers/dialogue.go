package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/generativefiction/fortuna-engine/internal/services"
	"github.com/generativefiction/fortuna-engine/pkg/dialogue"
)

// noAnswer is the wire sentinel for a cache miss.
const noAnswer = "None"

// DialogueHandler serves the dialogue cache protocol consumed by
// dialogue.RemoteCache. A fetch miss is computed locally when the
// requested model version matches this server's own provider, so
// clients without model access can still play.
type DialogueHandler struct {
	cache  dialogue.Cache
	llm    services.LLMService // nil disables compute-on-miss
	logger *slog.Logger
}

func NewDialogueHandler(cache dialogue.Cache, llm services.LLMService, logger *slog.Logger) *DialogueHandler {
	return &DialogueHandler{cache: cache, llm: llm, logger: logger}
}

// HandleFetch answers POST /api/fetch_dialogue.
func (h *DialogueHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decode(w, r)
	if !ok {
		return
	}

	answer, found, err := h.cache.Get(r.Context(), d)
	if err != nil {
		h.logger.Error("Dialogue cache read failed", "error", err)
		http.Error(w, "cache read failed", http.StatusInternalServerError)
		return
	}
	if found {
		h.respond(w, answer)
		return
	}

	if h.llm == nil || d.ModelVersion != h.llm.ModelName() {
		h.respond(w, noAnswer)
		return
	}

	answer, err = h.llm.Complete(r.Context(), d.Context, d.StopList())
	if err != nil {
		h.logger.Error("Completion failed", "error", err)
		http.Error(w, "completion failed", http.StatusBadGateway)
		return
	}
	if err := h.cache.Put(r.Context(), d.WithAnswer(answer)); err != nil {
		h.logger.Warn("Dialogue cache write failed", "error", err)
	}
	h.respond(w, answer)
}

// HandlePut answers POST /api/put_dialogue.
func (h *DialogueHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.cache.Put(r.Context(), d); err != nil {
		h.logger.Error("Dialogue cache write failed", "error", err)
		http.Error(w, "cache write failed", http.StatusInternalServerError)
		return
	}
	h.respond(w, "ok")
}

func (h *DialogueHandler) decode(w http.ResponseWriter, r *http.Request) (*dialogue.Dialogue, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	var d dialogue.Dialogue
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		h.logger.Warn("Invalid dialogue request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &d, true
}

func (h *DialogueHandler) respond(w http.ResponseWriter, answer string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(answer); err != nil {
		h.logger.Error("Error encoding dialogue response", "error", err)
	}
}
