package handlers

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/generativefiction/fortuna-engine/internal/logger"
	"github.com/generativefiction/fortuna-engine/pkg/console"
	"github.com/generativefiction/fortuna-engine/pkg/game"
	"github.com/generativefiction/fortuna-engine/pkg/gamestore"
	"github.com/generativefiction/fortuna-engine/pkg/imagegen"
	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type GameResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []console.Message `json:"messages"`
	GameOver  bool              `json:"game_over"`
}

type InputRequest struct {
	Command string `json:"command"`
}

// GameHandler owns the HTTP session lifecycle: create, command, read,
// delete. World state lives in the store between requests; a handler
// call is load, mutate, save.
type GameHandler struct {
	lib    *world.Library
	store  gamestore.Store
	conv   game.Converser
	lex    lexicon.Lexicon
	images imagegen.Renderer
	logger *slog.Logger

	improvScenery bool
}

func NewGameHandler(lib *world.Library, store gamestore.Store, conv game.Converser, lex lexicon.Lexicon, images imagegen.Renderer, improvScenery bool, logger *slog.Logger) *GameHandler {
	if lex == nil {
		lex = lexicon.NewStatic()
	}
	if images == nil {
		images = imagegen.Noop{}
	}
	return &GameHandler{
		lib:           lib,
		store:         store,
		conv:          conv,
		lex:           lex,
		images:        images,
		logger:        logger,
		improvScenery: improvScenery,
	}
}

// ServeHTTP routes:
// POST /v1/game              - begin a new session
// POST /v1/game/{id}/input   - process one command
// GET /v1/game/{id}          - read the session snapshot
// DELETE /v1/game/{id}       - end the session
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/game"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to begin a session")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.WithError(h.logger, err).Warn("Invalid session ID", "id", idStr)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case r.Method == http.MethodPost && action == "input":
		h.handleInput(w, r, id)
	case r.Method == http.MethodGet && action == "":
		h.handleRead(w, r, id)
	case r.Method == http.MethodDelete && action == "":
		h.handleDelete(w, r, id)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()
	log := logger.WithSessionID(h.logger, id.String())
	wld := h.newWorld(id, log)

	wld.StartChapter(1)
	if err := h.store.Upsert(r.Context(), id, wld.Save()); err != nil {
		logger.WithError(log, err).Error("Failed to persist new session")
		h.writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.writeGame(w, http.StatusCreated, id, wld)
}

func (h *GameHandler) handleInput(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	log := logger.WithSessionID(h.logger, id.String())
	snap, err := h.store.Load(r.Context(), id)
	if err != nil {
		logger.WithError(log, err).Error("Failed to load session")
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if snap == nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	wld := h.newWorld(id, log)
	if err := wld.Restore(snap); err != nil {
		if errors.Is(err, world.ErrIncompatibleSave) {
			h.writeError(w, http.StatusConflict, "Saved session is from an incompatible version. Begin a new game")
			return
		}
		logger.WithError(log, err).Error("Failed to restore session")
		h.writeError(w, http.StatusInternalServerError, "Failed to restore session")
		return
	}

	session := game.NewSession(wld, h.conv, h.lex, log)
	session.HandleCommand(r.Context(), req.Command)

	if err := h.store.Upsert(r.Context(), id, wld.Save()); err != nil {
		logger.WithError(log, err).Error("Failed to persist session")
		h.writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.writeGame(w, http.StatusOK, id, wld)
}

func (h *GameHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	log := logger.WithSessionID(h.logger, id.String())
	snap, err := h.store.Load(r.Context(), id)
	if err != nil {
		logger.WithError(log, err).Error("Failed to load session")
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if snap == nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logger.WithError(log, err).Error("Failed to encode snapshot")
	}
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		logger.WithError(logger.WithSessionID(h.logger, id.String()), err).Error("Failed to delete session")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// newWorld builds a session world. The RNG seed derives from the
// session ID so replaying a session's commands replays its story.
func (h *GameHandler) newWorld(id uuid.UUID, log *slog.Logger) *world.World {
	return world.New(h.lib, world.Options{
		Lex:           h.lex,
		Conv:          h.convAsWorld(),
		Images:        h.images,
		Logger:        log,
		Seed:          binary.BigEndian.Uint64(id[:8]),
		ImprovScenery: h.improvScenery,
	})
}

func (h *GameHandler) convAsWorld() world.Converser {
	if wc, ok := h.conv.(world.Converser); ok {
		return wc
	}
	return nil
}

func (h *GameHandler) writeGame(w http.ResponseWriter, status int, id uuid.UUID, wld *world.World) {
	w.WriteHeader(status)
	resp := GameResponse{
		SessionID: id.String(),
		Messages:  wld.Output().Drain(),
		GameOver:  wld.GameOver(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode game response", "error", err)
	}
}

func (h *GameHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
