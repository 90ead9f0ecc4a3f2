package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/generativefiction/fortuna-engine/internal/config"
	"github.com/generativefiction/fortuna-engine/internal/handlers"
	"github.com/generativefiction/fortuna-engine/internal/logger"
	"github.com/generativefiction/fortuna-engine/internal/middleware"
	"github.com/generativefiction/fortuna-engine/internal/services"
	"github.com/generativefiction/fortuna-engine/pkg/conversation"
	"github.com/generativefiction/fortuna-engine/pkg/dialogue"
	"github.com/generativefiction/fortuna-engine/pkg/gamestore"
	"github.com/generativefiction/fortuna-engine/pkg/imagegen"
	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Fortuna Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Error("OpenAI API key is required when using openai provider")
			os.Exit(1)
		}
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, log)
		log.Info("Using OpenAI LLM provider")
	case "llamacpp":
		llmService = services.NewLlamaCppService(cfg.LlamaCppURL, cfg.ModelName, log)
		log.Info("Using llama.cpp LLM provider", "url", cfg.LlamaCppURL)
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"openai", "llamacpp"})
		os.Exit(1)
	}

	lib, err := world.LoadLibrary(cfg.DataDir)
	if err != nil {
		log.Error("Failed to load content", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	log.Info("Content loaded", "rooms", len(lib.Rooms), "agents", len(lib.AgentSpecs), "chapters", len(lib.Chapters))

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	store := gamestore.NewRedisStoreFromClient(rdb, log)

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storeCancel()
	if err := store.WaitForConnection(storeCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	var cache dialogue.Cache
	if cfg.ConverseServer != "" {
		cache = dialogue.NewRemoteCache(cfg.ConverseServer)
		log.Info("Using remote dialogue cache", "server", cfg.ConverseServer)
	} else {
		cache = dialogue.NewRedisCacheFromClient(rdb, log)
		log.Info("Using Redis dialogue cache")
	}

	conv := conversation.NewService(llmService, cache, log)
	images := imagegen.NewQueue(rdb, log)
	lex := lexicon.NewStatic()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	gameHandler := handlers.NewGameHandler(lib, store, conv, lex, images, cfg.ImprovScenery, log)
	mux.Handle("/v1/game", gameHandler)
	mux.Handle("/v1/game/", gameHandler)

	dialogueHandler := handlers.NewDialogueHandler(cache, llmService, log)
	mux.HandleFunc("/api/fetch_dialogue", dialogueHandler.HandleFetch)
	mux.HandleFunc("/api/put_dialogue", dialogueHandler.HandlePut)

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
