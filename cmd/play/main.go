// Command play runs the story locally in the terminal: content,
// engine, model access and dialogue cache all in-process.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/generativefiction/fortuna-engine/internal/config"
	"github.com/generativefiction/fortuna-engine/internal/services"
	"github.com/generativefiction/fortuna-engine/pkg/conversation"
	"github.com/generativefiction/fortuna-engine/pkg/dialogue"
	"github.com/generativefiction/fortuna-engine/pkg/game"
	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logFile, err := os.OpenFile("play.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()
	// The alt screen owns stdout, so logs go to a file.
	slogger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is required when LLM_PROVIDER=openai")
			os.Exit(1)
		}
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, slogger)
	case "llamacpp":
		llmService = services.NewLlamaCppService(cfg.LlamaCppURL, cfg.ModelName, slogger)
	case "mock":
		llmService = services.NewMockLLM()
	default:
		fmt.Fprintf(os.Stderr, "unknown LLM_PROVIDER %q (want openai, llamacpp or mock)\n", cfg.LLMProvider)
		os.Exit(1)
	}

	var cache dialogue.Cache
	if cfg.ConverseServer != "" {
		cache = dialogue.NewRemoteCache(cfg.ConverseServer)
	} else {
		sqlCache, err := dialogue.OpenSQLiteCache(cfg.DialogueDBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open dialogue cache %s: %v\n", cfg.DialogueDBPath, err)
			os.Exit(1)
		}
		defer sqlCache.Close()
		cache = sqlCache
	}

	lib, err := world.LoadLibrary(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load content from %s: %v\n", cfg.DataDir, err)
		os.Exit(1)
	}

	lex := lexicon.NewStatic()
	conv := conversation.NewService(llmService, cache, slogger)
	w := world.New(lib, world.Options{
		Lex:           lex,
		Conv:          conv,
		Logger:        slogger,
		Seed:          uint64(time.Now().UnixNano()),
		ImprovScenery: cfg.ImprovScenery,
	})
	session := game.NewSession(w, conv, lex, slogger)
	w.StartChapter(1)

	p := tea.NewProgram(newUI(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
