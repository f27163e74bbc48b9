package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"

	"github.com/vbonduro/explainui/internal/annotate"
	"github.com/vbonduro/explainui/internal/config"
	"github.com/vbonduro/explainui/internal/db"
	"github.com/vbonduro/explainui/internal/explain"
	claudeexplain "github.com/vbonduro/explainui/internal/explain/claude"
	ollamaexplain "github.com/vbonduro/explainui/internal/explain/ollama"
	"github.com/vbonduro/explainui/internal/logging"
	"github.com/vbonduro/explainui/internal/service"
	"github.com/vbonduro/explainui/internal/session/memory"
	"github.com/vbonduro/explainui/internal/shotstore/local"
	"github.com/vbonduro/explainui/internal/store"
	"github.com/vbonduro/explainui/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	files, err := local.New(cfg.ImagePath)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return
	}

	var repo annotate.SessionRepository
	if cfg.SessionBackend == "memory" {
		logger.Info("session kept in memory only")
		repo = memory.New()
	} else {
		repo = store.NewSessionStore(database, cfg.SessionKey, logger)
	}

	svc, err := service.Open(context.Background(), repo, store.NewImageStore(database), files, newDrafter(cfg, logger), logger)
	if err != nil {
		logger.Error("failed to open session", "error", err)
		return
	}

	server := web.NewServer(svc, web.Options{
		MaxImageBytes: cfg.MaxImageBytes,
		SiteDir:       cfg.SiteDir,
	}, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.SessionBackend == "memory" {
		return db.OpenMemory()
	}
	return db.Open(cfg.DBPath)
}

func newDrafter(cfg *config.Config, logger *slog.Logger) explain.Drafter {
	switch cfg.DraftBackend {
	case "claude":
		logger.Info("using Claude note drafter", "model", cfg.ClaudeModel)
		return claudeexplain.New(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeBaseURL)
	case "ollama":
		logger.Info("using Ollama note drafter", "model", cfg.OllamaModel)
		return ollamaexplain.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("note drafting disabled")
		return nil
	}
}
