package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/aloneprofessor1-oss/MADDI/audio"
	"github.com/aloneprofessor1-oss/MADDI/chat"
	"github.com/aloneprofessor1-oss/MADDI/config"
	"github.com/aloneprofessor1-oss/MADDI/models"
	"github.com/aloneprofessor1-oss/MADDI/models/gemini"
	"github.com/aloneprofessor1-oss/MADDI/models/openaicompat"
	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
	"github.com/aloneprofessor1-oss/MADDI/speech"
	"github.com/aloneprofessor1-oss/MADDI/stores"
	"github.com/aloneprofessor1-oss/MADDI/ui"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	repo := chat.NewRepository(store)
	repo.Load()
	go repo.WatchStore()

	gateway, err := newGateway(cfg)
	if err != nil {
		logger.Fatalf("Failed to create backend gateway: %v", err)
	}

	player := audio.NewPlayer(audio.NewOtoDevice(), func() (float64, float64) {
		s := repo.Settings()
		return s.Volume, s.PlaybackSpeed
	})

	controller := chat.NewController(repo, gateway, player, speech.Unavailable{})

	// Periodic maintenance: coalesced saves plus store backups.
	jobs := cron.New()
	if _, err := jobs.AddFunc(cfg.Maintain.FlushSpec, repo.Flush); err != nil {
		logger.Fatalf("Invalid flush spec: %v", err)
	}
	if _, err := jobs.AddFunc(cfg.Maintain.BackupSpec, func() {
		if err := store.Backup(); err != nil {
			logger.Warnf("Store backup failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Invalid backup spec: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      ui.NewServer(cfg, controller).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("MADDI listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	player.Stop()
	// Final synchronous save regardless of pending coalescing.
	repo.Flush()
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Goodbye")
}

func newStore(cfg *config.Config) (stores.KVStore, error) {
	sc := stores.NewStoreConfig(cfg.Storage.Type, cfg.Storage.Connection)
	if cfg.Storage.Type == "file" {
		sc.Connection = cfg.Storage.DataDir
	}
	if cfg.Storage.Type == "sqlite" && sc.Connection == "" {
		sc.Connection = filepath.Join(cfg.Storage.DataDir, "maddi.sqlite")
	}
	return stores.NewStore(sc)
}

func newGateway(cfg *config.Config) (models.Gateway, error) {
	switch cfg.Backend.Provider {
	case "openai":
		g := openaicompat.New(cfg.Backend.APIKey, cfg.Backend.BaseURL)
		g.ChatModel = cfg.Backend.ChatModel
		g.TTSModel = cfg.Backend.TTSModel
		g.TTSVoice = cfg.Backend.TTSVoice
		g.ImageModel = cfg.Backend.ImageModel
		g.SystemPrompt = cfg.Backend.SystemPrompt
		return g, nil
	case "gemini", "":
		g, err := gemini.New(context.Background(), cfg.Backend.APIKey)
		if err != nil {
			return nil, err
		}
		g.ChatModel = cfg.Backend.ChatModel
		g.TTSModel = cfg.Backend.TTSModel
		g.TTSVoice = cfg.Backend.TTSVoice
		g.ImageModel = cfg.Backend.ImageModel
		g.SystemPrompt = cfg.Backend.SystemPrompt
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported backend provider: %s", cfg.Backend.Provider)
	}
}
