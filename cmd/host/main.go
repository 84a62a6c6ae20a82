// Command host runs a standalone Carcassonne host over websocket or TCP.
// Players connect with the client package; the game saves on shutdown and
// can be resumed with -resume.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"carcassonne/internal/config"
	"carcassonne/internal/domain"
	"carcassonne/internal/ports"
	"carcassonne/internal/ports/local"
	"carcassonne/internal/save"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address, overrides config")
	debugConfig := flag.String("debug-config", "", "start a scripted game instead of a standard deck")
	resume := flag.String("resume", "", "path to a save file to resume")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *debugConfig != "" {
		cfg.Server.DebugConfig = *debugConfig
	}

	var resumed *domain.Game
	if *resume != "" {
		resumed, err = save.ReadFile(*resume)
		if err != nil {
			log.Error("failed to load save", "path", *resume, "err", err)
			os.Exit(1)
		}
		log.Info("resuming saved game", "path", *resume, "players", len(resumed.Players))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := ports.NewFileSnapshotStore(cfg.Server.SaveDir)
	hub := local.NewHub(cfg, log, store, resumed)
	log.Info("hosting game", "game_id", hub.GameID(), "transport", cfg.Server.Transport)

	go func() {
		if err := local.Serve(ctx, cfg, hub, log); err != nil {
			log.Error("serve failed", "err", err)
			stop()
		}
	}()

	if err := hub.Run(ctx); err != nil {
		log.Error("hub stopped", "err", err)
		os.Exit(1)
	}
}
