// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/dwrth/spotlink/internal/api/rest"
	"github.com/dwrth/spotlink/internal/api/ws"
	"github.com/dwrth/spotlink/internal/app/artistban"
	"github.com/dwrth/spotlink/internal/app/enqueue"
	"github.com/dwrth/spotlink/internal/app/player"
	"github.com/dwrth/spotlink/internal/app/queue"
	"github.com/dwrth/spotlink/internal/infra/config"
	"github.com/dwrth/spotlink/internal/infra/logger"
	"github.com/dwrth/spotlink/internal/infra/settings"
	"github.com/dwrth/spotlink/internal/infra/spotify"
)

var (
	app        = kingpin.New("spotlink-server", "spotlink Spotify bridge server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Market:       cfg.Spotify.Market,
	})
	if err != nil {
		return err
	}

	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := artistban.NewRegistry(store, spotifyClient)
	if err := registry.Load(ctx, ""); err != nil {
		return err
	}

	queueManager := queue.NewManager(spotifyClient)
	playerSvc := player.New(spotifyClient, queueManager)
	orchestrator := enqueue.NewOrchestrator(spotifyClient, queueManager, registry, cfg.Spotify.SearchLimit)

	hub := ws.NewHub()
	go hub.Run()

	router := rest.NewRouter(cfg.Server, rest.Handlers{
		Enqueue: rest.NewEnqueueHandler(orchestrator, cfg.Requests, hub),
		Artist:  rest.NewArtistHandler(registry, hub),
		Player:  rest.NewPlayerHandler(queueManager, playerSvc, hub),
		Search:  rest.NewSearchHandler(spotifyClient),
	}, hub)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zlog.Info().Msgf("Received signal %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	zlog.Info().Msg("Server stopped")
	return nil
}
