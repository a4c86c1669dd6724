package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zsiec/lens/internal/config"
	"github.com/zsiec/lens/internal/decode"
	"github.com/zsiec/lens/internal/logger"
	"github.com/zsiec/lens/internal/playback"
	"github.com/zsiec/lens/internal/server"
	"github.com/zsiec/lens/pkg/version"
)

func main() {
	var (
		configPath  string
		playPath    string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&playPath, "play", "", "Play the given video file headlessly")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting Lens media pipeline")
	if configPath != "" {
		log.WithField("config_path", configPath).Debug("Configuration loaded")
	}

	appLog := logger.NewLogrusAdapter(logrus.NewEntry(log))
	registry := decode.NewRegistry()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	// Open the playback session before the server so readiness reflects it
	var player *playback.Player
	if playPath != "" {
		player, err = playback.Open(playPath, registry, nil, cfg.Playback, appLog)
		if err != nil {
			log.WithError(err).Fatal("Failed to open playback session")
		}
		defer player.Close()

		go runHeadlessPlayback(ctx, cancel, player, log)
	}

	if !cfg.Server.Enabled {
		<-ctx.Done()
		log.Info("Shutdown complete")
		return
	}

	srv := server.New(cfg, log, func() interface{} {
		return statusSnapshot(player)
	})

	if err := srv.Start(ctx); err != nil {
		log.WithError(err).Fatal("Server error")
	}

	log.Info("Shutdown complete")
}

// runHeadlessPlayback drives the pacing loop without a display,
// cancelling the root context once the stream is exhausted.
func runHeadlessPlayback(ctx context.Context, cancel context.CancelFunc, player *playback.Player, log *logrus.Logger) {
	player.Play()

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	frames := 0
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pos, frame := player.Advance()
		if frame != nil {
			frames++
		}

		if player.Finished() {
			log.WithFields(logrus.Fields{
				"frames":           frames,
				"position_seconds": pos,
				"elapsed":          time.Since(start).String(),
			}).Info("Playback finished")
			cancel()
			return
		}
	}
}

// statusSnapshot builds the /api/v1/status payload.
func statusSnapshot(player *playback.Player) interface{} {
	snap := map[string]interface{}{
		"playback_active": player != nil,
	}
	if player != nil {
		snap["session_id"] = player.ID()
		snap["playing"] = player.Playing()
		snap["duration_seconds"] = player.Duration()
		snap["finished"] = player.Finished()
	}
	return snap
}
