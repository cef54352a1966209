package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/hcplog/internal/api"
	"github.com/MikeSquared-Agency/hcplog/internal/config"
	"github.com/MikeSquared-Agency/hcplog/internal/extraction"
	"github.com/MikeSquared-Agency/hcplog/internal/hermes"
	"github.com/MikeSquared-Agency/hcplog/internal/session"
	"github.com/MikeSquared-Agency/hcplog/internal/slack"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		setupLogging("info")
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("hcplog starting", "port", cfg.Port, "extraction_url", cfg.ExtractionURL)

	// Extraction service
	client := extraction.NewClient(cfg.ExtractionURL, cfg.HTTPTimeout)

	opts := session.Options{
		Timeout:         cfg.ExtractTimeout,
		DebugTranscript: cfg.DebugTranscript,
		Greeting:        cfg.Greeting,
	}

	var notifiers session.Notifiers

	// NATS/Hermes (optional, the session works without notices)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.Connect(cfg.NatsURL, cfg.NatsToken, cfg.NatsSubjectPrefix, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		notifiers = append(notifiers, hermes.NewNotifier(hermesClient, slog.Default()))
		slog.Info("NATS connected", "url", cfg.NatsURL, "prefix", cfg.NatsSubjectPrefix)
	} else {
		slog.Warn("NATS not configured, round-trip notices disabled")
	}

	// Slack poster (optional, posts logged interactions to a channel)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		poster := slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		notifiers = append(notifiers, slack.NewNotifier(poster, slog.Default()))
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	}

	if len(notifiers) > 0 {
		opts.Notifier = notifiers
	}

	sess := session.New(client, opts, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, sess, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("hcplog ready", "session_id", sess.ID().String())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := sess.Flush(ctx); err != nil {
		slog.Warn("pending notices dropped", "error", err)
	}
	slog.Info("hcplog stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
