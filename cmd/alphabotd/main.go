package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celerix-dev/alphabot/internal/api"
	"github.com/celerix-dev/alphabot/internal/bot"
	"github.com/celerix-dev/alphabot/internal/config"
	"github.com/celerix-dev/alphabot/internal/engine"
	"github.com/celerix-dev/alphabot/internal/slack"
	"github.com/celerix-dev/alphabot/internal/vault"
	"github.com/celerix-dev/alphabot/internal/worker"
	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

func main() {
	// 1. Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	config.InitLogger(cfg)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting AlphaBot", "version", version, "resource", cfg.ResourceName)

	// 2. Initialize persistence
	stateFile, err := engine.NewStateFile(cfg.StateFile)
	if err != nil {
		slog.Error("Failed to initialize state file", "error", err)
		os.Exit(1)
	}
	created, err := stateFile.Init(time.Now())
	if err != nil {
		slog.Error("Failed to initialize state file", "path", cfg.StateFile, "error", err)
		os.Exit(1)
	}
	if created {
		slog.Info("Created state file", "path", cfg.StateFile)
	}

	// Refuse to start on a record we cannot parse
	state, err := stateFile.Read()
	if err != nil {
		slog.Error("Checkout state unreadable", "path", cfg.StateFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded checkout state", "available", state.Free(), "holder", state.Holder)

	usageLog, err := engine.NewUsageLog(cfg.UsageLog)
	if err != nil {
		slog.Error("Failed to initialize usage log", "error", err)
		os.Exit(1)
	}

	// 3. Slack client
	client := slack.NewClient(slack.Options{
		Token:            cfg.SlackToken,
		APIURL:           cfg.SlackAPIURL,
		Timeout:          cfg.SlackTimeout,
		PostRatePerSec:   cfg.SlackPostRatePerSec,
		LookupRatePerSec: cfg.SlackLookupRatePerSec,
	})

	botUserID := cfg.BotUserID
	if botUserID == "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SlackTimeout)
		botUserID, err = client.AuthTest(ctx)
		cancel()
		if err != nil {
			slog.Error("Slack auth.test failed", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Resolved bot identity", "bot_user_id", botUserID)

	if cfg.SigningSecret == "" {
		slog.Warn("SIGNING_SECRET not set, Slack request signatures will not be verified")
	}

	// 4. Wire the bot
	ledger := engine.NewLedger(stateFile)
	dispatcher := bot.NewDispatcher(bot.Config{
		BotUserID:    botUserID,
		WakeWord:     cfg.WakeWord,
		ResourceName: cfg.ResourceName,
	}, bot.NewResolver(client), ledger, usageLog, client)

	queue := worker.NewQueue(dispatcher, cfg.QueueSize, cfg.HandleTimeout)
	queue.Start()

	// 5. HTTP API
	gin.SetMode(gin.ReleaseMode)
	h := &api.Handler{
		Queue:         queue,
		Ledger:        ledger,
		Usage:         usageLog,
		SigningSecret: cfg.SigningSecret,
		ResourceName:  cfg.ResourceName,
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(h),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.TLS {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			slog.Error("Failed to generate TLS certificate", "error", err)
			os.Exit(1)
		}
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		slog.Info("TLS enabled with self-signed certificate")
	}

	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port, "tls", cfg.TLS)
		var err error
		if cfg.TLS {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// 6. Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Replies for messages already acknowledged still go out
	if err := queue.Stop(shutdownCtx); err != nil {
		slog.Error("Message worker did not drain", "error", err, "pending", queue.Len())
	}

	slog.Info("AlphaBot stopped")
}
