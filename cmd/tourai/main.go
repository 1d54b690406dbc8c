// Package main is the entry point for the TourAI WhatsApp travel bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v5"

	"github.com/touraibot/tourai/internal/admin"
	"github.com/touraibot/tourai/internal/bot"
	"github.com/touraibot/tourai/internal/config"
	"github.com/touraibot/tourai/internal/llm"
	"github.com/touraibot/tourai/internal/location"
	"github.com/touraibot/tourai/internal/queue"
	"github.com/touraibot/tourai/internal/search"
	"github.com/touraibot/tourai/internal/session"
	"github.com/touraibot/tourai/internal/tourvisor"
	"github.com/touraibot/tourai/internal/whatsapp"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(runMain())
}

func runMain() int {
	configPath := flag.String("config", "settings.yaml", "path to the settings file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down gracefully")
		cancel()
	}()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || os.Getenv("TOURAI_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	logger.Info("tourai starting")

	// .env is optional; the settings file and environment cover the rest.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if settings.OpenAIKey == "" {
		logger.Warn("OpenAI API key is not configured; conversations will report the outage")
	}
	if settings.TourvisorLogin == "" || settings.TourvisorPassword == "" {
		logger.Warn("Tourvisor credentials are not configured; searches will fail")
	}

	c := buildComponents(settings, configPath, logger)

	e := echo.New()
	c.webhook.Register(e)
	c.admin.Register(e)

	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", settings.ListenAddr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	c.dispatcher.Stop()
	c.followUps.Stop()
	logger.Info("tourai stopped")
	return nil
}

// components holds the wired application parts that need shutdown.
type components struct {
	webhook    *whatsapp.Webhook
	admin      *admin.Server
	dispatcher *queue.Dispatcher
	followUps  *session.FollowUpScheduler
}

func buildComponents(settings config.Settings, configPath string, logger *slog.Logger) *components {
	store := session.NewStore()

	client := llm.NewOpenAI(settings.OpenAIKey, settings.OpenAIModel)
	resolver := location.NewResolver(client, logger)

	tours := tourvisor.New(settings.TourvisorLogin, settings.TourvisorPassword,
		tourvisor.WithBaseURL(settings.TourvisorBaseURL),
		tourvisor.WithLogger(logger))

	gateway := whatsapp.NewGateway(settings.GatewayURL, settings.GatewayToken,
		whatsapp.WithLogger(logger))

	searcher := search.New(tours, resolver, gateway, logger)
	followUps := session.NewFollowUpScheduler(store, gateway, session.DefaultFollowUpDelay, logger)

	handler := bot.New(client, store, gateway, searcher, followUps, settings,
		bot.WithLogger(logger),
		bot.WithTourAccount(tours))

	dispatcher := queue.NewDispatcher(func(ctx context.Context, msg whatsapp.IncomingMessage) {
		if err := handler.HandleMessage(ctx, msg); err != nil {
			logger.Error("message handling failed", "from", msg.From, "error", err)
		}
	}, logger)

	webhook := whatsapp.NewWebhook(dispatcher.Enqueue, settings.GatewayToken, logger)
	adminServer := admin.NewServer(handler, configPath, logger)

	return &components{
		webhook:    webhook,
		admin:      adminServer,
		dispatcher: dispatcher,
		followUps:  followUps,
	}
}
