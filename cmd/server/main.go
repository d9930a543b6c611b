package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/lukasbauer/livecaption/internal/app"
)

func main() {
	cfg := app.LoadConfigFromEnv()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		})
		if err != nil {
			logger.Printf("sentry init failed: %v", err)
		} else {
			logger.Printf("sentry initialized (%s)", cfg.Environment)
		}
	}

	if err := run(cfg, logger); err != nil {
		if cfg.SentryDSN != "" {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		logger.Fatalf("livecaption: %v", err)
	}
	sentry.Flush(2 * time.Second)
}

// run builds the app and serves until SIGINT or SIGTERM.
func run(cfg app.Config, logger *log.Logger) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("live captioning: workers=%d detect_language=%t archive=%t",
		cfg.PipelineWorkers, cfg.STTDetectLanguage, cfg.DatabaseURL != "")
	return a.Run(ctx)
}
