package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/codeassess-api/internal/bootstrap"
	"github.com/noah-isme/codeassess-api/internal/config"
	"github.com/noah-isme/codeassess-api/internal/logger"
)

// Runs a single timeout sweep and exits. Meant for external schedulers such as a Kubernetes CronJob.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dependencies")
	}

	tickCtx, cancel := context.WithTimeout(ctx, cfg.ReaperTickTimeout)
	report, err := container.Reaper.RunOnce(tickCtx)
	cancel()
	container.Close()

	if err != nil {
		log.Error().Err(err).Msg("reaper sweep failed")
		os.Exit(1)
	}

	log.Info().
		Int("scanned", report.Scanned).
		Int("due", report.Due).
		Int("completed", report.Completed).
		Int("no_op", report.NoOp).
		Int("failed", report.Failed).
		Msg("reaper sweep finished")
}
