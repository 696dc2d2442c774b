// Команда package-tracker запускает HTTP API учёта клиентов и их пакетов.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	packagetracker "github.com/magabrotheeeer/package-tracker/internal/app/package-tracker"
	"github.com/magabrotheeeer/package-tracker/internal/config"
	"github.com/magabrotheeeer/package-tracker/internal/lib/sl"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting package-tracker", slog.String("env", cfg.Env), slog.String("notification_mode", cfg.Mode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := packagetracker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("package-tracker stopped gracefully")
}
