package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-gradebook/internal/app"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/logger"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	validate := validator.New()
	store, closeStore, err := app.OpenStore(ctx, cfg, validate, logr, repository.WithReadOnly())
	if err != nil {
		logr.Sugar().Fatalw("failed to open records", "error", err)
	}
	defer closeStore() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to open report storage", "error", err)
	}
	reports := service.NewReportService(store, cfg.Grading.PassThreshold, logr)
	cli := &commandLine{
		out:       os.Stdout,
		apiURL:    fmt.Sprintf("http://localhost:%d%s", cfg.Port, cfg.APIPrefix),
		registrar: newAPIRegistrar,
		exports: service.NewExportService(reports, files,
			storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
			service.ExportConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Reports.Retention}, logr),
	}

	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		logr.Sugar().Errorw("command failed", "error", err)
		os.Exit(1) //nolint:gocritic
	}
}
