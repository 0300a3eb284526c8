package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/arnavs06/HackNYU/internal/auth"
	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/database"
	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/logging"
	"github.com/arnavs06/HackNYU/internal/ml"
	"github.com/arnavs06/HackNYU/internal/scan"
	"github.com/arnavs06/HackNYU/internal/server"
	"github.com/arnavs06/HackNYU/internal/sourcing"
	"github.com/arnavs06/HackNYU/internal/storage"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "ecoscan server:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.New(cfg.Logging.Level)
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	// Initialize database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Impact table
	table := ecoscore.DefaultTable()
	if cfg.Impact.TablePath != "" {
		table, err = ecoscore.LoadTableFile(cfg.Impact.TablePath)
		if err != nil {
			return fmt.Errorf("failed to load impact table: %w", err)
		}
	}

	// Initialize ML service
	model, err := ml.NewModel(cfg.ML, logger)
	if err != nil {
		return fmt.Errorf("failed to create ML model: %w", err)
	}
	if err := model.Load(ctx); err != nil {
		return fmt.Errorf("failed to load ML model: %w", err)
	}
	defer model.Close()

	deps := scan.Deps{
		Model:      model,
		Store:      db,
		Calculator: ecoscore.NewCalculator(table),
		Fetcher:    sourcing.NewPageFetcher(cfg.Fetch, logger),
		Logger:     logger,
		Config:     cfg.Scan,
	}

	if cfg.Vision.Enabled {
		ocr, err := ml.NewVisionOCR(ctx, cfg.Vision)
		if err != nil {
			return err
		}
		deps.OCR = ocr
	}

	if cfg.Lykdat.APIKey != "" {
		lykdat := sourcing.NewLykdat(cfg.Lykdat, logger)
		deps.Tagger = lykdat
		deps.Sourcer = lykdat
	}

	catalog, err := sourcing.OpenCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	deps.Catalog = catalog
	logger.Info("catalog loaded", "items", catalog.Len())

	if cfg.Storage.Bucket != "" {
		images, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create image store: %w", err)
		}
		deps.Images = images
	}

	svc, err := scan.NewService(deps)
	if err != nil {
		return err
	}

	// Initialize and start server
	srv := server.New(svc, auth.NewVerifier(cfg.Auth.JWTSecret), cfg.Server, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
