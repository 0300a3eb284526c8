package database

import (
	"context"
	"fmt"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/models"
)

// DB interface defines the methods our scan store should implement
type DB interface {
	// SaveScan inserts or replaces a scan
	SaveScan(ctx context.Context, scan *models.ScanResult) error
	// GetScan returns nil, nil when no scan has the id
	GetScan(ctx context.Context, id string) (*models.ScanResult, error)
	// DeleteScan reports whether a scan was removed
	DeleteScan(ctx context.Context, id string) (bool, error)
	// GetHistory returns a user's scans newest first. An empty userID
	// returns scans of every user.
	GetHistory(ctx context.Context, userID string, limit int) ([]models.ScanResult, error)
	// UpdateImageURI sets the stored image location of a scan
	UpdateImageURI(ctx context.Context, id, uri string) error
	Close() error
}

// Open connects to the configured database driver
func Open(ctx context.Context, cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteDB(cfg.Path)
	case "mongo":
		return NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
