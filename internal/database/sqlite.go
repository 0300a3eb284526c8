package database

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/arnavs06/HackNYU/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

var _ DB = (*SQLiteDB)(nil)

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}
	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}
	return nil
}

// SaveScan saves a scan to the database
func (s *SQLiteDB) SaveScan(ctx context.Context, scan *models.ScanResult) error {
	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("encode scan: %w", err)
	}

	query, args, err := sq.Insert("scans").
		Columns("id", "user_id", "created_at", "score", "grade", "material", "country", "image_uri", "payload").
		Values(scan.ID, scan.UserID, formatTime(scan.Timestamp), scan.EcoScore.Score, string(scan.EcoScore.Grade),
			scan.Material, scan.Country, scan.ImageURI, string(payload)).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			created_at = excluded.created_at,
			score = excluded.score,
			grade = excluded.grade,
			material = excluded.material,
			country = excluded.country,
			image_uri = excluded.image_uri,
			payload = excluded.payload`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// GetScan retrieves a scan by id
func (s *SQLiteDB) GetScan(ctx context.Context, id string) (*models.ScanResult, error) {
	query, args, err := sq.Select("payload", "image_uri").From("scans").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var payload, imageURI string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload, &imageURI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select scan: %w", err)
	}
	return decodeScan(payload, imageURI)
}

// DeleteScan removes a scan
func (s *SQLiteDB) DeleteScan(ctx context.Context, id string) (bool, error) {
	query, args, err := sq.Delete("scans").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete scan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete scan: %w", err)
	}
	return n > 0, nil
}

// GetHistory retrieves the most recent scans of a user
func (s *SQLiteDB) GetHistory(ctx context.Context, userID string, limit int) ([]models.ScanResult, error) {
	builder := sq.Select("payload", "image_uri").From("scans").OrderBy("created_at DESC", "rowid DESC")
	if userID != "" {
		builder = builder.Where(sq.Eq{"user_id": userID})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	results := []models.ScanResult{}
	for rows.Next() {
		var payload, imageURI string
		if err := rows.Scan(&payload, &imageURI); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scan, err := decodeScan(payload, imageURI)
		if err != nil {
			return nil, err
		}
		results = append(results, *scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

// UpdateImageURI sets the image location of a scan
func (s *SQLiteDB) UpdateImageURI(ctx context.Context, id, uri string) error {
	query, args, err := sq.Update("scans").Set("image_uri", uri).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update image uri: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func decodeScan(payload, imageURI string) (*models.ScanResult, error) {
	var scan models.ScanResult
	if err := json.Unmarshal([]byte(payload), &scan); err != nil {
		return nil, fmt.Errorf("decode scan: %w", err)
	}
	scan.ImageURI = imageURI
	return &scan, nil
}

// formatTime keeps a fixed width so created_at sorts lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
