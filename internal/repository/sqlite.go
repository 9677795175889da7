package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/quake-explorer/internal/models"
)

const defaultListLimit = 50

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			controls BLOB NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_presets_created_at ON presets(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Add stores p, assigning an ID and creation time when they are unset.
func (s *SQLiteDB) Add(ctx context.Context, p *models.Preset) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO presets (id, name, controls, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, []byte(p.Controls), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting preset: %w", err)
	}
	return nil
}

// GetByID returns nil without error when no preset has that id.
func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, controls, created_at FROM presets WHERE id = ?`, id)

	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying preset: %w", err)
	}
	return p, nil
}

// List returns presets newest first.
func (s *SQLiteDB) List(ctx context.Context, limit int) ([]models.Preset, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, controls, created_at FROM presets ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing presets: %w", err)
	}
	defer rows.Close()

	var presets []models.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning preset: %w", err)
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

func (s *SQLiteDB) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting preset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*models.Preset, error) {
	var (
		p        models.Preset
		controls []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &controls, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Controls = controls
	return &p, nil
}
