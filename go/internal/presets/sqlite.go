package presets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}
	if err := runMigrations(db, goose.DialectSQLite3); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) Save(ctx context.Context, p engine.Preset) error {
	rec, err := toRow(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO presets (id, name, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save preset %s: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (engine.Preset, error) {
	var rec row
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, payload, created_at, updated_at FROM presets WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Preset{}, ErrNotFound
	}
	if err != nil {
		return engine.Preset{}, fmt.Errorf("get preset %s: %w", id, err)
	}
	return rec.preset()
}

func (r *SQLiteRepository) List(ctx context.Context) ([]engine.Preset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, payload, created_at, updated_at FROM presets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []engine.Preset
	for rows.Next() {
		var rec row
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		p, err := rec.preset()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete preset %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
