package presets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/pressly/goose/v3"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := runMigrations(db, goose.DialectPostgres); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, p engine.Preset) error {
	rec, err := toRow(p)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO presets (id, name, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.Name, rec.Payload, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save preset %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (engine.Preset, error) {
	var rec row
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, payload, created_at, updated_at FROM presets WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.Preset{}, ErrNotFound
	}
	if err != nil {
		return engine.Preset{}, fmt.Errorf("get preset %s: %w", id, err)
	}
	return rec.preset()
}

func (r *PostgresRepository) List(ctx context.Context) ([]engine.Preset, error) {
	rows, err := r.pool.Query(ctx,
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM presets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete preset %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
