package presets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/draftcast/go/internal/draft/engine"
)

var ErrNotFound = errors.New("preset not found")

// Repository persists presets. Get and Delete return ErrNotFound for unknown ids.
type Repository interface {
	Save(ctx context.Context, p engine.Preset) error
	Get(ctx context.Context, id string) (engine.Preset, error)
	List(ctx context.Context) ([]engine.Preset, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the repository for driver.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryRepository(), nil
	case DriverSQLite, "":
		return NewSQLiteRepository(dsn)
	case DriverPostgres:
		return NewPostgresRepository(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown preset store %q", driver)
	}
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// row is the stored shape shared by the SQL repositories.
type row struct {
	ID        string
	Name      string
	Payload   string
	CreatedAt string
	UpdatedAt string
}

func toRow(p engine.Preset) (row, error) {
	payload, err := json.Marshal(p.SessionState)
	if err != nil {
		return row{}, fmt.Errorf("marshal preset payload: %w", err)
	}
	return row{
		ID:        p.ID,
		Name:      p.Name,
		Payload:   string(payload),
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}, nil
}

func (r row) preset() (engine.Preset, error) {
	p := engine.Preset{ID: r.ID, Name: r.Name}
	if err := json.Unmarshal([]byte(r.Payload), &p.SessionState); err != nil {
		return engine.Preset{}, fmt.Errorf("unmarshal preset %s payload: %w", r.ID, err)
	}
	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, r.CreatedAt); err != nil {
		return engine.Preset{}, fmt.Errorf("parse preset %s created_at: %w", r.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, r.UpdatedAt); err != nil {
		return engine.Preset{}, fmt.Errorf("parse preset %s updated_at: %w", r.ID, err)
	}
	return p, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}
