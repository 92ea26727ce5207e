package presets

import (
	"context"
	"sort"
	"sync"

	"github.com/mcdev12/draftcast/go/internal/draft/engine"
)

// MemoryRepository keeps presets for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	presets map[string]engine.Preset
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{presets: make(map[string]engine.Preset)}
}

func (r *MemoryRepository) Save(ctx context.Context, p engine.Preset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.presets[p.ID]; ok && !existing.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	r.presets[p.ID] = p.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (engine.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[id]
	if !ok {
		return engine.Preset{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]engine.Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]engine.Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.presets[id]; !ok {
		return ErrNotFound
	}
	delete(r.presets, id)
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
