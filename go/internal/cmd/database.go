package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/draftcast/go/internal/config"
	"github.com/mcdev12/draftcast/go/internal/presets"
	"github.com/rs/zerolog/log"
)

func setupPresetStore(ctx context.Context, cfg config.PresetConfig) (presets.Repository, error) {
	store, err := presets.Open(ctx, cfg.Store, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset store: %w", err)
	}

	log.Info().
		Str("store", cfg.Store).
		Bool("autosave", cfg.AutoSave).
		Msg("preset store ready")
	return store, nil
}
