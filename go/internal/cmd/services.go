package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/draftcast/go/clients/aoe2cm_client"
	"github.com/mcdev12/draftcast/go/internal/config"
	"github.com/mcdev12/draftcast/go/internal/draft/gateway"
	"github.com/mcdev12/draftcast/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftcast/go/internal/mirror"
	"github.com/mcdev12/draftcast/go/internal/presets"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Services struct {
	Presets      presets.Repository
	Orchestrator *orchestrator.Orchestrator
	Gateway      *gateway.Service
	Mirror       *mirror.Mirror

	nats *nats.Conn
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Wire up the chain
	// vendor client → orchestrator (session store) → gateway / mirror

	client := aoe2cm_client.NewAoe2cmClient(cfg.Aoe2cm.APIURL, aoe2cm_client.WithSocketURL(cfg.Aoe2cm.SocketURL))
	client.SetTimeout(cfg.Aoe2cm.HTTPTimeout)

	store, err := setupPresetStore(ctx, cfg.Presets)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.NewOrchestrator(
		client,
		orchestrator.VendorDialer(client),
		store,
		orchestrator.Config{
			FallbackDelay:  cfg.FallbackDelay,
			AutoSavePreset: cfg.Presets.AutoSave,
		},
	)

	services := &Services{
		Presets:      store,
		Orchestrator: orch,
		Gateway:      gateway.NewService(gateway.DefaultConfig(), orch),
	}

	if cfg.MirrorEnabled() {
		nc, err := mirror.Connect(cfg.Mirror.NATSURL)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.nats = nc
		services.Mirror = mirror.New(nc, cfg.Mirror.Subject, orch)
	}

	log.Info().
		Str("api_url", cfg.Aoe2cm.APIURL).
		Str("socket_url", cfg.Aoe2cm.SocketURL).
		Str("origin", orch.OriginID()).
		Bool("mirror", services.Mirror != nil).
		Msg("services wired")
	return services, nil
}

// Run drives the overlay fan-out and, when enabled, the mirror until ctx is done.
func (s *Services) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Gateway.Start(ctx)
	})
	if s.Mirror != nil {
		g.Go(func() error {
			return s.Mirror.Run(ctx)
		})
	}
	return g.Wait()
}

func (s *Services) Close() error {
	var errs []error
	if s.Orchestrator != nil {
		errs = append(errs, s.Orchestrator.Close())
	}
	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain NATS: %w", err))
		}
	}
	if s.Presets != nil {
		errs = append(errs, s.Presets.Close())
	}
	return errors.Join(errs...)
}
