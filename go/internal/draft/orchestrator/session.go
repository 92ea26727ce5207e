package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

var ErrNoPresetStore = errors.New("no preset store configured")

// SetSeriesFormat changes the series length. Winners are kept only while the format stays
// the same.
func (o *Orchestrator) SetSeriesFormat(raw string) error {
	format, err := engine.ParseSeriesFormat(raw)
	if err != nil {
		return err
	}
	o.commit(func() bool {
		if o.session.SeriesFormat == format {
			return false
		}
		o.session.SeriesFormat = format
		o.seriesStale = true
		return true
	})
	return nil
}

// SetGameWinner records or clears (nil) the winner of one game.
func (o *Orchestrator) SetGameWinner(index int, winner *engine.Side) error {
	var err error
	o.commit(func() bool {
		var slots []engine.SeriesGameSlot
		slots, err = engine.SetWinner(o.session.SeriesGames, index, winner)
		if err != nil || engine.SlotsEqual(slots, o.session.SeriesGames) {
			return false
		}
		o.session.SeriesGames = slots
		return true
	})
	return err
}

// SetGameField overrides the map or a civilization of one game until the lists change.
func (o *Orchestrator) SetGameField(index int, field string, value *string) error {
	f, err := engine.ParseGameField(field)
	if err != nil {
		return err
	}
	o.commit(func() bool {
		var slots []engine.SeriesGameSlot
		slots, err = engine.SetField(o.session.SeriesGames, index, f, value)
		if err != nil || engine.SlotsEqual(slots, o.session.SeriesGames) {
			return false
		}
		o.session.SeriesGames = slots
		return true
	})
	return err
}

func (o *Orchestrator) SetTeamNames(host, guest string) {
	o.commit(func() bool {
		if o.session.HostName == host && o.session.GuestName == guest {
			return false
		}
		o.session.HostName = host
		o.session.GuestName = guest
		return true
	})
}

func (o *Orchestrator) SetScores(host, guest int) {
	o.commit(func() bool {
		next := engine.Scores{Host: host, Guest: guest}
		if o.session.Scores == next {
			return false
		}
		o.session.Scores = next
		return true
	})
}

func (o *Orchestrator) SetColors(host, guest string) {
	o.commit(func() bool {
		next := engine.Colors{Host: host, Guest: guest}
		if o.session.Colors == next {
			return false
		}
		o.session.Colors = next
		return true
	})
}

// SaveAsPreset stores the current session under a new preset and makes it active.
func (o *Orchestrator) SaveAsPreset(ctx context.Context, name string) (engine.Preset, error) {
	if o.presets == nil {
		return engine.Preset{}, ErrNoPresetStore
	}

	o.mu.Lock()
	now := o.clock.Now()
	p := engine.Preset{
		ID:           uuid.New().String(),
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
		SessionState: o.session.Clone(),
	}
	o.mu.Unlock()

	if err := o.presets.Save(ctx, p); err != nil {
		return engine.Preset{}, fmt.Errorf("failed to save preset: %w", err)
	}

	o.commit(func() bool {
		active := p.Clone()
		o.active = &active
		return true
	})
	log.Info().Str("preset_id", p.ID).Str("name", name).Msg("saved preset")
	return p, nil
}

// LoadPreset replaces the session with a saved preset and reconnects its drafts in the
// background. Draft types without an id in the preset are disconnected and cleared.
func (o *Orchestrator) LoadPreset(ctx context.Context, id string) (engine.Preset, error) {
	if o.presets == nil {
		return engine.Preset{}, ErrNoPresetStore
	}
	p, err := o.presets.Get(ctx, id)
	if err != nil {
		return engine.Preset{}, err
	}

	var (
		stale    []Channel
		connects = make(map[engine.Scope]string)
	)
	o.commit(func() bool {
		active := p.Clone()
		o.active = &active
		o.session = p.SessionState.Clone()
		o.slotsFormat = p.SeriesFormat
		o.seriesStale = false

		for scope, s := range o.slots {
			draftID := p.DraftID(scope)
			if draftID == "" {
				s.gen++
				if ch := s.detach(); ch != nil {
					stale = append(stale, ch)
				}
				s.cancelFallback()
				s.reset()
				continue
			}
			connects[scope] = draftID
		}
		return true
	})
	for _, ch := range stale {
		ch.Close()
	}

	for scope, draftID := range connects {
		o.wg.Add(1)
		go func(scope engine.Scope, draftID string) {
			defer o.wg.Done()
			o.Connect(o.ctx, draftID, scope)
		}(scope, draftID)
	}

	log.Info().Str("preset_id", p.ID).Str("name", p.Name).Msg("loaded preset")
	return p, nil
}

func (o *Orchestrator) ListPresets(ctx context.Context) ([]engine.Preset, error) {
	if o.presets == nil {
		return nil, ErrNoPresetStore
	}
	return o.presets.List(ctx)
}

// DeletePreset removes a preset; deleting the active preset leaves the session unbound.
func (o *Orchestrator) DeletePreset(ctx context.Context, id string) error {
	if o.presets == nil {
		return ErrNoPresetStore
	}
	if err := o.presets.Delete(ctx, id); err != nil {
		return err
	}
	o.commit(func() bool {
		if o.active == nil || o.active.ID != id {
			return false
		}
		o.active = nil
		return true
	})
	return nil
}

// ResetSession disconnects both drafts and clears every list and session field.
func (o *Orchestrator) ResetSession() {
	var stale []Channel
	o.commit(func() bool {
		for _, s := range o.slots {
			s.gen++
			if ch := s.detach(); ch != nil {
				stale = append(stale, ch)
			}
			s.cancelFallback()
			s.reset()
		}
		o.session = engine.SessionState{}
		o.slotsFormat = engine.FormatUnset
		o.seriesStale = false
		o.active = nil
		return true
	})
	for _, ch := range stale {
		ch.Close()
	}
	log.Info().Msg("session reset")
}

// ReplaceFromMirror adopts a view published by another instance. It never touches
// network connections and the result is not saved or mirrored back.
func (o *Orchestrator) ReplaceFromMirror(v View) bool {
	if v.Origin == "" || v.Origin == o.originID {
		return false
	}
	return o.commitFrom(v.Origin, func() bool {
		o.session = v.Session.Clone()
		o.slotsFormat = v.Session.SeriesFormat
		o.seriesStale = false
		for scope, s := range o.slots {
			d, ok := v.Drafts[scope]
			if !ok {
				continue
			}
			s.lists = d.Lists.Clone()
			conn := d.Connection
			conn.DraftType = scope
			if s.channel != nil || s.inFlight {
				// keep our own transport state
				conn.DraftID = s.conn.DraftID
				conn.Status = s.conn.Status
				conn.LiveStatus = s.conn.LiveStatus
				conn.Error = s.conn.Error
			}
			s.conn = conn
		}
		return true
	})
}
