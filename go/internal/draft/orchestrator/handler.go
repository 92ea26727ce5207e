package orchestrator

import (
	"fmt"

	"github.com/mcdev12/draftcast/go/clients/aoe2cm_client"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

// handleMessage is the single dispatch point for push-channel messages.
func (o *Orchestrator) handleMessage(cc connContext, msg aoe2cm_client.Message) {
	switch m := msg.(type) {
	case aoe2cm_client.FullState:
		o.handleFullState(cc, &m.Draft)
	case aoe2cm_client.PlayerEvent:
		o.handlePlayerEvent(cc, m)
	case aoe2cm_client.RevealBans:
		o.handleRevealBans(cc, m)
	case aoe2cm_client.Finished:
		o.handleFinished(cc)
	default:
		log.Warn().
			Str("draft_type", string(cc.scope)).
			Str("message", fmt.Sprintf("%T", msg)).
			Msg("unknown live message - ignoring")
	}
}

func (o *Orchestrator) handleFullState(cc connContext, draft *aoe2cm_client.Draft) {
	o.update(cc, func(s *draftSlot) bool {
		return o.mergeDraft(cc, s, draft)
	})
}

func (o *Orchestrator) handlePlayerEvent(cc connContext, m aoe2cm_client.PlayerEvent) {
	wire, err := aoe2cm_client.DecodeEvent(m.Event)
	if err != nil {
		warnEvents(cc, []error{fmt.Errorf("%w: %w", engine.ErrMalformedEvent, err)})
		return
	}
	ev, err := toDraftEvent(wire)
	if err != nil {
		warnEvents(cc, []error{err})
		return
	}

	o.update(cc, func(s *draftSlot) bool {
		next, changed, err := engine.Reduce(s.lists, ev, s.options, cc.scope)
		if err != nil {
			warnEvents(cc, []error{err})
			return false
		}
		if !changed {
			return false
		}
		s.lists = next
		o.seriesStale = true
		log.Debug().
			Str("draft_type", string(cc.scope)).
			Str("actor", string(ev.Actor)).
			Str("action", string(ev.Action)).
			Str("option_id", ev.OptionID).
			Msg("applied live event")
		return true
	})
}

func (o *Orchestrator) handleRevealBans(cc connContext, m aoe2cm_client.RevealBans) {
	events, errs := toDraftEvents(m.Events)
	warnEvents(cc, errs)

	o.update(cc, func(s *draftSlot) bool {
		next, changed, errs := engine.Reveal(s.lists, events, s.options, cc.scope)
		warnEvents(cc, errs)
		if !changed {
			return false
		}
		s.lists = next
		o.seriesStale = true
		return true
	})
}

func (o *Orchestrator) handleFinished(cc connContext) {
	o.update(cc, func(s *draftSlot) bool {
		if s.conn.Finished {
			return false
		}
		s.conn.Finished = true
		log.Info().Str("draft_type", string(cc.scope)).Str("draft_id", cc.draftID).Msg("draft finished")
		return true
	})
}

// mergeDraft folds a full draft state into the slot. Callers hold o.mu. A state without
// an option table keeps resolving names with the table seen last.
func (o *Orchestrator) mergeDraft(cc connContext, s *draftSlot, draft *aoe2cm_client.Draft) bool {
	changed := false
	if len(draft.Preset.DraftOptions) > 0 {
		s.options = toOptionTable(draft.Preset.DraftOptions)
	}

	events, errs := toDraftEvents(draft.Events)
	warnEvents(cc, errs)
	merged, ok, errs := engine.MergeSnapshot(s.lists, events, s.options, cc.scope)
	warnEvents(cc, errs)
	if ok {
		s.lists = merged
		o.seriesStale = true
		changed = true
	}

	if draft.NameHost != "" && draft.NameHost != s.conn.NameHost {
		s.conn.NameHost = draft.NameHost
		changed = true
	}
	if draft.NameGuest != "" && draft.NameGuest != s.conn.NameGuest {
		s.conn.NameGuest = draft.NameGuest
		changed = true
	}
	if o.session.HostName == "" && s.conn.NameHost != "" {
		o.session.HostName = s.conn.NameHost
		changed = true
	}
	if o.session.GuestName == "" && s.conn.NameGuest != "" {
		o.session.GuestName = s.conn.NameGuest
		changed = true
	}
	return changed
}
