package orchestrator

import (
	"fmt"

	"github.com/mcdev12/draftcast/go/clients/aoe2cm_client"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

func toDraftEvent(ev aoe2cm_client.DraftEvent) (engine.DraftEvent, error) {
	actor, ok := engine.ParseActor(ev.Player)
	if !ok {
		return engine.DraftEvent{}, fmt.Errorf("%w: unknown player %q", engine.ErrMalformedEvent, ev.Player)
	}
	action, ok := engine.ParseActionKind(ev.ActionType)
	if !ok {
		return engine.DraftEvent{}, fmt.Errorf("%w: missing action type", engine.ErrMalformedEvent)
	}
	return engine.DraftEvent{
		Actor:    actor,
		Action:   action,
		OptionID: ev.ChosenOptionID,
	}, nil
}

// toDraftEvents converts a wire event list, skipping entries that cannot be read.
func toDraftEvents(list aoe2cm_client.EventList) ([]engine.DraftEvent, []error) {
	wire, errs := list.Decode()
	for i, err := range errs {
		errs[i] = fmt.Errorf("%w: %w", engine.ErrMalformedEvent, err)
	}
	events := make([]engine.DraftEvent, 0, len(wire))
	for _, w := range wire {
		ev, err := toDraftEvent(w)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

func toOptionTable(options []aoe2cm_client.DraftOption) *engine.OptionTable {
	converted := make([]engine.DraftOption, 0, len(options))
	for _, o := range options {
		converted = append(converted, engine.DraftOption{ID: o.ID, Name: o.Name})
	}
	return engine.NewOptionTable(converted)
}

// warnEvents logs per-event problems. They never abort the batch they came from.
func warnEvents(cc connContext, errs []error) {
	for _, err := range errs {
		log.Warn().
			Err(err).
			Str("draft_type", string(cc.scope)).
			Str("draft_id", cc.draftID).
			Msg("skipping draft event")
	}
}

func logPresetError(err error, presetID, msg string) {
	log.Error().Err(err).Str("preset_id", presetID).Msg(msg)
}
