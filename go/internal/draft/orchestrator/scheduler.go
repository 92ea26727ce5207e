package orchestrator

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// scheduleFallback arms the one-shot refetch that follows an unexpected channel drop.
// Callers hold o.mu. Any earlier fallback for the slot is replaced.
func (o *Orchestrator) scheduleFallback(cc connContext, s *draftSlot) {
	s.cancelFallback()
	timer := o.clock.NewTimer(o.config.FallbackDelay)
	stop := make(chan struct{})
	s.fallback = timer
	s.fallbackStop = stop

	o.wg.Add(1)
	go func(t clockwork.Timer) {
		defer o.wg.Done()
		select {
		case <-t.Chan():
			o.runFallback(cc, t)
		case <-stop:
		case <-o.ctx.Done():
			stopAndDrainTimer(t)
		}
	}(timer)

	log.Info().
		Str("draft_type", string(cc.scope)).
		Str("draft_id", cc.draftID).
		Dur("delay", o.config.FallbackDelay).
		Msg("scheduled snapshot fallback")
}

// runFallback reconnects if the fired timer still belongs to the current attempt. Any
// connect started since the drop bumps the generation, so a stale cc means one is
// already running.
func (o *Orchestrator) runFallback(cc connContext, t clockwork.Timer) {
	o.mu.Lock()
	s, ok := o.current(cc)
	if !ok || s.fallback != t {
		o.mu.Unlock()
		return
	}
	s.fallback = nil
	s.fallbackStop = nil
	o.mu.Unlock()

	if o.ctx.Err() != nil {
		return
	}

	log.Info().
		Str("draft_type", string(cc.scope)).
		Str("draft_id", cc.draftID).
		Msg("running snapshot fallback")
	o.Connect(o.ctx, cc.draftID, cc.scope)
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
