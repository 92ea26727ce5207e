package orchestrator

import (
	"context"
	"fmt"

	"github.com/mcdev12/draftcast/go/clients/aoe2cm_client"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

// Connect attaches the draft type to a draft given as a bare id or a vendor URL. It
// fetches the snapshot and, while the draft is ongoing, opens the push channel. A failed
// snapshot fetch falls through to the push channel, which sends its own full state.
// Failures are recorded on the connection; the result only reports success.
func (o *Orchestrator) Connect(ctx context.Context, raw string, scope engine.Scope) bool {
	if _, ok := o.slots[scope]; !ok {
		log.Warn().Str("draft_type", string(scope)).Msg("connect for unknown draft type")
		return false
	}

	draftID, err := engine.ParseDraftID(raw)
	if err != nil {
		log.Warn().Err(err).Str("draft_type", string(scope)).Msg("rejecting draft identifier")
		o.fail(scope, err)
		return false
	}

	cc, stale := o.begin(scope, draftID)
	if stale != nil {
		stale.Close()
	}

	log.Info().
		Str("draft_type", string(scope)).
		Str("draft_id", draftID).
		Uint64("gen", cc.gen).
		Msg("connecting draft")

	draft, err := o.fetcher.GetDraft(ctx, draftID)
	if err != nil {
		log.Warn().
			Err(fmt.Errorf("%w: %w", engine.ErrTransportFetch, err)).
			Str("draft_type", string(scope)).
			Str("draft_id", draftID).
			Msg("snapshot fetch failed, trying live channel")
		if !o.isCurrent(cc) {
			return false
		}
		return o.openChannel(ctx, cc)
	}

	ongoing, ok := o.applySnapshot(cc, draft)
	if !ok {
		return false
	}
	if !ongoing {
		log.Info().Str("draft_type", string(scope)).Str("draft_id", draftID).Msg("draft already finished")
		return true
	}
	return o.openChannel(ctx, cc)
}

// begin starts a new attempt for scope. Lists are kept when the draft id is unchanged so
// reconnects merge into what is already shown. The previous channel is returned for the
// caller to close.
func (o *Orchestrator) begin(scope engine.Scope, draftID string) (connContext, Channel) {
	var (
		cc    connContext
		stale Channel
	)
	o.commit(func() bool {
		s := o.slots[scope]
		s.gen++
		stale = s.detach()
		s.cancelFallback()

		if s.conn.DraftID != draftID {
			s.reset()
			s.conn.DraftID = draftID
			o.seriesStale = true
		}
		s.conn.Status = StatusConnecting
		s.conn.LiveStatus = LiveDisconnected
		s.conn.Error = ""
		s.conn.Finished = false
		s.inFlight = true
		o.session.SetDraftID(scope, draftID)

		cc = connContext{scope: scope, draftID: draftID, gen: s.gen}
		return true
	})
	return cc, stale
}

func (o *Orchestrator) isCurrent(cc connContext) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.current(cc)
	return ok
}

// fail records a connection-level error that happened before any attempt started.
func (o *Orchestrator) fail(scope engine.Scope, err error) {
	o.commit(func() bool {
		s := o.slots[scope]
		s.conn.Status = StatusError
		s.conn.Error = err.Error()
		return true
	})
}

// applySnapshot merges an HTTP snapshot and reports whether the draft is still ongoing.
// ok is false when the attempt went stale while the fetch was running.
func (o *Orchestrator) applySnapshot(cc connContext, draft *aoe2cm_client.Draft) (ongoing bool, ok bool) {
	ok = o.update(cc, func(s *draftSlot) bool {
		o.mergeDraft(cc, s, draft)
		s.conn.Status = StatusConnected
		s.conn.Finished = !draft.Ongoing
		if !draft.Ongoing {
			s.inFlight = false
		}
		return true
	})
	return draft.Ongoing, ok
}

func (o *Orchestrator) openChannel(ctx context.Context, cc connContext) bool {
	if !o.update(cc, func(s *draftSlot) bool {
		s.conn.LiveStatus = LiveConnecting
		return true
	}) {
		return false
	}

	ch, err := o.dialer.Dial(ctx, cc.draftID)
	if err != nil {
		err = fmt.Errorf("%w: %w", engine.ErrChannelConnect, err)
		log.Error().
			Err(err).
			Str("draft_type", string(cc.scope)).
			Str("draft_id", cc.draftID).
			Msg("live channel connect failed")
		o.update(cc, func(s *draftSlot) bool {
			s.conn.Status = StatusError
			s.conn.LiveStatus = LiveError
			s.conn.Error = err.Error()
			s.inFlight = false
			return true
		})
		return false
	}

	attached := o.update(cc, func(s *draftSlot) bool {
		s.channel = ch
		s.inFlight = false
		s.conn.Status = StatusConnected
		s.conn.LiveStatus = LiveLive
		return true
	})
	if !attached {
		ch.Close()
		return false
	}

	log.Info().
		Str("draft_type", string(cc.scope)).
		Str("draft_id", cc.draftID).
		Msg("live channel joined")

	o.wg.Add(1)
	go o.consume(cc, ch)
	return true
}

// Disconnect closes the draft type's connection. Lists stay as they are.
func (o *Orchestrator) Disconnect(scope engine.Scope) {
	var ch Channel
	o.commit(func() bool {
		s, ok := o.slots[scope]
		if !ok {
			return false
		}
		s.gen++
		ch = s.detach()
		s.cancelFallback()
		s.inFlight = false
		s.conn.Status = StatusDisconnected
		s.conn.LiveStatus = LiveDisconnected
		s.conn.Error = ""
		return true
	})
	if ch != nil {
		ch.Close()
	}
	log.Info().Str("draft_type", string(scope)).Msg("draft disconnected")
}

// handleDisconnect runs once the channel of cc has ended.
func (o *Orchestrator) handleDisconnect(cc connContext, cause error) {
	o.update(cc, func(s *draftSlot) bool {
		s.channel = nil
		if cause == nil {
			if s.conn.LiveStatus == LiveLive {
				s.conn.Status = StatusConnected
			}
			s.conn.LiveStatus = LiveDisconnected
			log.Info().
				Str("draft_type", string(cc.scope)).
				Str("draft_id", cc.draftID).
				Msg("live channel closed")
			return true
		}

		err := fmt.Errorf("%w: %w", engine.ErrChannelDisconnect, cause)
		s.conn.Status = StatusError
		s.conn.LiveStatus = LiveError
		s.conn.Error = err.Error()
		log.Error().
			Err(err).
			Str("draft_type", string(cc.scope)).
			Str("draft_id", cc.draftID).
			Bool("finished", s.conn.Finished).
			Msg("live channel dropped")

		if !s.conn.Finished && !s.inFlight {
			o.scheduleFallback(cc, s)
		}
		return true
	})
}

// VendorDialer adapts the vendor client to ChannelDialer.
func VendorDialer(c *aoe2cm_client.Aoe2cmClient) ChannelDialer {
	return dialFunc(func(ctx context.Context, draftID string) (Channel, error) {
		s, err := c.Dial(ctx, draftID)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

type dialFunc func(ctx context.Context, draftID string) (Channel, error)

func (f dialFunc) Dial(ctx context.Context, draftID string) (Channel, error) {
	return f(ctx, draftID)
}
