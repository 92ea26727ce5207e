package orchestrator

import "github.com/rs/zerolog/log"

// consume applies channel messages in receipt order until the channel ends.
func (o *Orchestrator) consume(cc connContext, ch Channel) {
	defer o.wg.Done()

	count := 0
	for msg := range ch.Messages() {
		o.handleMessage(cc, msg)
		count++
	}

	log.Debug().
		Str("draft_type", string(cc.scope)).
		Str("draft_id", cc.draftID).
		Int("messages", count).
		Msg("live channel drained")
	o.handleDisconnect(cc, ch.Err())
}
