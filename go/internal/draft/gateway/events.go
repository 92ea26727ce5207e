package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/draftcast/go/internal/draft/orchestrator"
)

// EventType is the kind of message pushed to overlay clients.
type EventType string

const (
	// EventTypeState carries the full session view. It is sent on join and after every change.
	EventTypeState EventType = "state"
)

// OverlayEvent is the envelope written to overlay websockets.
type OverlayEvent struct {
	Type      EventType         `json:"type"`
	Version   uint64            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Data      orchestrator.View `json:"data"`
}

// encodeView marshals a view once for every connection.
func encodeView(v orchestrator.View, now time.Time) ([]byte, error) {
	return json.Marshal(OverlayEvent{
		Type:      EventTypeState,
		Version:   v.Version,
		Timestamp: now.UTC(),
		Data:      v,
	})
}
