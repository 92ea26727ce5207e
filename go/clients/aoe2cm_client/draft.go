package aoe2cm_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// DraftEvent is one entry of a draft's event log as the service sends it.
type DraftEvent struct {
	Player           string `json:"player"`
	ExecutingPlayer  string `json:"executingPlayer"`
	ActionType       string `json:"actionType"`
	ChosenOptionID   string `json:"chosenOptionId"`
	IsRandomlyChosen bool   `json:"isRandomlyChosen"`
	Offset           int64  `json:"offset"`
}

type DraftOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Turn struct {
	Player          string `json:"player"`
	ExecutingPlayer string `json:"executingPlayer"`
	Action          string `json:"action"`
	Hidden          bool   `json:"hidden"`
}

type Preset struct {
	Name         string        `json:"name"`
	PresetID     string        `json:"presetId"`
	DraftOptions []DraftOption `json:"draftOptions"`
	Turns        []Turn        `json:"turns"`
}

// EventList keeps events undecoded so one bad entry does not reject the whole draft.
type EventList []json.RawMessage

// Decode returns every well-formed event in order together with one error per entry that
// could not be decoded.
func (l EventList) Decode() ([]DraftEvent, []error) {
	events := make([]DraftEvent, 0, len(l))
	var errs []error
	for i, raw := range l {
		ev, err := DecodeEvent(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i, err))
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

func DecodeEvent(raw json.RawMessage) (DraftEvent, error) {
	var ev DraftEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return DraftEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}

type Draft struct {
	NameHost  string    `json:"nameHost"`
	NameGuest string    `json:"nameGuest"`
	Events    EventList `json:"events"`
	Preset    Preset    `json:"preset"`
	Ongoing   bool      `json:"ongoing"`
}

// GetDraft fetches the full state of a draft.
func (c *Aoe2cmClient) GetDraft(ctx context.Context, draftID string) (*Draft, error) {
	body, err := c.Get(ctx, DraftEndpoint+url.PathEscape(draftID))
	if err != nil {
		return nil, fmt.Errorf("failed to get draft %s: %w", draftID, err)
	}

	var draft Draft
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &draft, nil
}
