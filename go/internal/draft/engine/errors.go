package engine

import "errors"

// Connection-level errors are recorded on the draft connection; event-level errors are
// warnings that skip a single event and never abort a batch.
var (
	ErrInvalidIdentifier = errors.New("invalid draft identifier")
	ErrTransportFetch    = errors.New("draft snapshot fetch failed")
	ErrChannelConnect    = errors.New("live channel connect failed")
	ErrChannelDisconnect = errors.New("live channel disconnected unexpectedly")

	ErrMalformedEvent      = errors.New("malformed draft event")
	ErrUnroutableEvent     = errors.New("draft event has no target list")
	ErrUnclassifiableEvent = errors.New("draft event scope cannot be determined")
	ErrNoPlaceholder       = errors.New("no hidden placeholder to reveal")

	ErrInvalidSeriesFormat = errors.New("invalid series format")
	ErrGameIndex           = errors.New("series game index out of range")
	ErrUnknownGameField    = errors.New("unknown series game field")
)
