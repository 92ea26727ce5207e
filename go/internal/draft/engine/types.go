package engine

import "strings"

// Scope is the draft type a connection was opened for, and the scope an event is routed to.
type Scope string

const (
	ScopeCiv Scope = "civ"
	ScopeMap Scope = "map"
)

// ParseScope accepts "civ" or "map" in any case.
func ParseScope(s string) (Scope, bool) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeCiv:
		return ScopeCiv, true
	case ScopeMap:
		return ScopeMap, true
	default:
		return "", false
	}
}

type Actor string

const (
	ActorHost  Actor = "HOST"
	ActorGuest Actor = "GUEST"
	ActorNone  Actor = "NONE"
)

// ParseActor maps the vendor player field. Unknown values report false.
func ParseActor(s string) (Actor, bool) {
	switch Actor(strings.ToUpper(strings.TrimSpace(s))) {
	case ActorHost:
		return ActorHost, true
	case ActorGuest:
		return ActorGuest, true
	case ActorNone:
		return ActorNone, true
	default:
		return "", false
	}
}

type ActionKind string

const (
	ActionPick  ActionKind = "PICK"
	ActionBan   ActionKind = "BAN"
	ActionSnipe ActionKind = "SNIPE"
)

// ParseActionKind upper-cases the vendor action type. Actions the engine does not route
// (steal, reveal, nothing, ...) are kept as-is and classified as no-ops later.
func ParseActionKind(s string) (ActionKind, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	return ActionKind(s), true
}

const (
	// HiddenOption is the placeholder stored in a list until the real option is revealed.
	// The vendor sends ids such as HIDDEN_BAN; anything with this prefix is hidden.
	HiddenOption = "HIDDEN"

	// CivNamespace prefixes every civilization option id.
	CivNamespace = "aoe4."
)

// DraftEvent is one draft action after it has been read off the wire.
type DraftEvent struct {
	Actor    Actor      `json:"actor"`
	Action   ActionKind `json:"action"`
	OptionID string     `json:"optionId"`
}

// IsHidden reports whether an option id is a concealed placeholder.
func IsHidden(optionID string) bool {
	return strings.HasPrefix(optionID, HiddenOption)
}
