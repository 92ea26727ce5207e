package engine

import (
	"fmt"
	"strings"
)

// Route is where a classified event lands. Scope is resolved once here and carried with
// the event from then on.
type Route struct {
	Scope  Scope
	Target ListKind
}

// ClassifyScope decides whether an option belongs to civilizations or maps.
func ClassifyScope(optionID string, socketScope Scope) (Scope, error) {
	switch {
	case IsHidden(optionID):
		if socketScope == "" {
			return "", fmt.Errorf("%w: hidden option on unscoped connection", ErrUnclassifiableEvent)
		}
		return socketScope, nil
	case strings.HasPrefix(optionID, CivNamespace):
		return ScopeCiv, nil
	case optionID != "":
		return ScopeMap, nil
	case socketScope != "":
		return socketScope, nil
	default:
		return "", fmt.Errorf("%w: empty option id on unscoped connection", ErrUnclassifiableEvent)
	}
}

// Classify resolves the scope and target list of an event. Actor/action combinations
// without a defined routing (SNIPE by NONE, steal, reveal, ...) return ErrUnroutableEvent.
func Classify(ev DraftEvent, socketScope Scope) (Route, error) {
	scope, err := ClassifyScope(ev.OptionID, socketScope)
	if err != nil {
		return Route{}, err
	}
	target, ok := targetList(ev.Actor, ev.Action)
	if !ok {
		return Route{Scope: scope}, fmt.Errorf("%w: %s by %s", ErrUnroutableEvent, ev.Action, ev.Actor)
	}
	return Route{Scope: scope, Target: target}, nil
}

func targetList(actor Actor, action ActionKind) (ListKind, bool) {
	switch action {
	case ActionPick:
		switch actor {
		case ActorHost:
			return HostPicks, true
		case ActorGuest:
			return GuestPicks, true
		case ActorNone:
			return GlobalPicks, true
		}
	case ActionBan:
		switch actor {
		case ActorHost:
			return HostBans, true
		case ActorGuest:
			return GuestBans, true
		case ActorNone:
			return GlobalBans, true
		}
	case ActionSnipe:
		// A snipe removes the option from the opponent, so it lands in their ban list.
		switch actor {
		case ActorHost:
			return GuestBans, true
		case ActorGuest:
			return HostBans, true
		}
	}
	return "", false
}
