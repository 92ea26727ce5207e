package engine

import (
	"fmt"
	"slices"
)

// Reduce applies one incremental event to the lists of socketScope. Events that classify
// into the other scope, duplicates and skips return current unchanged with changed=false.
// A non-nil error is a per-event warning; current is still returned untouched.
func Reduce(current PickBanLists, ev DraftEvent, table *OptionTable, socketScope Scope) (PickBanLists, bool, error) {
	route, err := Classify(ev, socketScope)
	if err != nil {
		return current, false, err
	}
	if socketScope != "" && route.Scope != socketScope {
		return current, false, nil
	}
	if ev.OptionID == "" {
		return current, false, nil
	}
	next, changed := current.Insert(route.Target, displayName(ev.OptionID, table))
	if !changed {
		return current, false, nil
	}
	return next, true, nil
}

// Reveal replaces hidden placeholders with the real options of a reveal batch. Each
// reveal fills the earliest placeholder of its target list so chronology is kept. A reveal
// without a placeholder is reported and skipped; the rest of the batch still applies.
func Reveal(current PickBanLists, reveals []DraftEvent, table *OptionTable, socketScope Scope) (PickBanLists, bool, []error) {
	var (
		errs    []error
		changed bool
		lists   = current
	)
	for _, ev := range reveals {
		if IsHidden(ev.OptionID) || ev.OptionID == "" {
			errs = append(errs, fmt.Errorf("%w: reveal without option id", ErrMalformedEvent))
			continue
		}
		route, err := Classify(ev, socketScope)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if socketScope != "" && route.Scope != socketScope {
			continue
		}
		name := displayName(ev.OptionID, table)
		if lists.Contains(route.Target, name) {
			continue
		}
		list := lists.Get(route.Target)
		idx := slices.Index(list, HiddenOption)
		if idx < 0 {
			errs = append(errs, fmt.Errorf("%w: %s in %s", ErrNoPlaceholder, name, route.Target))
			continue
		}
		next := slices.Clone(list)
		next[idx] = name
		lists.set(route.Target, next)
		changed = true
	}
	if !changed {
		return current, false, errs
	}
	return lists, true, errs
}

func displayName(optionID string, table *OptionTable) string {
	if IsHidden(optionID) {
		return HiddenOption
	}
	return table.Resolve(optionID)
}
