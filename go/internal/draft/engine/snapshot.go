package engine

// TransformSnapshot replays a full event log into fresh lists for scope. Events that fail
// classification are collected and skipped. For the map scope, a single option left
// unclaimed by every list is added to the global picks since the vendor assigns it
// without emitting an event.
func TransformSnapshot(events []DraftEvent, table *OptionTable, scope Scope) (PickBanLists, []error) {
	lists, errs := ReplaySnapshot(events, table, scope)
	lists, _ = InferLastRemaining(lists, table, scope)
	return lists, errs
}

// ReplaySnapshot folds the event log through Reduce without the last-remaining inference.
func ReplaySnapshot(events []DraftEvent, table *OptionTable, scope Scope) (PickBanLists, []error) {
	var (
		lists PickBanLists
		errs  []error
	)
	for _, ev := range events {
		next, _, err := Reduce(lists, ev, table, scope)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lists = next
	}
	return lists, errs
}

// MergeSnapshot folds a full event log into current. The last-remaining inference runs on
// the merged lists, so claims current already holds (say a ban the snapshot has not caught
// up with) are respected.
func MergeSnapshot(current PickBanLists, events []DraftEvent, table *OptionTable, scope Scope) (PickBanLists, bool, []error) {
	replayed, errs := ReplaySnapshot(events, table, scope)
	merged, changed := current.Merge(replayed)
	merged, inferred := InferLastRemaining(merged, table, scope)
	if !changed && !inferred {
		return current, false, errs
	}
	return merged, true, errs
}

// InferLastRemaining adds the only unclaimed map option to the global picks. Other scopes
// are returned unchanged.
func InferLastRemaining(lists PickBanLists, table *OptionTable, scope Scope) (PickBanLists, bool) {
	if scope != ScopeMap {
		return lists, false
	}
	name, ok := LastRemainingMap(lists, table)
	if !ok {
		return lists, false
	}
	return lists.Insert(GlobalPicks, name)
}

// LastRemainingMap returns the only map option that no list claims, if exactly one is left.
func LastRemainingMap(lists PickBanLists, table *OptionTable) (string, bool) {
	claimed := lists.Claimed()
	var remaining []string
	for _, name := range table.MapOptionNames() {
		if _, ok := claimed[name]; ok {
			continue
		}
		remaining = append(remaining, name)
		if len(remaining) > 1 {
			return "", false
		}
	}
	if len(remaining) != 1 {
		return "", false
	}
	return remaining[0], true
}
