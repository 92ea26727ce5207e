package engine

import "slices"

type ListKind string

const (
	HostPicks   ListKind = "hostPicks"
	HostBans    ListKind = "hostBans"
	GuestPicks  ListKind = "guestPicks"
	GuestBans   ListKind = "guestBans"
	GlobalPicks ListKind = "globalPicks"
	GlobalBans  ListKind = "globalBans"
)

// AllLists is the fixed iteration order for the six lists.
var AllLists = []ListKind{HostPicks, HostBans, GuestPicks, GuestBans, GlobalPicks, GlobalBans}

var (
	pickGroup = []ListKind{HostPicks, GuestPicks, GlobalPicks}
	banGroup  = []ListKind{HostBans, GuestBans, GlobalBans}
)

func (k ListKind) IsBan() bool {
	return k == HostBans || k == GuestBans || k == GlobalBans
}

func (k ListKind) group() []ListKind {
	if k.IsBan() {
		return banGroup
	}
	return pickGroup
}

// PickBanLists holds the six ordered lists of one scope. Slices are never mutated in
// place once published: every change copies the touched slice, so an unchanged value can
// be compared and shared freely.
type PickBanLists struct {
	HostPicks   []string `json:"hostPicks"`
	HostBans    []string `json:"hostBans"`
	GuestPicks  []string `json:"guestPicks"`
	GuestBans   []string `json:"guestBans"`
	GlobalPicks []string `json:"globalPicks"`
	GlobalBans  []string `json:"globalBans"`
}

func (l PickBanLists) Get(k ListKind) []string {
	switch k {
	case HostPicks:
		return l.HostPicks
	case HostBans:
		return l.HostBans
	case GuestPicks:
		return l.GuestPicks
	case GuestBans:
		return l.GuestBans
	case GlobalPicks:
		return l.GlobalPicks
	case GlobalBans:
		return l.GlobalBans
	}
	return nil
}

func (l *PickBanLists) set(k ListKind, v []string) {
	switch k {
	case HostPicks:
		l.HostPicks = v
	case HostBans:
		l.HostBans = v
	case GuestPicks:
		l.GuestPicks = v
	case GuestBans:
		l.GuestBans = v
	case GlobalPicks:
		l.GlobalPicks = v
	case GlobalBans:
		l.GlobalBans = v
	}
}

// Contains reports whether name is already recorded in the pick or ban group of k.
func (l PickBanLists) Contains(k ListKind, name string) bool {
	for _, g := range k.group() {
		if slices.Contains(l.Get(g), name) {
			return true
		}
	}
	return false
}

// Insert appends name to list k unless the group already holds it. Hidden placeholders
// are always appended since each one stands for a distinct concealed action.
func (l PickBanLists) Insert(k ListKind, name string) (PickBanLists, bool) {
	if name != HiddenOption && l.Contains(k, name) {
		return l, false
	}
	l.set(k, appendCopy(l.Get(k), name))
	return l, true
}

// Merge folds src into l with append-if-absent semantics so replaying a snapshot that is
// already reflected is a no-op. Positions are compared chronologically: a hidden entry in
// src is covered by any entry at the same index of l, and a real name in src replaces a
// placeholder sitting at its index in l.
func (l PickBanLists) Merge(src PickBanLists) (PickBanLists, bool) {
	changed := false
	for _, k := range AllLists {
		for i, name := range src.Get(k) {
			cur := l.Get(k)
			if name == HiddenOption {
				if i < len(cur) {
					continue
				}
				l.set(k, appendCopy(cur, name))
				changed = true
				continue
			}
			if l.Contains(k, name) {
				continue
			}
			if i < len(cur) && cur[i] == HiddenOption {
				next := slices.Clone(cur)
				next[i] = name
				l.set(k, next)
			} else {
				l.set(k, appendCopy(cur, name))
			}
			changed = true
		}
	}
	return l, changed
}

// Claimed returns every real option name present in any list.
func (l PickBanLists) Claimed() map[string]struct{} {
	out := make(map[string]struct{})
	for _, k := range AllLists {
		for _, name := range l.Get(k) {
			if name == HiddenOption {
				continue
			}
			out[name] = struct{}{}
		}
	}
	return out
}

func (l PickBanLists) Equal(o PickBanLists) bool {
	for _, k := range AllLists {
		if !slices.Equal(l.Get(k), o.Get(k)) {
			return false
		}
	}
	return true
}

func (l PickBanLists) Clone() PickBanLists {
	var out PickBanLists
	for _, k := range AllLists {
		out.set(k, slices.Clone(l.Get(k)))
	}
	return out
}

// Normalized replaces nil lists with empty ones so JSON renders [] instead of null.
func (l PickBanLists) Normalized() PickBanLists {
	for _, k := range AllLists {
		if l.Get(k) == nil {
			l.set(k, []string{})
		}
	}
	return l
}

func appendCopy(list []string, name string) []string {
	out := make([]string, len(list), len(list)+1)
	copy(out, list)
	return append(out, name)
}
