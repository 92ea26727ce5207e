package engine

import (
	"fmt"
	"slices"
	"strings"
)

type SeriesFormat string

const (
	FormatUnset SeriesFormat = ""
	FormatBo1   SeriesFormat = "bo1"
	FormatBo3   SeriesFormat = "bo3"
	FormatBo5   SeriesFormat = "bo5"
	FormatBo7   SeriesFormat = "bo7"
)

var gameCounts = map[SeriesFormat]int{
	FormatBo1: 1,
	FormatBo3: 3,
	FormatBo5: 5,
	FormatBo7: 7,
}

// ParseSeriesFormat accepts bo1/bo3/bo5/bo7 in any case; an empty string unsets the format.
func ParseSeriesFormat(s string) (SeriesFormat, error) {
	f := SeriesFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == FormatUnset {
		return FormatUnset, nil
	}
	if _, ok := gameCounts[f]; !ok {
		return FormatUnset, fmt.Errorf("%w: %q", ErrInvalidSeriesFormat, s)
	}
	return f, nil
}

// GameCount is the number of slots of the format, zero when unset.
func (f SeriesFormat) GameCount() int {
	return gameCounts[f]
}

type Side string

const (
	SideHost  Side = "HOST"
	SideGuest Side = "GUEST"
)

func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideHost:
		return SideHost, true
	case SideGuest:
		return SideGuest, true
	default:
		return "", false
	}
}

// SeriesGameSlot is one game of the series. Nil fields render as empty.
type SeriesGameSlot struct {
	Map      *string `json:"map"`
	HostCiv  *string `json:"hostCiv"`
	GuestCiv *string `json:"guestCiv"`
	Winner   *Side   `json:"winner"`
}

type GameField string

const (
	FieldMap      GameField = "map"
	FieldHostCiv  GameField = "hostCiv"
	FieldGuestCiv GameField = "guestCiv"
)

func ParseGameField(s string) (GameField, error) {
	switch f := GameField(s); f {
	case FieldMap, FieldHostCiv, FieldGuestCiv:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGameField, s)
}

// SlotInput carries everything the slot calculation reads.
type SlotInput struct {
	Format         SeriesFormat
	PreviousFormat SeriesFormat
	Previous       []SeriesGameSlot
	HostCivPicks   []string
	GuestCivPicks  []string
	HostMapPicks   []string
	GuestMapPicks  []string
	GlobalMapPicks []string
}

// CalculateSeriesSlots derives the series games from the pick lists. Maps come from the
// host, guest and global map picks in that order without duplicates. Winners carry over
// by index while the format is unchanged and are dropped when it changes.
func CalculateSeriesSlots(in SlotInput) []SeriesGameSlot {
	count := in.Format.GameCount()
	slots := make([]SeriesGameSlot, count)
	if count == 0 {
		return slots
	}

	previous := in.Previous
	if in.Format != in.PreviousFormat {
		previous = nil
	}

	maps := dedupe(in.HostMapPicks, in.GuestMapPicks, in.GlobalMapPicks)
	for i := range slots {
		slots[i] = SeriesGameSlot{
			Map:      at(maps, i),
			HostCiv:  at(in.HostCivPicks, i),
			GuestCiv: at(in.GuestCivPicks, i),
		}
		if i < len(previous) && previous[i].Winner != nil {
			w := *previous[i].Winner
			slots[i].Winner = &w
		}
	}
	return slots
}

// SetWinner returns a copy of slots with the winner of game index replaced.
func SetWinner(slots []SeriesGameSlot, index int, winner *Side) ([]SeriesGameSlot, error) {
	if index < 0 || index >= len(slots) {
		return slots, fmt.Errorf("%w: %d of %d", ErrGameIndex, index, len(slots))
	}
	out := CloneSlots(slots)
	out[index].Winner = cloneSide(winner)
	return out, nil
}

// SetField returns a copy of slots with one map or civilization field overridden.
func SetField(slots []SeriesGameSlot, index int, field GameField, value *string) ([]SeriesGameSlot, error) {
	if index < 0 || index >= len(slots) {
		return slots, fmt.Errorf("%w: %d of %d", ErrGameIndex, index, len(slots))
	}
	out := CloneSlots(slots)
	v := cloneString(value)
	switch field {
	case FieldMap:
		out[index].Map = v
	case FieldHostCiv:
		out[index].HostCiv = v
	case FieldGuestCiv:
		out[index].GuestCiv = v
	default:
		return slots, fmt.Errorf("%w: %q", ErrUnknownGameField, field)
	}
	return out, nil
}

// SlotsEqual compares slots by value. Nil and empty are equal.
func SlotsEqual(a, b []SeriesGameSlot) bool {
	return slices.EqualFunc(a, b, func(x, y SeriesGameSlot) bool {
		return ptrEqual(x.Map, y.Map) &&
			ptrEqual(x.HostCiv, y.HostCiv) &&
			ptrEqual(x.GuestCiv, y.GuestCiv) &&
			ptrEqual(x.Winner, y.Winner)
	})
}

func CloneSlots(slots []SeriesGameSlot) []SeriesGameSlot {
	if slots == nil {
		return nil
	}
	out := make([]SeriesGameSlot, len(slots))
	for i, s := range slots {
		out[i] = SeriesGameSlot{
			Map:      cloneString(s.Map),
			HostCiv:  cloneString(s.HostCiv),
			GuestCiv: cloneString(s.GuestCiv),
			Winner:   cloneSide(s.Winner),
		}
	}
	return out
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if name == HiddenOption {
				out = append(out, name)
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// at returns the name at i; concealed placeholders read as empty.
func at(list []string, i int) *string {
	if i >= len(list) || list[i] == HiddenOption {
		return nil
	}
	v := list[i]
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSide(p *Side) *Side {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
