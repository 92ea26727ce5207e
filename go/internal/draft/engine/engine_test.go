package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pick(actor Actor, id string) DraftEvent {
	return DraftEvent{Actor: actor, Action: ActionPick, OptionID: id}
}

func ban(actor Actor, id string) DraftEvent {
	return DraftEvent{Actor: actor, Action: ActionBan, OptionID: id}
}

func civTable() *OptionTable {
	return NewOptionTable([]DraftOption{
		{ID: "aoe4.English", Name: "aoe4.English"},
		{ID: "aoe4.French", Name: "aoe4.French"},
		{ID: "aoe4.Mongols", Name: "Mongols"},
		{ID: "aoe4.Rus", Name: ""},
	})
}

func TestResolve(t *testing.T) {
	table := NewOptionTable([]DraftOption{
		{ID: "aoe4.HolyRomanEmpire", Name: "aoe4.Holy Roman Empire"},
		{ID: "dry_arabia", Name: "Dry Arabia"},
	})

	tests := []struct {
		name  string
		table *OptionTable
		id    string
		want  string
	}{
		{"table name with prefix", table, "aoe4.HolyRomanEmpire", "Holy Roman Empire"},
		{"table name plain", table, "dry_arabia", "Dry Arabia"},
		{"missing id strips prefix", table, "aoe4.Delhi", "Delhi"},
		{"missing id without prefix", table, "Lipany", "Lipany"},
		{"nil table", nil, "aoe4.Abbasid", "Abbasid"},
		{"empty id", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.table.Resolve(tt.id))
		})
	}
}

func TestOptionTableSkipsDuplicates(t *testing.T) {
	table := NewOptionTable([]DraftOption{
		{ID: "a", Name: "First"},
		{ID: "a", Name: "Second"},
		{ID: "", Name: "Nothing"},
	})
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "First", table.Resolve("a"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		ev      DraftEvent
		socket  Scope
		want    Route
		wantErr error
	}{
		{"host civ pick", pick(ActorHost, "aoe4.English"), ScopeMap, Route{ScopeCiv, HostPicks}, nil},
		{"guest map ban", ban(ActorGuest, "Arabia"), ScopeCiv, Route{ScopeMap, GuestBans}, nil},
		{"global map pick", pick(ActorNone, "Arabia"), ScopeMap, Route{ScopeMap, GlobalPicks}, nil},
		{"global ban", ban(ActorNone, "Arabia"), ScopeMap, Route{ScopeMap, GlobalBans}, nil},
		{"hidden takes socket scope", ban(ActorHost, "HIDDEN_BAN"), ScopeCiv, Route{ScopeCiv, HostBans}, nil},
		{"host snipe hits guest", DraftEvent{ActorHost, ActionSnipe, "aoe4.French"}, ScopeCiv, Route{ScopeCiv, GuestBans}, nil},
		{"guest snipe hits host", DraftEvent{ActorGuest, ActionSnipe, "aoe4.French"}, ScopeCiv, Route{ScopeCiv, HostBans}, nil},
		{"empty id uses socket", pick(ActorHost, ""), ScopeMap, Route{ScopeMap, HostPicks}, nil},
		{"empty id unscoped", pick(ActorHost, ""), "", Route{}, ErrUnclassifiableEvent},
		{"hidden unscoped", ban(ActorHost, HiddenOption), "", Route{}, ErrUnclassifiableEvent},
		{"snipe by none", DraftEvent{ActorNone, ActionSnipe, "aoe4.French"}, ScopeCiv, Route{Scope: ScopeCiv}, ErrUnroutableEvent},
		{"steal", DraftEvent{ActorHost, "STEAL", "aoe4.French"}, ScopeCiv, Route{Scope: ScopeCiv}, ErrUnroutableEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.ev, tt.socket)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduceIdempotent(t *testing.T) {
	table := civTable()
	ev := pick(ActorHost, "aoe4.English")

	once, changed, err := Reduce(PickBanLists{}, ev, table, ScopeCiv)
	require.NoError(t, err)
	assert.True(t, changed)

	twice, changed, err := Reduce(once, ev, table, ScopeCiv)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, once.Equal(twice))
	assert.Equal(t, []string{"English"}, twice.HostPicks)
}

func TestReduceGroupUniqueness(t *testing.T) {
	table := civTable()
	lists, _, err := Reduce(PickBanLists{}, pick(ActorHost, "aoe4.English"), table, ScopeCiv)
	require.NoError(t, err)

	// already picked by host, a guest pick of the same civ is a no-op
	next, changed, err := Reduce(lists, pick(ActorGuest, "aoe4.English"), table, ScopeCiv)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, next.GuestPicks)

	// bans are a separate group
	next, changed, err = Reduce(lists, ban(ActorGuest, "aoe4.English"), table, ScopeCiv)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"English"}, next.GuestBans)
}

func TestReduceOrderPreserved(t *testing.T) {
	table := civTable()
	lists := PickBanLists{}
	for _, id := range []string{"aoe4.French", "aoe4.English", "aoe4.Mongols"} {
		var err error
		lists, _, err = Reduce(lists, ban(ActorHost, id), table, ScopeCiv)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"French", "English", "Mongols"}, lists.HostBans)
}

func TestReduceIgnoresOtherScope(t *testing.T) {
	lists, changed, err := Reduce(PickBanLists{}, pick(ActorHost, "Arabia"), nil, ScopeCiv)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, lists.Equal(PickBanLists{}))
}

func TestReduceSkipDoesNotInsert(t *testing.T) {
	lists, changed, err := Reduce(PickBanLists{}, pick(ActorHost, ""), nil, ScopeCiv)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, lists.HostPicks)
}

func TestReduceUnroutableKeepsBatchChanges(t *testing.T) {
	table := civTable()
	batch := []DraftEvent{
		pick(ActorHost, "aoe4.English"),
		{ActorNone, ActionSnipe, "aoe4.French"},
		pick(ActorGuest, "aoe4.French"),
	}

	lists := PickBanLists{}
	var (
		anyChanged bool
		warnings   []error
	)
	for _, ev := range batch {
		next, changed, err := Reduce(lists, ev, table, ScopeCiv)
		if err != nil {
			warnings = append(warnings, err)
			assert.False(t, changed)
			continue
		}
		lists = next
		anyChanged = anyChanged || changed
	}

	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], ErrUnroutableEvent)
	assert.True(t, anyChanged)
	assert.Equal(t, []string{"English"}, lists.HostPicks)
	assert.Equal(t, []string{"French"}, lists.GuestPicks)
	assert.Empty(t, lists.HostBans)
	assert.Empty(t, lists.GuestBans)
}

func TestReduceSnipeInverted(t *testing.T) {
	lists, changed, err := Reduce(PickBanLists{}, DraftEvent{ActorHost, ActionSnipe, "aoe4.Mongols"}, civTable(), ScopeCiv)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"Mongols"}, lists.GuestBans)
	assert.Empty(t, lists.HostBans)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	base := PickBanLists{HostPicks: make([]string, 1, 8)}
	base.HostPicks[0] = "English"

	next, changed, err := Reduce(base, pick(ActorHost, "aoe4.French"), civTable(), ScopeCiv)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"English"}, base.HostPicks)
	assert.Equal(t, []string{"English", "French"}, next.HostPicks)
}

func TestHiddenBanReveal(t *testing.T) {
	table := civTable()
	lists := PickBanLists{}
	for _, ev := range []DraftEvent{
		ban(ActorHost, "aoe4.English"),
		ban(ActorHost, "HIDDEN_BAN"),
		ban(ActorHost, "aoe4.French"),
	} {
		var err error
		lists, _, err = Reduce(lists, ev, table, ScopeCiv)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"English", HiddenOption, "French"}, lists.HostBans)

	revealed, changed, errs := Reveal(lists, []DraftEvent{ban(ActorHost, "aoe4.Mongols")}, table, ScopeCiv)
	assert.Empty(t, errs)
	assert.True(t, changed)
	assert.Equal(t, []string{"English", "Mongols", "French"}, revealed.HostBans)
	assert.Equal(t, []string{"English", HiddenOption, "French"}, lists.HostBans)
}

func TestRevealWithoutPlaceholder(t *testing.T) {
	table := civTable()
	lists := PickBanLists{
		HostBans:  []string{HiddenOption},
		GuestBans: []string{"English"},
	}

	next, changed, errs := Reveal(lists, []DraftEvent{
		ban(ActorGuest, "aoe4.French"),
		ban(ActorHost, "aoe4.Mongols"),
	}, table, ScopeCiv)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoPlaceholder)
	assert.True(t, changed)
	assert.Equal(t, []string{"Mongols"}, next.HostBans)
	assert.Equal(t, []string{"English"}, next.GuestBans)
}

func TestRevealAlreadyApplied(t *testing.T) {
	lists := PickBanLists{HostBans: []string{"Mongols"}}
	next, changed, errs := Reveal(lists, []DraftEvent{ban(ActorHost, "aoe4.Mongols")}, civTable(), ScopeCiv)
	assert.Empty(t, errs)
	assert.False(t, changed)
	assert.True(t, next.Equal(lists))
}

func TestMergeIdempotent(t *testing.T) {
	src := PickBanLists{
		HostPicks: []string{"English", "French"},
		GuestBans: []string{"Mongols"},
	}
	once, changed := PickBanLists{}.Merge(src)
	assert.True(t, changed)

	twice, changed := once.Merge(src)
	assert.False(t, changed)
	assert.True(t, once.Equal(twice))
}

func TestMergeAfterIncrementals(t *testing.T) {
	current := PickBanLists{HostPicks: []string{"English"}}
	snapshot := PickBanLists{HostPicks: []string{"English", "French"}}

	merged, changed := current.Merge(snapshot)
	assert.True(t, changed)
	assert.Equal(t, []string{"English", "French"}, merged.HostPicks)
}

func TestMergeHiddenPositions(t *testing.T) {
	current := PickBanLists{HostBans: []string{"English", HiddenOption}}

	t.Run("placeholder already covered", func(t *testing.T) {
		merged, changed := current.Merge(PickBanLists{HostBans: []string{"English", HiddenOption}})
		assert.False(t, changed)
		assert.Equal(t, []string{"English", HiddenOption}, merged.HostBans)
	})

	t.Run("revealed snapshot fills placeholder", func(t *testing.T) {
		merged, changed := current.Merge(PickBanLists{HostBans: []string{"English", "French"}})
		assert.True(t, changed)
		assert.Equal(t, []string{"English", "French"}, merged.HostBans)
	})

	t.Run("new placeholder appended", func(t *testing.T) {
		merged, changed := current.Merge(PickBanLists{HostBans: []string{"English", HiddenOption, HiddenOption}})
		assert.True(t, changed)
		assert.Equal(t, []string{"English", HiddenOption, HiddenOption}, merged.HostBans)
	})
}

func TestSnapshotConvergesWithReducer(t *testing.T) {
	table := civTable()
	log := []DraftEvent{
		ban(ActorHost, "aoe4.English"),
		ban(ActorGuest, "aoe4.French"),
		pick(ActorHost, "aoe4.Mongols"),
		pick(ActorGuest, "aoe4.Rus"),
		pick(ActorGuest, "aoe4.Rus"),
		{ActorGuest, ActionSnipe, "aoe4.Mongols"},
		pick(ActorHost, "Arabia"),
		{ActorNone, ActionSnipe, "aoe4.English"},
	}

	snap, errs := TransformSnapshot(log, table, ScopeCiv)
	require.Len(t, errs, 1)

	folded := PickBanLists{}
	for _, ev := range log {
		next, _, err := Reduce(folded, ev, table, ScopeCiv)
		if err != nil {
			continue
		}
		folded = next
	}
	assert.True(t, snap.Equal(folded))
	assert.Equal(t, []string{"Mongols"}, snap.HostPicks)
	assert.Equal(t, []string{"Rus"}, snap.GuestPicks)
	assert.Equal(t, []string{"English", "Mongols"}, snap.HostBans)
}

func mapPreset() (*OptionTable, []string) {
	names := []string{
		"Dry Arabia", "Altai", "Boulder Bay", "Hideout", "Lipany", "Mountain Pass",
		"Four Lakes", "Gorge", "Himeyama", "King of the Hill", "Regions",
	}
	options := make([]DraftOption, 0, len(names))
	for i, n := range names {
		options = append(options, DraftOption{ID: "map_" + string(rune('a'+i)), Name: n})
	}
	options = append(options, DraftOption{ID: "aoe4.English", Name: "English"})
	return NewOptionTable(options), names
}

func TestSnapshotLastRemainingMap(t *testing.T) {
	table, _ := mapPreset()
	log := []DraftEvent{
		ban(ActorHost, "map_a"),
		ban(ActorGuest, "map_b"),
		ban(ActorHost, "map_c"),
		ban(ActorGuest, "map_d"),
		ban(ActorHost, "map_e"),
		ban(ActorGuest, "map_f"),
		pick(ActorHost, "map_g"),
		pick(ActorGuest, "map_h"),
		pick(ActorHost, "map_i"),
		pick(ActorGuest, "map_j"),
	}

	lists, errs := TransformSnapshot(log, table, ScopeMap)
	require.Empty(t, errs)
	assert.Equal(t, []string{"Regions"}, lists.GlobalPicks)

	slots := CalculateSeriesSlots(SlotInput{
		Format:         FormatBo5,
		PreviousFormat: FormatBo5,
		HostMapPicks:   lists.HostPicks,
		GuestMapPicks:  lists.GuestPicks,
		GlobalMapPicks: lists.GlobalPicks,
	})
	require.Len(t, slots, 5)
	require.NotNil(t, slots[4].Map)
	assert.Equal(t, "Regions", *slots[4].Map)
}

func TestSnapshotInferenceOnlyWithSingleRemainder(t *testing.T) {
	table := NewOptionTable([]DraftOption{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}})

	t.Run("one left", func(t *testing.T) {
		lists, _ := TransformSnapshot([]DraftEvent{pick(ActorHost, "A"), pick(ActorGuest, "B")}, table, ScopeMap)
		assert.Equal(t, []string{"C"}, lists.GlobalPicks)
	})

	t.Run("two left", func(t *testing.T) {
		lists, _ := TransformSnapshot([]DraftEvent{pick(ActorHost, "A")}, table, ScopeMap)
		assert.Empty(t, lists.GlobalPicks)
	})

	t.Run("none left", func(t *testing.T) {
		lists, _ := TransformSnapshot([]DraftEvent{pick(ActorHost, "A"), pick(ActorGuest, "B"), ban(ActorHost, "C")}, table, ScopeMap)
		assert.Empty(t, lists.GlobalPicks)
	})

	t.Run("civ scope never infers", func(t *testing.T) {
		civs := NewOptionTable([]DraftOption{{ID: "aoe4.A"}, {ID: "aoe4.B"}})
		lists, _ := TransformSnapshot([]DraftEvent{pick(ActorHost, "aoe4.A")}, civs, ScopeCiv)
		assert.Empty(t, lists.GlobalPicks)
	})
}

func TestMergeSnapshotInfersOnMergedLists(t *testing.T) {
	table := NewOptionTable([]DraftOption{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}})

	live, _ := TransformSnapshot([]DraftEvent{pick(ActorHost, "A"), pick(ActorGuest, "B"), ban(ActorGuest, "C")}, table, ScopeMap)
	require.Equal(t, []string{"C"}, live.GuestBans)
	require.Empty(t, live.GlobalPicks)

	t.Run("lagging snapshot keeps the live ban", func(t *testing.T) {
		merged, changed, errs := MergeSnapshot(live, []DraftEvent{pick(ActorHost, "A"), pick(ActorGuest, "B")}, table, ScopeMap)
		assert.Empty(t, errs)
		assert.False(t, changed)
		assert.Equal(t, []string{"C"}, merged.GuestBans)
		assert.Empty(t, merged.GlobalPicks)
	})

	t.Run("infers from the merged state", func(t *testing.T) {
		var partial PickBanLists
		partial, _ = partial.Insert(HostPicks, "A")
		merged, changed, _ := MergeSnapshot(partial, []DraftEvent{pick(ActorGuest, "B")}, table, ScopeMap)
		assert.True(t, changed)
		assert.Equal(t, []string{"A"}, merged.HostPicks)
		assert.Equal(t, []string{"B"}, merged.GuestPicks)
		assert.Equal(t, []string{"C"}, merged.GlobalPicks)
	})

	t.Run("civ scope never infers", func(t *testing.T) {
		civs := NewOptionTable([]DraftOption{{ID: "aoe4.A"}, {ID: "aoe4.B"}})
		merged, _, _ := MergeSnapshot(PickBanLists{}, []DraftEvent{pick(ActorHost, "aoe4.A")}, civs, ScopeCiv)
		assert.Empty(t, merged.GlobalPicks)
	})
}

func TestSeriesSlots(t *testing.T) {
	host := SideHost
	previous := CalculateSeriesSlots(SlotInput{Format: FormatBo3, HostMapPicks: []string{"A"}})
	previous[2].Winner = &host

	t.Run("winner kept with unchanged format", func(t *testing.T) {
		slots := CalculateSeriesSlots(SlotInput{
			Format:         FormatBo3,
			PreviousFormat: FormatBo3,
			Previous:       previous,
			HostMapPicks:   []string{"B"},
			GuestMapPicks:  []string{"C"},
		})
		require.Len(t, slots, 3)
		require.NotNil(t, slots[2].Winner)
		assert.Equal(t, SideHost, *slots[2].Winner)
		assert.Equal(t, "B", *slots[0].Map)
		assert.Equal(t, "C", *slots[1].Map)
		assert.Nil(t, slots[2].Map)
	})

	t.Run("winner dropped on format change", func(t *testing.T) {
		slots := CalculateSeriesSlots(SlotInput{
			Format:         FormatBo5,
			PreviousFormat: FormatBo3,
			Previous:       previous,
		})
		require.Len(t, slots, 5)
		assert.Nil(t, slots[2].Winner)
	})

	t.Run("unset format", func(t *testing.T) {
		assert.Empty(t, CalculateSeriesSlots(SlotInput{Previous: previous}))
	})
}

func TestSeriesSlotsMapOrder(t *testing.T) {
	slots := CalculateSeriesSlots(SlotInput{
		Format:         FormatBo7,
		PreviousFormat: FormatBo7,
		HostMapPicks:   []string{"A", "B"},
		GuestMapPicks:  []string{"B", "C"},
		GlobalMapPicks: []string{"A", "D"},
		HostCivPicks:   []string{"English"},
		GuestCivPicks:  []string{"French", HiddenOption},
	})
	var maps []string
	for _, s := range slots {
		if s.Map != nil {
			maps = append(maps, *s.Map)
		}
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, maps)
	assert.Equal(t, "English", *slots[0].HostCiv)
	assert.Nil(t, slots[1].HostCiv)
	assert.Nil(t, slots[1].GuestCiv)
}

func TestSetWinnerAndField(t *testing.T) {
	slots := CalculateSeriesSlots(SlotInput{Format: FormatBo3})
	guest := SideGuest

	next, err := SetWinner(slots, 1, &guest)
	require.NoError(t, err)
	assert.Equal(t, SideGuest, *next[1].Winner)
	assert.Nil(t, slots[1].Winner)

	_, err = SetWinner(slots, 3, &guest)
	assert.ErrorIs(t, err, ErrGameIndex)

	value := "Arabia"
	next, err = SetField(next, 0, FieldMap, &value)
	require.NoError(t, err)
	assert.Equal(t, "Arabia", *next[0].Map)

	_, err = SetField(next, 0, GameField("winner"), &value)
	assert.ErrorIs(t, err, ErrUnknownGameField)
}

func TestParseSeriesFormat(t *testing.T) {
	f, err := ParseSeriesFormat("BO5")
	require.NoError(t, err)
	assert.Equal(t, FormatBo5, f)
	assert.Equal(t, 5, f.GameCount())

	f, err = ParseSeriesFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatUnset, f)

	_, err = ParseSeriesFormat("bo2")
	assert.ErrorIs(t, err, ErrInvalidSeriesFormat)
}

func TestIsDirty(t *testing.T) {
	host := SideHost
	state := SessionState{
		HostName:     "Beasty",
		GuestName:    "MarineLorD",
		Scores:       Scores{Host: 1},
		CivDraftID:   "abcd",
		SeriesFormat: FormatBo3,
		SeriesGames:  CalculateSeriesSlots(SlotInput{Format: FormatBo3}),
	}
	preset := &Preset{ID: "p1", Name: "final", SessionState: state.Clone()}

	assert.False(t, IsDirty(nil, state))
	assert.False(t, IsDirty(preset, state))

	colored := state.Clone()
	colored.Colors = Colors{Host: "#ff0000"}
	assert.False(t, IsDirty(preset, colored))

	scored := state.Clone()
	scored.Scores.Guest = 2
	assert.True(t, IsDirty(preset, scored))

	won := state.Clone()
	won.SeriesGames[0].Winner = &host
	assert.True(t, IsDirty(preset, won))

	saved := preset.Overwrite(won, preset.UpdatedAt)
	assert.False(t, IsDirty(&saved, won))
	assert.True(t, IsDirty(preset, won))
}

func TestParseDraftID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"abcd", "abcd"},
		{"  XyZ12  ", "XyZ12"},
		{"https://aoe2cm.net/draft/qwErty", "qwErty"},
		{"https://aoe2cm.net/observer/qwErty?x=1", "qwErty"},
		{"aoe2cm.net/draft/qwErty/", "qwErty"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDraftID(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, raw := range []string{"", "abc", "https://aoe2cm.net/preset/qwErty", "ab-cd"} {
		_, err := ParseDraftID(raw)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), raw)
	}
}
