package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftcast/go/clients/aoe2cm_client"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// SnapshotFetcher loads the full state of a draft over HTTP.
type SnapshotFetcher interface {
	GetDraft(ctx context.Context, draftID string) (*aoe2cm_client.Draft, error)
}

// Channel is an open push channel. Messages is closed when the channel ends, after which
// Err reports nil for a clean close.
type Channel interface {
	Messages() <-chan aoe2cm_client.Message
	Err() error
	Close() error
}

type ChannelDialer interface {
	Dial(ctx context.Context, draftID string) (Channel, error)
}

// PresetRepository persists saved session presets.
type PresetRepository interface {
	Save(ctx context.Context, p engine.Preset) error
	Get(ctx context.Context, id string) (engine.Preset, error)
	List(ctx context.Context) ([]engine.Preset, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	// FallbackDelay is how long to wait after an unexpected channel drop before refetching.
	FallbackDelay time.Duration
	// AutoSavePreset re-saves the active preset whenever the session diverges from it.
	AutoSavePreset bool
}

func DefaultConfig() Config {
	return Config{
		FallbackDelay:  3 * time.Second,
		AutoSavePreset: true,
	}
}

type Option func(*Orchestrator)

func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithOriginID fixes the id stamped on views produced by this instance.
func WithOriginID(id string) Option {
	return func(o *Orchestrator) {
		o.originID = id
	}
}

// Orchestrator owns the session store: both draft connections, their pick/ban lists, the
// series and the active preset. Every mutation goes through commit, which refreshes the
// derived state and notifies subscribers.
type Orchestrator struct {
	fetcher  SnapshotFetcher
	dialer   ChannelDialer
	presets  PresetRepository
	config   Config
	clock    Clock
	originID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	slots        map[engine.Scope]*draftSlot
	session      engine.SessionState
	slotsFormat  engine.SeriesFormat
	seriesStale  bool
	active       *engine.Preset
	version      uint64
	lastOrigin   string
	savedVersion uint64
	saveMu       sync.Mutex

	subsMu    sync.Mutex
	subs      map[int]chan View
	nextSub   int
	published uint64
}

func NewOrchestrator(fetcher SnapshotFetcher, dialer ChannelDialer, presets PresetRepository, cfg Config, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		fetcher: fetcher,
		dialer:  dialer,
		presets: presets,
		config:  cfg,
		clock:   clockwork.NewRealClock(),
		ctx:     ctx,
		cancel:  cancel,
		slots: map[engine.Scope]*draftSlot{
			engine.ScopeCiv: newDraftSlot(engine.ScopeCiv),
			engine.ScopeMap: newDraftSlot(engine.ScopeMap),
		},
		subs: make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.originID == "" {
		o.originID = uuid.New().String()
	}
	o.lastOrigin = o.originID
	return o
}

func (o *Orchestrator) OriginID() string {
	return o.originID
}

// Close stops every channel and pending fallback and waits for background work.
func (o *Orchestrator) Close() error {
	o.cancel()

	var channels []Channel
	o.mu.Lock()
	for _, s := range o.slots {
		s.gen++
		if ch := s.detach(); ch != nil {
			channels = append(channels, ch)
		}
		s.cancelFallback()
	}
	o.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
	o.wg.Wait()

	o.subsMu.Lock()
	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
	o.subsMu.Unlock()
	return nil
}

// commit runs fn under the store lock. When fn reports a change, series slots are
// refreshed, the active preset is re-saved if it diverged, and a new view is published.
func (o *Orchestrator) commit(fn func() bool) bool {
	return o.commitFrom(o.originID, fn)
}

func (o *Orchestrator) commitFrom(origin string, fn func() bool) bool {
	o.mu.Lock()
	if !fn() {
		o.mu.Unlock()
		return false
	}

	local := origin == o.originID
	if local {
		o.refreshSeries()
	}
	var save *engine.Preset
	if local && o.config.AutoSavePreset && engine.IsDirty(o.active, o.session) {
		p := o.active.Overwrite(o.session, o.clock.Now())
		o.active = &p
		save = &p
	}
	o.version++
	o.lastOrigin = origin
	version := o.version
	view := o.viewLocked()
	o.mu.Unlock()

	if save != nil {
		o.persist(*save, version)
	}
	o.publish(view)
	return true
}

// refreshSeries recomputes the series slots after a list or format change.
func (o *Orchestrator) refreshSeries() {
	if !o.seriesStale {
		return
	}
	o.seriesStale = false

	civ := o.slots[engine.ScopeCiv].lists
	maps := o.slots[engine.ScopeMap].lists
	slots := engine.CalculateSeriesSlots(engine.SlotInput{
		Format:         o.session.SeriesFormat,
		PreviousFormat: o.slotsFormat,
		Previous:       o.session.SeriesGames,
		HostCivPicks:   civ.HostPicks,
		GuestCivPicks:  civ.GuestPicks,
		HostMapPicks:   maps.HostPicks,
		GuestMapPicks:  maps.GuestPicks,
		GlobalMapPicks: maps.GlobalPicks,
	})
	o.slotsFormat = o.session.SeriesFormat
	if !engine.SlotsEqual(slots, o.session.SeriesGames) {
		o.session.SeriesGames = slots
	}
}

// persist writes an auto-saved preset. Saves of older versions that lost the race to a
// newer one are skipped.
func (o *Orchestrator) persist(p engine.Preset, version uint64) {
	if o.presets == nil {
		return
	}
	o.saveMu.Lock()
	defer o.saveMu.Unlock()
	if version < o.savedVersion {
		return
	}
	if err := o.presets.Save(o.ctx, p); err != nil {
		logPresetError(err, p.ID, "failed to auto-save active preset")
		return
	}
	o.savedVersion = version
}
