package orchestrator

import (
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

type LiveStatus string

const (
	LiveDisconnected LiveStatus = "disconnected"
	LiveConnecting   LiveStatus = "connecting"
	LiveLive         LiveStatus = "live"
	LiveError        LiveStatus = "error"
)

// DraftConnection is the observable state of one draft type's connection.
type DraftConnection struct {
	DraftType  engine.Scope     `json:"draftType"`
	DraftID    string           `json:"draftId"`
	Status     ConnectionStatus `json:"status"`
	LiveStatus LiveStatus       `json:"liveStatus"`
	Error      string           `json:"error,omitempty"`
	NameHost   string           `json:"nameHost,omitempty"`
	NameGuest  string           `json:"nameGuest,omitempty"`
	Finished   bool             `json:"finished"`
}

// draftSlot is the store's record for one draft type. gen increases with every new
// connection attempt; async completions carrying an older gen are dropped.
type draftSlot struct {
	conn     DraftConnection
	lists    engine.PickBanLists
	options  *engine.OptionTable
	gen      uint64
	inFlight bool
	channel  Channel

	fallback     clockwork.Timer
	fallbackStop chan struct{}
}

func newDraftSlot(scope engine.Scope) *draftSlot {
	return &draftSlot{
		conn: DraftConnection{
			DraftType:  scope,
			Status:     StatusDisconnected,
			LiveStatus: LiveDisconnected,
		},
	}
}

// detach hands the open channel to the caller, who closes it outside the store lock.
func (s *draftSlot) detach() Channel {
	ch := s.channel
	s.channel = nil
	return ch
}

func (s *draftSlot) cancelFallback() {
	if s.fallback != nil {
		stopAndDrainTimer(s.fallback)
		close(s.fallbackStop)
		s.fallback = nil
		s.fallbackStop = nil
	}
}

// reset forgets the draft entirely.
func (s *draftSlot) reset() {
	scope := s.conn.DraftType
	s.conn = newDraftSlot(scope).conn
	s.lists = engine.PickBanLists{}
	s.options = nil
	s.inFlight = false
}

// connContext identifies one connection attempt for the stale-context guard.
type connContext struct {
	scope   engine.Scope
	draftID string
	gen     uint64
}

// current returns the slot of cc if cc is still the attempt the store expects.
// Callers hold o.mu.
func (o *Orchestrator) current(cc connContext) (*draftSlot, bool) {
	s := o.slots[cc.scope]
	if s == nil || s.gen != cc.gen || s.conn.DraftID != cc.draftID {
		log.Debug().
			Str("draft_type", string(cc.scope)).
			Str("draft_id", cc.draftID).
			Uint64("gen", cc.gen).
			Msg("dropping result of stale connection")
		return nil, false
	}
	return s, true
}

// update applies fn to the slot of cc unless cc is stale.
func (o *Orchestrator) update(cc connContext, fn func(s *draftSlot) bool) bool {
	applied := false
	o.commit(func() bool {
		s, ok := o.current(cc)
		if !ok {
			return false
		}
		applied = true
		return fn(s)
	})
	return applied
}

// DraftView is one draft type's connection and lists.
type DraftView struct {
	Connection DraftConnection     `json:"connection"`
	Lists      engine.PickBanLists `json:"lists"`
}

// View is an immutable copy of the session handed to readers and subscribers.
type View struct {
	Origin         string                     `json:"origin"`
	Version        uint64                     `json:"version"`
	Drafts         map[engine.Scope]DraftView `json:"drafts"`
	Session        engine.SessionState        `json:"session"`
	ActivePresetID string                     `json:"activePresetId,omitempty"`
	Dirty          bool                       `json:"dirty"`
}

// viewLocked builds a view; callers hold o.mu. Lists are shared since they are never
// mutated in place.
func (o *Orchestrator) viewLocked() View {
	v := View{
		Origin:  o.lastOrigin,
		Version: o.version,
		Drafts:  make(map[engine.Scope]DraftView, len(o.slots)),
		Session: o.session.Clone(),
		Dirty:   engine.IsDirty(o.active, o.session),
	}
	if v.Session.SeriesGames == nil {
		v.Session.SeriesGames = []engine.SeriesGameSlot{}
	}
	if o.active != nil {
		v.ActivePresetID = o.active.ID
	}
	for scope, s := range o.slots {
		v.Drafts[scope] = DraftView{Connection: s.conn, Lists: s.lists.Normalized()}
	}
	return v
}

// View returns the current session state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) Connection(scope engine.Scope) DraftConnection {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s := o.slots[scope]; s != nil {
		return s.conn
	}
	return DraftConnection{}
}

func (o *Orchestrator) Lists(scope engine.Scope) engine.PickBanLists {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s := o.slots[scope]; s != nil {
		return s.lists
	}
	return engine.PickBanLists{}
}

// Subscribe registers for views published after every change. Only the newest view is
// kept for a subscriber that falls behind. The returned func unsubscribes.
func (o *Orchestrator) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	o.subsMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	o.subsMu.Unlock()

	return ch, func() {
		o.subsMu.Lock()
		defer o.subsMu.Unlock()
		if _, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(ch)
		}
	}
}

func (o *Orchestrator) publish(v View) {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	if v.Version <= o.published {
		return
	}
	o.published = v.Version

	for _, ch := range o.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// replace the stale view nobody read yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
