package engine

import "time"

type Scores struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}

type Colors struct {
	Host  string `json:"host"`
	Guest string `json:"guest"`
}

// SessionState is the user-owned part of a session that presets capture.
type SessionState struct {
	HostName     string           `json:"hostName"`
	GuestName    string           `json:"guestName"`
	Scores       Scores           `json:"scores"`
	CivDraftID   string           `json:"civDraftId"`
	MapDraftID   string           `json:"mapDraftId"`
	SeriesFormat SeriesFormat     `json:"seriesFormat"`
	SeriesGames  []SeriesGameSlot `json:"seriesGames"`
	Colors       Colors           `json:"colors"`
}

func (s SessionState) Clone() SessionState {
	s.SeriesGames = CloneSlots(s.SeriesGames)
	return s
}

// DraftID returns the draft id recorded for scope.
func (s SessionState) DraftID(scope Scope) string {
	if scope == ScopeMap {
		return s.MapDraftID
	}
	return s.CivDraftID
}

func (s *SessionState) SetDraftID(scope Scope, id string) {
	if scope == ScopeMap {
		s.MapDraftID = id
		return
	}
	s.CivDraftID = id
}

type Preset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	SessionState
}

// IsDirty reports whether the session diverged from the active preset. Colors are not
// part of the comparison. A nil preset is never dirty.
func IsDirty(active *Preset, current SessionState) bool {
	if active == nil {
		return false
	}
	saved := active.SessionState
	return saved.HostName != current.HostName ||
		saved.GuestName != current.GuestName ||
		saved.Scores.Host != current.Scores.Host ||
		saved.Scores.Guest != current.Scores.Guest ||
		saved.CivDraftID != current.CivDraftID ||
		saved.MapDraftID != current.MapDraftID ||
		saved.SeriesFormat != current.SeriesFormat ||
		!SlotsEqual(saved.SeriesGames, current.SeriesGames)
}

// Overwrite replaces the stored snapshot of p with current, clearing dirtiness.
func (p Preset) Overwrite(current SessionState, now time.Time) Preset {
	p.SessionState = current.Clone()
	p.UpdatedAt = now
	return p
}

func (p Preset) Clone() Preset {
	p.SessionState = p.SessionState.Clone()
	return p
}
