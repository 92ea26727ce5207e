package gateway

import (
	"context"

	"github.com/mcdev12/draftcast/go/internal/draft/engine"
	"github.com/mcdev12/draftcast/go/internal/draft/orchestrator"
)

// StateProvider is the read side the overlay fan-out needs.
type StateProvider interface {
	View() orchestrator.View
	Subscribe() (<-chan orchestrator.View, func())
}

// SessionController is everything the control API drives. *orchestrator.Orchestrator
// implements it.
type SessionController interface {
	StateProvider

	Connect(ctx context.Context, raw string, scope engine.Scope) bool
	Disconnect(scope engine.Scope)
	Connection(scope engine.Scope) orchestrator.DraftConnection

	SetSeriesFormat(raw string) error
	SetGameWinner(index int, winner *engine.Side) error
	SetGameField(index int, field string, value *string) error
	SetTeamNames(host, guest string)
	SetScores(host, guest int)
	SetColors(host, guest string)
	ResetSession()

	SaveAsPreset(ctx context.Context, name string) (engine.Preset, error)
	LoadPreset(ctx context.Context, id string) (engine.Preset, error)
	ListPresets(ctx context.Context) ([]engine.Preset, error)
	DeletePreset(ctx context.Context, id string) error
}

var _ SessionController = (*orchestrator.Orchestrator)(nil)
