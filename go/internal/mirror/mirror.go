package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/draftcast/go/internal/draft/orchestrator"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// Session is the part of the orchestrator the mirror reads from and writes to.
type Session interface {
	OriginID() string
	Subscribe() (<-chan orchestrator.View, func())
	ReplaceFromMirror(v orchestrator.View) bool
}

// Conn is the subset of *nats.Conn used for mirroring.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Mirror shares session views between instances over one NATS subject. Only views that
// originate locally are published; views from other origins replace the local state.
type Mirror struct {
	conn    Conn
	subject string
	session Session
}

func New(conn Conn, subject string, session Session) *Mirror {
	return &Mirror{conn: conn, subject: subject, session: session}
}

// Connect opens a NATS connection with reconnect logging.
func Connect(natsURL string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("draftcast-mirror"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Run mirrors until ctx is done.
func (m *Mirror) Run(ctx context.Context) error {
	views, unsubscribe := m.session.Subscribe()
	defer unsubscribe()

	sub, err := m.conn.Subscribe(m.subject, m.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", m.subject, err)
	}
	defer sub.Unsubscribe()

	log.Info().
		Str("subject", m.subject).
		Str("origin", m.session.OriginID()).
		Msg("session mirroring started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session mirroring stopped")
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			if err := m.publish(v); err != nil {
				log.Error().Err(err).Uint64("version", v.Version).Msg("failed to mirror session view")
			}
		}
	}
}

func (m *Mirror) publish(v orchestrator.View) error {
	if v.Origin != m.session.OriginID() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}
	return m.conn.Publish(m.subject, data)
}

func (m *Mirror) handle(msg *nats.Msg) {
	var v orchestrator.View
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed mirrored view")
		return
	}
	if v.Origin == m.session.OriginID() {
		return
	}
	if m.session.ReplaceFromMirror(v) {
		log.Debug().Str("origin", v.Origin).Uint64("version", v.Version).Msg("applied mirrored view")
	}
}
