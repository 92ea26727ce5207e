package aoe2cm_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Engine.IO / Socket.IO packet prefixes used over the websocket transport.
const (
	packetOpen       = "0"
	packetPing       = "2"
	packetPong       = "3"
	packetConnect    = "40"
	packetDisconnect = "41"
	packetEvent      = "42"
	packetConnectErr = "44"
)

var ErrConnectRejected = errors.New("socket.io connect rejected")

// Message is one decoded push-channel message. The concrete types are FullState,
// PlayerEvent, RevealBans and Finished.
type Message interface {
	messageKind() string
}

type FullState struct {
	Draft Draft
}

type PlayerEvent struct {
	Event json.RawMessage
}

type RevealBans struct {
	Events EventList
}

type Finished struct{}

func (FullState) messageKind() string   { return EventDraftState }
func (PlayerEvent) messageKind() string { return EventPlayerEvent }
func (RevealBans) messageKind() string  { return AdminRevealBans }
func (Finished) messageKind() string    { return EventDraftFinished }

type openPayload struct {
	SID          string `json:"sid"`
	PingInterval int64  `json:"pingInterval"`
	PingTimeout  int64  `json:"pingTimeout"`
}

type adminPayload struct {
	Action string    `json:"action"`
	Events EventList `json:"events"`
}

// Socket is a live push channel joined to one draft room. Messages is closed when the
// channel ends; Err then reports nil for a clean close and the cause otherwise.
type Socket struct {
	draftID  string
	conn     *websocket.Conn
	messages chan Message
	done     chan struct{}
	idle     time.Duration

	writeMu   sync.Mutex
	mu        sync.Mutex
	err       error
	closing   bool
	closeOnce sync.Once
}

// Dial opens the push channel for draftID, completes the Socket.IO handshake, joins the
// draft room as a spectator and starts reading.
func (c *Aoe2cmClient) Dial(ctx context.Context, draftID string) (*Socket, error) {
	u, err := url.Parse(c.socketURL)
	if err != nil {
		return nil, fmt.Errorf("invalid socket url: %w", err)
	}
	u.RawQuery = SocketQuery

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial socket: %w", err)
	}

	s := &Socket{
		draftID:  draftID,
		conn:     conn,
		messages: make(chan Message, 64),
		done:     make(chan struct{}),
	}
	if err := s.handshake(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	go s.readLoop()
	return s, nil
}

func (s *Socket) handshake(ctx context.Context) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.conn.SetReadDeadline(deadline)

	data, err := s.readText()
	if err != nil {
		return fmt.Errorf("failed to read open packet: %w", err)
	}
	if !strings.HasPrefix(data, packetOpen) {
		return fmt.Errorf("unexpected open packet: %q", data)
	}
	var open openPayload
	if err := json.Unmarshal([]byte(data[len(packetOpen):]), &open); err != nil {
		return fmt.Errorf("failed to unmarshal open packet: %w", err)
	}
	if open.PingInterval > 0 {
		s.idle = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	}

	if err := s.writeText(packetConnect); err != nil {
		return fmt.Errorf("failed to send connect: %w", err)
	}
	for {
		data, err := s.readText()
		if err != nil {
			return fmt.Errorf("failed to read connect ack: %w", err)
		}
		switch {
		case data == packetPing:
			if err := s.writeText(packetPong); err != nil {
				return fmt.Errorf("failed to send pong: %w", err)
			}
			continue
		case strings.HasPrefix(data, packetConnectErr):
			return fmt.Errorf("%w: %s", ErrConnectRejected, data[len(packetConnectErr):])
		case strings.HasPrefix(data, packetConnect):
		default:
			return fmt.Errorf("unexpected connect ack: %q", data)
		}
		break
	}

	if err := s.emit(EventJoinRoom, map[string]string{"roomId": s.draftID}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	if err := s.emit(EventSetRole, map[string]string{"role": RoleSpectator}); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	s.conn.SetReadDeadline(time.Time{})
	return nil
}

func (s *Socket) DraftID() string {
	return s.draftID
}

func (s *Socket) Messages() <-chan Message {
	return s.messages
}

// Err is only meaningful after Messages is closed.
func (s *Socket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the channel. A close initiated here is reported as clean.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		s.writeText(packetDisconnect)
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		s.writeMu.Unlock()

		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Socket) readLoop() {
	defer func() {
		close(s.messages)
		s.conn.Close()
	}()

	for {
		if s.idle > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.idle))
		}
		data, err := s.readText()
		if err != nil {
			s.finish(err)
			return
		}

		switch {
		case data == packetPing:
			if err := s.writeText(packetPong); err != nil {
				s.finish(err)
				return
			}
		case strings.HasPrefix(data, packetDisconnect):
			s.finish(nil)
			return
		case strings.HasPrefix(data, packetEvent):
			msg, err := decodeEvent(data[len(packetEvent):])
			if err != nil {
				log.Warn().Err(err).Str("draft_id", s.draftID).Msg("Skipping malformed socket event")
				continue
			}
			if msg == nil {
				continue
			}
			select {
			case s.messages <- msg:
			case <-s.done:
				s.finish(nil)
				return
			}
		default:
			log.Debug().Str("draft_id", s.draftID).Str("packet", data).Msg("Ignoring socket packet")
		}
	}
}

// finish records why the read loop ended. Closes we asked for are clean, as are a server
// close with normal closure or going away.
func (s *Socket) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.err = nil
		return
	}
	s.err = err
}

func decodeEvent(payload string) (Message, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, errors.New("empty event frame")
	}
	var name string
	if err := json.Unmarshal(frame[0], &name); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event name: %w", err)
	}
	var body json.RawMessage
	if len(frame) > 1 {
		body = frame[1]
	}

	switch name {
	case EventDraftState:
		var draft Draft
		if err := json.Unmarshal(body, &draft); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return FullState{Draft: draft}, nil
	case EventPlayerEvent:
		if len(body) == 0 {
			return nil, fmt.Errorf("%s without payload", name)
		}
		return PlayerEvent{Event: body}, nil
	case EventAdminEvent:
		var admin adminPayload
		if err := json.Unmarshal(body, &admin); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		if admin.Action != AdminRevealBans {
			return nil, nil
		}
		return RevealBans{Events: admin.Events}, nil
	case EventDraftFinished:
		return Finished{}, nil
	default:
		return nil, nil
	}
}

func (s *Socket) emit(event string, payload any) error {
	frame, err := json.Marshal([]any{event, payload})
	if err != nil {
		return err
	}
	return s.writeText(packetEvent + string(frame))
}

func (s *Socket) readText() (string, error) {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if kind == websocket.TextMessage {
			return string(data), nil
		}
	}
}

func (s *Socket) writeText(data string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(data))
}
