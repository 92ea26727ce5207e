package aoe2cm_client

import "time"

const (
	// Base URLs
	BaseURL   = "https://aoe2cm.net/api"
	SocketURL = "wss://aoe2cm.net/socket.io/"

	// API Endpoints
	DraftEndpoint = "/draft/"

	// Socket.IO query for a websocket-only Engine.IO v4 session
	SocketQuery = "EIO=4&transport=websocket"

	// Inbound socket events
	EventDraftState    = "draft_state"
	EventPlayerEvent   = "playerEvent"
	EventAdminEvent    = "adminEvent"
	EventDraftFinished = "draft_finished"

	// Outbound socket events
	EventJoinRoom = "join_room"
	EventSetRole  = "set_role"

	// Admin actions
	AdminRevealBans = "REVEAL_BANS"

	// Observer role announced after joining
	RoleSpectator = "SPEC"

	// Headers
	UserAgentHeader = "User-Agent"
	UserAgent       = "draftcast/1.0"

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)
