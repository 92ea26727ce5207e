package aoe2cm_client

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/draftcast/go/clients"
)

type Aoe2cmClient struct {
	*clients.BaseClient
	socketURL string
	dialer    *websocket.Dialer
}

type Option func(*Aoe2cmClient)

// WithSocketURL overrides the Socket.IO endpoint, e.g. for a local mirror of the service.
func WithSocketURL(u string) Option {
	return func(c *Aoe2cmClient) {
		c.socketURL = u
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Aoe2cmClient) {
		c.dialer = d
	}
}

func NewAoe2cmClient(baseURL string, opts ...Option) *Aoe2cmClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	client := &Aoe2cmClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
		socketURL:  SocketURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
	client.SetHeader(UserAgentHeader, UserAgent)
	client.SetHeader("Accept", "application/json")

	for _, opt := range opts {
		opt(client)
	}
	return client
}
