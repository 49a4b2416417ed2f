package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"herd-alerts/internal/catalog"
)

// Options parameterise the push-channel subscription.
type Options struct {
	URL              string
	HandshakeTimeout time.Duration
}

// pushMessage is the single inbound message type. Additional fields are
// ignored; product_id may arrive as a string or a number.
type pushMessage struct {
	Alert     bool               `json:"alert"`
	ProductID *catalog.ProductID `json:"product_id"`
}

// Client holds one persistent websocket subscription to the alert channel.
type Client struct {
	logger zerolog.Logger
	conn   *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// Dial establishes the subscription. Connection failure is returned to the
// caller; the client never retries on its own.
func Dial(ctx context.Context, opts Options, logger zerolog.Logger) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("stream url not configured")
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial alert stream: %w", err)
	}

	return &Client{
		logger: logger.With().Str("component", "stream_client").Logger(),
		conn:   conn,
	}, nil
}

// Listen reads messages until the connection fails or is closed, invoking
// handler with the product id of every well-formed alert message. Malformed
// payloads and non-alert messages are dropped. Returns nil after Close, the
// transport error otherwise.
func (c *Client) Listen(handler func(catalog.ProductID)) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return nil
			}
			return fmt.Errorf("read alert stream: %w", err)
		}

		var msg pushMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug().Err(err).Str("payload", string(data)).Msg("dropping malformed message")
			continue
		}
		if !msg.Alert || msg.ProductID == nil {
			continue
		}

		handler(*msg.ProductID)
	}
}

// Close terminates the subscription. No alerts are delivered to the handler
// after Close returns.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.conn.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
