// Package socket carries event frames over websocket connections.
// The same Channel type serves the client side and the hub side.
package socket

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout closes a silent connection. Any frame, ping or pong
	// received pushes the deadline. Zero disables it.
	ReadTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
	}
}

// Transport dials the hub websocket endpoint.
type Transport struct {
	log     *slog.Logger
	url     string
	dialer  *websocket.Dialer
	options Options
}

func NewTransport(log *slog.Logger, url string, options Options) *Transport {
	return &Transport{
		log:     log,
		url:     url,
		options: options,
		dialer: &websocket.Dialer{
			HandshakeTimeout: options.HandshakeTimeout,
		},
	}
}

func (t *Transport) Dial(ctx context.Context) (contract.Channel, error) {
	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", t.url, err)
	}
	t.log.Debug("Websocket opened", "url", t.url)
	return NewChannel(conn, t.options), nil
}

// Channel is one websocket connection exchanging JSON frames.
// ReadFrame must be called from a single goroutine, WriteFrame is safe
// for concurrent use.
type Channel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	options Options
}

func NewChannel(conn *websocket.Conn, options Options) *Channel {
	c := &Channel{conn: conn, options: options}
	c.extendReadDeadline()
	conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})
	conn.SetPingHandler(func(data string) error {
		c.extendReadDeadline()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), c.writeDeadline())
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	return c
}

func (c *Channel) ReadFrame() (event.Frame, error) {
	var frame event.Frame
	if err := c.conn.ReadJSON(&frame); err != nil {
		return event.Frame{}, err
	}
	c.extendReadDeadline()
	return frame, nil
}

func (c *Channel) WriteFrame(frame event.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(c.writeDeadline()); err != nil {
		return err
	}
	return c.conn.WriteJSON(frame)
}

// Ping asks the peer for a pong, keeping both read deadlines alive.
func (c *Channel) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, c.writeDeadline())
}

// Close sends a close frame when possible and releases the connection.
// A blocked ReadFrame returns an error.
func (c *Channel) Close() error {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, message, c.writeDeadline())
	return c.conn.Close()
}

func (c *Channel) extendReadDeadline() {
	if c.options.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
	}
}

func (c *Channel) writeDeadline() time.Time {
	if c.options.WriteTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.options.WriteTimeout)
}
