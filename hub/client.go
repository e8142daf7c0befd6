package hub

import (
	"chat-rooms/domain/event"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// FrameChannel is the connection of one client.
type FrameChannel interface {
	ReadFrame() (event.Frame, error)
	WriteFrame(frame event.Frame) error
	Ping() error
	Close() error
}

// Client is one connected socket. room and user are only read and written
// by the hub worker.
type Client struct {
	ID      string
	channel FrameChannel
	send    chan event.Frame
	log     *slog.Logger

	room string
	user string
}

func NewClient(log *slog.Logger, channel FrameChannel, sendBuffer int) *Client {
	id := uuid.NewString()
	return &Client{
		ID:      id,
		channel: channel,
		send:    make(chan event.Frame, sendBuffer),
		log:     log.With("client", id),
	}
}

// ReadPump forwards the client frames to the hub until the socket breaks.
func (c *Client) ReadPump(ctx context.Context, hub *Hub) {
	defer hub.Unregister(ctx, c)
	for {
		frame, err := c.channel.ReadFrame()
		if err != nil {
			c.log.Debug("Client read ended", "error", err)
			return
		}
		if !hub.Receive(ctx, c, frame) {
			return
		}
	}
}

// WritePump drains the send buffer into the socket and pings it.
// It closes the socket once the hub closed the buffer.
func (c *Client) WritePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.channel.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.channel.WriteFrame(frame); err != nil {
				c.log.Warn("Client write failed", "event", frame.Event, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.channel.Ping(); err != nil {
				c.log.Debug("Client ping failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
