package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ReconnectPolicy retries dialing after an unexpected drop.
// Attempt n waits n*Delay. Zero attempts disables reconnection.
type ReconnectPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Connection owns the single channel to the distribution service.
// Inbound frames, including the synthetic "connect" and "disconnect"
// lifecycle frames, are delivered in order on Frames().
type Connection struct {
	mu        sync.Mutex
	pushing   sync.RWMutex
	log       *slog.Logger
	transport contract.Transport
	policy    ReconnectPolicy
	handlers  *Handlers
	frames    chan event.Frame
	state     domain.ConnectionState
	channel   contract.Channel
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewConnection(log *slog.Logger, transport contract.Transport, bufferSize int, policy ReconnectPolicy) *Connection {
	return &Connection{
		log:       log,
		transport: transport,
		policy:    policy,
		handlers:  NewHandlers(),
		frames:    make(chan event.Frame, bufferSize),
		state:     domain.Disconnected,
	}
}

func (c *Connection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) Frames() <-chan event.Frame {
	return c.frames
}

// Connect dials the service. It returns immediately when already
// connecting or connected.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.Disconnected {
		c.mu.Unlock()
		return nil
	}
	if c.cancel == nil {
		c.ctx, c.cancel = context.WithCancel(ctx)
	}
	lifetime := c.ctx
	c.setState(domain.Connecting)
	c.mu.Unlock()
	return c.dial(lifetime)
}

func (c *Connection) dial(ctx context.Context) error {
	channel, err := c.transport.Dial(ctx)

	c.mu.Lock()
	if ctx.Err() != nil || c.state != domain.Connecting {
		// Disconnect happened while dialing
		if ctx == c.ctx && c.state == domain.Connecting {
			c.setState(domain.Disconnected)
		}
		c.mu.Unlock()
		if err == nil {
			_ = channel.Close()
		}
		return errors.ErrSessionClosed
	}
	if err != nil {
		c.setState(domain.Disconnected)
		c.mu.Unlock()
		c.log.Warn("Connection failed", "error", err)
		return fmt.Errorf("dial failed: %w", err)
	}
	c.channel = channel
	c.setState(domain.Connected)
	c.mu.Unlock()

	c.push(ctx, event.Frame{Event: event.Connect})
	go c.read(ctx, channel)
	return nil
}

func (c *Connection) read(ctx context.Context, channel contract.Channel) {
	for {
		frame, err := channel.ReadFrame()
		if err != nil {
			c.drop(ctx, channel, err)
			return
		}
		if !c.push(ctx, frame) {
			return
		}
	}
}

// drop handles a channel broken by the peer or the network.
func (c *Connection) drop(ctx context.Context, channel contract.Channel, cause error) {
	c.mu.Lock()
	if c.channel != channel {
		c.mu.Unlock()
		return
	}
	c.channel = nil
	c.setState(domain.Disconnected)
	c.mu.Unlock()

	_ = channel.Close()
	c.log.Warn("Connection lost", "error", cause)
	c.push(ctx, event.Frame{Event: event.Disconnect})
	if c.policy.Attempts > 0 {
		go c.reconnect(ctx)
	}
}

func (c *Connection) reconnect(ctx context.Context) {
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * c.policy.Delay):
		}

		c.mu.Lock()
		if ctx.Err() != nil || c.state != domain.Disconnected {
			c.mu.Unlock()
			return
		}
		c.setState(domain.Connecting)
		c.mu.Unlock()

		if err := c.dial(ctx); err == nil {
			c.log.Info("Reconnected", "attempt", attempt)
			return
		}
		c.log.Warn("Reconnection attempt failed", "attempt", attempt)
	}
	c.log.Error("Giving up reconnection", "attempts", c.policy.Attempts)
}

// Disconnect closes the channel and releases every subscription.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	channel := c.channel
	c.channel = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.ctx = nil
	}
	if c.state != domain.Disconnected {
		c.setState(domain.Disconnected)
	}
	c.mu.Unlock()

	// Frames of the closed session must not reach the next one
	c.pushing.Lock()
	dropped := c.drain()
	c.pushing.Unlock()
	if dropped > 0 {
		c.log.Debug("Dropped pending frames", "count", dropped)
	}

	c.handlers.Clear()
	if channel != nil {
		_ = channel.Close()
	}
}

// Emit sends one event. Nothing is queued: the event is dropped
// when the connection is not established.
func (c *Connection) Emit(name string, payload any) error {
	c.mu.Lock()
	channel, state := c.channel, c.state
	c.mu.Unlock()

	if state != domain.Connected || channel == nil {
		c.log.Warn("Dropping event, not connected", "event", name, "state", state)
		return errors.ErrNotConnected
	}
	frame, err := event.NewFrame(name, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err = channel.WriteFrame(frame); err != nil {
		c.log.Warn("Failed to emit event", "event", name, "error", err)
		return fmt.Errorf("emit %s: %w", name, err)
	}
	c.log.Debug("Event emitted", "event", name)
	return nil
}

func (c *Connection) On(name string, handler contract.Handler) contract.Subscription {
	return c.handlers.On(name, handler)
}

func (c *Connection) Off(name string) {
	c.handlers.Off(name)
}

// Dispatch hands an inbound frame to the registered handlers.
func (c *Connection) Dispatch(frame event.Frame) int {
	n := c.handlers.Dispatch(frame)
	if n == 0 {
		c.log.Debug("No handler for event", "event", frame.Event)
	}
	return n
}

// push queues a frame unless ctx, the lifetime of the channel that
// produced it, is over.
func (c *Connection) push(ctx context.Context, frame event.Frame) bool {
	c.pushing.RLock()
	defer c.pushing.RUnlock()
	if ctx.Err() != nil {
		return false
	}
	select {
	case c.frames <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Connection) drain() int {
	n := 0
	for {
		select {
		case <-c.frames:
			n++
		default:
			return n
		}
	}
}

// setState must be called with mu held.
func (c *Connection) setState(state domain.ConnectionState) {
	c.log.Info("Connection state changed", "from", c.state.String(), "to", state.String())
	c.state = state
}
