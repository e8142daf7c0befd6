package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"context"
	"io"
	"sync"
	"time"

	"github.com/samber/lo"
)

// fakeChannel is an in-memory channel, the test plays the service side.
type fakeChannel struct {
	mu      sync.Mutex
	inbound chan event.Frame
	written []event.Frame
	closed  chan struct{}
	once    sync.Once
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		inbound: make(chan event.Frame, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeChannel) ReadFrame() (event.Frame, error) {
	select {
	case <-c.closed:
		return event.Frame{}, io.EOF
	default:
	}
	select {
	case frame := <-c.inbound:
		return frame, nil
	case <-c.closed:
		return event.Frame{}, io.EOF
	}
}

func (c *fakeChannel) WriteFrame(frame event.Frame) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, frame)
	return nil
}

func (c *fakeChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeChannel) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Send delivers a frame as if the service had emitted it.
func (c *fakeChannel) Send(name string, payload any) {
	frame, err := event.NewFrame(name, payload)
	if err != nil {
		panic(err)
	}
	c.inbound <- frame
}

// Written returns the frames emitted by the client, filtered by event
// name when names are given.
func (c *fakeChannel) Written(names ...string) []event.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Filter(c.written, func(item event.Frame, _ int) bool {
		return len(names) == 0 || lo.Contains(names, item.Event)
	})
}

type fakeTransport struct {
	mu       sync.Mutex
	channels []*fakeChannel
	err      error
}

func (t *fakeTransport) Dial(_ context.Context) (contract.Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	channel := newFakeChannel()
	t.channels = append(t.channels, channel)
	return channel, nil
}

func (t *fakeTransport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.channels)
}

func (t *fakeTransport) Last() *fakeChannel {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.channels) == 0 {
		return nil
	}
	return t.channels[len(t.channels)-1]
}

type emitted struct {
	name    string
	payload any
}

type recordingEmitter struct {
	emitted []emitted
	err     error
}

func (e *recordingEmitter) Emit(name string, payload any) error {
	if e.err != nil {
		return e.err
	}
	e.emitted = append(e.emitted, emitted{name: name, payload: payload})
	return nil
}

func (e *recordingEmitter) Names() []string {
	return lo.Map(e.emitted, func(item emitted, _ int) string { return item.name })
}

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler keeps timers until the test fires them.
type fakeScheduler struct {
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) contract.Timer {
	timer := &fakeTimer{f: f}
	s.timers = append(s.timers, timer)
	s.delays = append(s.delays, d)
	return timer
}

// Fire runs every timer still armed.
func (s *fakeScheduler) Fire() {
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			timer.fired = true
			timer.f()
		}
	}
}

// FireStopped runs timers that were stopped too late, their callback was
// already queued when Stop was called.
func (s *fakeScheduler) FireStopped() {
	for _, timer := range s.timers {
		if timer.stopped && !timer.fired {
			timer.fired = true
			timer.f()
		}
	}
}

func (s *fakeScheduler) Armed() int {
	return lo.CountBy(s.timers, func(item *fakeTimer) bool {
		return !item.stopped && !item.fired
	})
}

type memoryIdentity struct {
	mu   sync.Mutex
	user domain.Identity
}

func (m *memoryIdentity) Get() (domain.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, m.user != ""
}

func (m *memoryIdentity) Set(name string) (domain.Identity, error) {
	identity, err := domain.NewIdentity(name)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = identity
	return identity, nil
}

func (m *memoryIdentity) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = ""
	return nil
}
