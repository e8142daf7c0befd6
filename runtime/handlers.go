package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"sync"
)

type handlerEntry struct {
	id      uint64
	handler contract.Handler
}

// Handlers keeps the event handlers registered on a connection.
// Every registration gets its own id so a stale handle can never remove
// a handler registered after it.
type Handlers struct {
	mu      sync.Mutex
	nextID  uint64
	byEvent map[string][]handlerEntry
}

func NewHandlers() *Handlers {
	return &Handlers{byEvent: make(map[string][]handlerEntry)}
}

// Subscription is the disposable handle of one registration.
type Subscription struct {
	handlers *Handlers
	event    string
	id       uint64
	once     sync.Once
}

func (s *Subscription) Dispose() {
	s.once.Do(func() {
		s.handlers.remove(s.event, s.id)
	})
}

func (h *Handlers) On(name string, handler contract.Handler) contract.Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.byEvent[name] = append(h.byEvent[name], handlerEntry{id: h.nextID, handler: handler})
	return &Subscription{handlers: h, event: name, id: h.nextID}
}

// Off drops every handler of the event.
func (h *Handlers) Off(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byEvent, name)
}

func (h *Handlers) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byEvent = make(map[string][]handlerEntry)
}

func (h *Handlers) Count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byEvent[name])
}

// Dispatch calls the handlers of the frame's event in registration order
// and returns how many were called. Handlers run without the lock held,
// they may dispose subscriptions or register new ones.
func (h *Handlers) Dispatch(frame event.Frame) int {
	h.mu.Lock()
	entries := make([]handlerEntry, len(h.byEvent[frame.Event]))
	copy(entries, h.byEvent[frame.Event])
	h.mu.Unlock()

	for _, entry := range entries {
		entry.handler(frame)
	}
	return len(entries)
}

func (h *Handlers) remove(name string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.byEvent[name]
	for i, entry := range entries {
		if entry.id == id {
			h.byEvent[name] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(h.byEvent[name]) == 0 {
		delete(h.byEvent, name)
	}
}
