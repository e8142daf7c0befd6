package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

const DefaultTypingDebounce = 2000 * time.Millisecond

type TypingState int

const (
	NotTyping TypingState = iota
	Typing
)

// TypingCoordinator runs the local typing state machine of the user in the
// active room and keeps the typing sets reported by the service.
//
// Local side: NotTyping -> Typing on the first input change, back to
// NotTyping when the debounce timer elapses, on message send or on cancel.
// Remote side: each "typing" or "stopped-typing" payload replaces the
// room's set, the service owns the aggregate.
//
// Not safe for concurrent use, it is driven by the session loop.
type TypingCoordinator struct {
	log        *slog.Logger
	emitter    contract.Emitter
	scheduler  contract.Scheduler
	debounce   time.Duration
	state      TypingState
	room       domain.RoomID
	user       domain.Identity
	timer      contract.Timer
	generation uint64
	remote     map[domain.RoomID][]domain.Identity
}

func NewTypingCoordinator(log *slog.Logger, emitter contract.Emitter, scheduler contract.Scheduler, debounce time.Duration) *TypingCoordinator {
	if debounce <= 0 {
		debounce = DefaultTypingDebounce
	}
	return &TypingCoordinator{
		log:       log,
		emitter:   emitter,
		scheduler: scheduler,
		debounce:  debounce,
		remote:    make(map[domain.RoomID][]domain.Identity),
	}
}

func (c *TypingCoordinator) State() TypingState {
	return c.state
}

// InputChanged signals "is-typing" once per typing burst and restarts the
// debounce timer on every call.
func (c *TypingCoordinator) InputChanged(room domain.RoomID, user domain.Identity) {
	if c.state == Typing && c.room != room {
		c.Cancel(true)
	}
	if c.state == NotTyping {
		if err := c.emitter.Emit(event.IsTyping, event.TypingSignal{Room: string(room), User: string(user)}); err != nil {
			return
		}
		c.state = Typing
		c.room = room
		c.user = user
	}
	c.restartTimer()
}

// MessageSent always ends the typing burst: "stop-typing" is emitted right
// away and the pending timer can no longer fire.
func (c *TypingCoordinator) MessageSent(room domain.RoomID, user domain.Identity) {
	c.stopTimer()
	c.state = NotTyping
	_ = c.emitter.Emit(event.StopTyping, event.TypingSignal{Room: string(room), User: string(user)})
}

// Cancel resets the local state, used on room switch, disconnect and logout.
// With emit set, "stop-typing" is sent when a burst was in progress.
func (c *TypingCoordinator) Cancel(emit bool) {
	c.stopTimer()
	if c.state == Typing && emit {
		_ = c.emitter.Emit(event.StopTyping, event.TypingSignal{Room: string(c.room), User: string(c.user)})
	}
	c.state = NotTyping
}

func (c *TypingCoordinator) restartTimer() {
	c.stopTimer()
	generation := c.generation
	c.timer = c.scheduler.AfterFunc(c.debounce, func() {
		c.expire(generation)
	})
}

func (c *TypingCoordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// a firing already queued on the loop must be ignored
	c.generation++
}

func (c *TypingCoordinator) expire(generation uint64) {
	if generation != c.generation || c.state != Typing {
		return
	}
	c.timer = nil
	c.state = NotTyping
	c.log.Debug("Typing debounce elapsed", "room", c.room)
	_ = c.emitter.Emit(event.StopTyping, event.TypingSignal{Room: string(c.room), User: string(c.user)})
}

// ApplySnapshot replaces the typing set of a room.
func (c *TypingCoordinator) ApplySnapshot(room domain.RoomID, users []domain.Identity) {
	c.remote[room] = lo.Uniq(users)
}

func (c *TypingCoordinator) ClearRemote(room domain.RoomID) {
	delete(c.remote, room)
}

func (c *TypingCoordinator) Reset() {
	c.Cancel(false)
	c.remote = make(map[domain.RoomID][]domain.Identity)
}

// TypingUsers returns who is typing in the room, never self.
func (c *TypingCoordinator) TypingUsers(room domain.RoomID, self domain.Identity) []domain.Identity {
	return lo.Filter(c.remote[room], func(item domain.Identity, _ int) bool {
		return item != self
	})
}
