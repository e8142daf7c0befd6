package runtime

import (
	"chat-rooms/contract"
	"time"
)

// loopScheduler runs timer callbacks on the session loop instead of the
// timer goroutine, so session state keeps a single writer.
type loopScheduler struct {
	tasks chan<- func()
	done  <-chan struct{}
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) contract.Timer {
	return time.AfterFunc(d, func() {
		select {
		case s.tasks <- f:
		case <-s.done:
		}
	})
}
