package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type call struct {
	op   string
	text string
	run  func(ctx context.Context) error
}

// calls runs the session calls off the update loop, in the order the keys
// were pressed. Bubble Tea runs commands concurrently, so every command
// executes the oldest pending call rather than the one it was created for.
type calls struct {
	mu      sync.Mutex
	running sync.Mutex
	pending []call
}

func (c *calls) push(op, text string, run func(ctx context.Context) error) tea.Cmd {
	c.mu.Lock()
	c.pending = append(c.pending, call{op: op, text: text, run: run})
	c.mu.Unlock()
	return c.next
}

func (c *calls) next() tea.Msg {
	c.running.Lock()
	defer c.running.Unlock()

	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return nil
	}
	current := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return resultMsg{op: current.op, text: current.text, err: current.run(ctx)}
}
