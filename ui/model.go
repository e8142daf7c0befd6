// Package ui renders the session in a terminal. It reads the session view,
// turns key presses into session calls and never touches session state.
package ui

import (
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

const callTimeout = 2 * time.Second

// Controller is the part of the session driven by the terminal.
type Controller interface {
	Login(ctx context.Context, name string) error
	Logout(ctx context.Context) error
	SwitchRoom(ctx context.Context, room domain.RoomID) error
	Send(ctx context.Context, text string) error
	InputChanged(ctx context.Context) error
	View() domain.View
}

type UnreadCounter interface {
	Unread(room domain.RoomID) int
}

type eventMsg struct {
	evt event.DomainEvent
}

type closedMsg struct{}

// resultMsg reports a session call. text is the input it was made with.
type resultMsg struct {
	op   string
	text string
	err  error
}

type Model struct {
	controller Controller
	calls      *calls
	unread     UnreadCounter
	events     <-chan event.DomainEvent
	input      textinput.Model
	messages   viewport.Model
	view       domain.View
	err        error
	width      int
	height     int
}

func NewModel(controller Controller, unread UnreadCounter, events <-chan event.DomainEvent) Model {
	input := textinput.New()
	input.CharLimit = domain.MaxMessageLength
	input.Focus()

	m := Model{
		controller: controller,
		calls:      &calls{},
		unread:     unread,
		events:     events,
		input:      input,
		messages:   viewport.New(60, 10),
		view:       controller.View(),
	}
	m.syncPrompt()
	return m
}

func waitEvent(events <-chan event.DomainEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg{evt: evt}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitEvent(m.events), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case eventMsg:
		m.refresh()
		return m, waitEvent(m.events)
	case closedMsg:
		return m, tea.Quit
	case resultMsg:
		m.onResult(msg)
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) onKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		return m, m.submit()
	}

	if !m.view.HasIdentity() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(key)
		return m, cmd
	}

	controller := m.controller
	switch key.String() {
	case "ctrl+n", "ctrl+p":
		room := m.neighbour(1)
		if key.String() == "ctrl+p" {
			room = m.neighbour(-1)
		}
		return m, m.calls.push("switch", "", func(ctx context.Context) error { return controller.SwitchRoom(ctx, room) })
	case "ctrl+l":
		m.input.Reset()
		return m, m.calls.push("logout", "", controller.Logout)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if m.input.Value() != before {
		cmd = tea.Batch(cmd, m.calls.push("input", "", controller.InputChanged))
	}
	return m, cmd
}

// submit logs in while no identity is set, sends the input otherwise.
func (m *Model) submit() tea.Cmd {
	controller, text := m.controller, m.input.Value()
	if !m.view.HasIdentity() {
		return m.calls.push("login", text, func(ctx context.Context) error {
			return controller.Login(ctx, strings.TrimSpace(text))
		})
	}
	return m.calls.push("send", text, func(ctx context.Context) error { return controller.Send(ctx, text) })
}

// onResult keeps the error for the status line. A submitted input is
// cleared once accepted, unless it was edited in the meantime.
func (m *Model) onResult(result resultMsg) {
	err := result.err
	// an empty message is silently ignored
	if result.op == "send" && stderrors.Is(err, errors.ErrEmptyMessage) {
		err = nil
	}
	m.err = err
	submitted := result.op == "login" || result.op == "send"
	if submitted && err == nil && m.input.Value() == result.text {
		m.input.Reset()
	}
	m.refresh()
}

func (m *Model) neighbour(step int) domain.RoomID {
	rooms := m.view.Rooms
	if len(rooms) == 0 {
		return ""
	}
	_, index, _ := lo.FindIndexOf(rooms, func(room domain.RoomID) bool { return room == m.view.ActiveRoom })
	index = ((index+step)%len(rooms) + len(rooms)) % len(rooms)
	return rooms[index]
}

func (m *Model) refresh() {
	m.view = m.controller.View()
	m.syncPrompt()
	m.messages.SetContent(m.renderMessages())
	m.messages.GotoBottom()
}

func (m *Model) syncPrompt() {
	if m.view.HasIdentity() {
		m.input.Prompt = fmt.Sprintf("%s > ", m.view.Identity)
		m.input.Placeholder = "Write a message"
		return
	}
	m.input.Prompt = "username > "
	m.input.Placeholder = fmt.Sprintf("between %d and %d characters", domain.MinIdentityLength, domain.MaxIdentityLength)
}

func (m *Model) resize() {
	width := max(m.width-roomsWidth-2, 20)
	height := max(m.height-4-len(m.view.TypingUsers), 3)
	m.messages.Width = width
	m.messages.Height = height
	m.input.Width = width
	m.messages.SetContent(m.renderMessages())
}

func (m Model) View() string {
	if !m.view.HasIdentity() {
		return lipgloss.JoinVertical(lipgloss.Left,
			"Choose a username to start chatting",
			m.input.View(),
			m.renderStatus(),
		)
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.messages.View(),
		m.renderTyping(),
		m.input.View(),
		m.renderStatus(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, roomsStyle.Render(m.renderRooms()), right)
}

func (m Model) renderRooms() string {
	lines := lo.Map(m.view.Rooms, func(room domain.RoomID, _ int) string {
		label := string(room)
		if n := m.unread.Unread(room); n > 0 && room != m.view.ActiveRoom {
			label += " " + unreadStyle.Render(fmt.Sprintf("(%d)", n))
		}
		if room == m.view.ActiveRoom {
			return activeRoomStyle.Render(label)
		}
		return roomStyle.Render(label)
	})
	return strings.Join(lines, "\n")
}

func (m Model) renderMessages() string {
	if m.view.Loaded && len(m.view.Messages) == 0 {
		return hintStyle.Render("No messages yet!")
	}
	lines := lo.Map(m.view.Messages, func(message domain.Message, _ int) string {
		return fmt.Sprintf("%s %s %s",
			dateStyle.Render(message.At.Local().Format("15:04")),
			authorStyle.Render(message.User.String()+":"),
			message.Text)
	})
	return strings.Join(lines, "\n")
}

func (m Model) renderTyping() string {
	lines := lo.Map(m.view.TypingUsers, func(user domain.Identity, _ int) string {
		return hintStyle.Render(fmt.Sprintf("%s is typing...", user))
	})
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	return statusStyle.Render(fmt.Sprintf("%s  ctrl+n/ctrl+p rooms  ctrl+l logout  esc quit", m.view.ConnectionState))
}
