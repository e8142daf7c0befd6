package ui

import "github.com/charmbracelet/lipgloss"

const roomsWidth = 18

var (
	roomStyle       = lipgloss.NewStyle().PaddingLeft(1)
	activeRoomStyle = lipgloss.NewStyle().PaddingLeft(1).Bold(true).Foreground(lipgloss.Color("12"))
	unreadStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	roomsStyle      = lipgloss.NewStyle().Width(roomsWidth).BorderStyle(lipgloss.NormalBorder()).BorderRight(true)
	authorStyle     = lipgloss.NewStyle().Bold(true)
	dateStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
