package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views. It tracks the terminal size and the
// status line shown above a view's content.
type CommonModel struct {
	width  int
	height int
	status string
}

func (c *CommonModel) resize(msg tea.WindowSizeMsg) {
	c.width = msg.Width
	c.height = msg.Height
}

// statusLine renders the status followed by a newline, or nothing.
func (c CommonModel) statusLine() string {
	if c.status == "" {
		return ""
	}

	return faintStyle.Render(c.status) + "\n"
}

// Resize replays a known terminal size to a view opened after startup.
func Resize(width, height int) tea.Cmd {
	if width == 0 && height == 0 {
		return nil
	}

	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: width, Height: height}
	}
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
