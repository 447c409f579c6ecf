package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arjenvrh/taskqueue/internal/events"
)

// LogPaneModel is a scrollable log of every task-state transition observed
// on the event bus, newest at the bottom.
type LogPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewLogPaneModel creates a new log pane model.
func NewLogPaneModel() LogPaneModel {
	return LogPaneModel{
		viewport: viewport.New(0, 0),
	}
}

// Update handles messages for the log pane.
func (m LogPaneModel) Update(msg tea.Msg) (LogPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		m.viewport, cmd = m.viewport.Update(msg)

	case events.TaskStateChangedEvent:
		m.appendLine(fmt.Sprintf("[%s] %s -> %s", msg.Queue, msg.ID, msg.State))

	case events.TaskSucceededEvent:
		m.appendLine(StyleStatusSucceeded.Render(fmt.Sprintf("[%s] %s succeeded", msg.Queue, msg.ID)))

	case events.TaskFailedEvent:
		m.appendLine(StyleStatusFailed.Render(fmt.Sprintf("[%s] %s failed: %s", msg.Queue, msg.ID, msg.Reason)))
	}

	return m, cmd
}

func (m *LogPaneModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders the log pane.
func (m LogPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	title := StyleTitle.Render("Task Log")
	content := title + "\n" + strings.Repeat("=", lipgloss.Width(title)) + "\n\n" + m.viewport.View()

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m *LogPaneModel) resizeViewport() {
	m.viewport.Width = m.width - 4
	height := m.height - 5
	if height < 1 {
		height = 1
	}
	m.viewport.Height = height
}

// SetSize updates the pane dimensions.
func (m *LogPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *LogPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
