package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arjenvrh/taskqueue/internal/events"
)

// queueTally is the latest known tally for one queue.
type queueTally struct {
	waiting, running, succeeded, failed int
}

// QueuePaneModel renders a live tally of every queue the demo program knows
// about, driven by events.QueueProgressEvent.
type QueuePaneModel struct {
	tallies map[string]queueTally
	order   []string // queue names seen so far; View renders them sorted by name
	spinner spinner.Model
	width   int
	height  int
	focused bool
}

// NewQueuePaneModel creates a new queue pane model.
func NewQueuePaneModel() QueuePaneModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleStatusRunning
	return QueuePaneModel{
		tallies: make(map[string]queueTally),
		spinner: s,
	}
}

// Update handles messages for the queue pane.
func (m QueuePaneModel) Update(msg tea.Msg) (QueuePaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.QueueProgressEvent:
		if _, seen := m.tallies[msg.Queue]; !seen {
			m.order = append(m.order, msg.Queue)
		}
		m.tallies[msg.Queue] = queueTally{
			waiting:   msg.Waiting,
			running:   msg.Running,
			succeeded: msg.Succeeded,
			failed:    msg.Failed,
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	}

	return m, cmd
}

// anyRunning reports whether any known queue currently has active tasks.
func (m QueuePaneModel) anyRunning() bool {
	for _, t := range m.tallies {
		if t.running > 0 {
			return true
		}
	}
	return false
}

// View renders the queue pane.
func (m QueuePaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Queues")
	if m.anyRunning() {
		title = m.spinner.View() + " " + title
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(StyleStatusWaiting.Render("No queues reporting yet."))
	} else {
		names := append([]string(nil), m.order...)
		sort.Strings(names)
		for _, name := range names {
			t := m.tallies[name]
			total := t.waiting + t.running + t.succeeded + t.failed
			b.WriteString(fmt.Sprintf("%-12s %s\n", name, m.bar(t, total)))
			b.WriteString(fmt.Sprintf("  waiting:%d running:%s succeeded:%s failed:%s\n",
				t.waiting,
				StyleStatusRunning.Render(fmt.Sprintf("%d", t.running)),
				StyleStatusSucceeded.Render(fmt.Sprintf("%d", t.succeeded)),
				StyleStatusFailed.Render(fmt.Sprintf("%d", t.failed))))
		}
	}

	content := b.String()

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m QueuePaneModel) bar(t queueTally, total int) string {
	if total == 0 {
		return "[]"
	}
	width := min(m.width-20, 30)
	if width < 1 {
		width = 1
	}
	succeededWidth := (t.succeeded * width) / total
	failedWidth := (t.failed * width) / total
	runningWidth := (t.running * width) / total
	waitingWidth := width - succeededWidth - failedWidth - runningWidth

	bar := StyleStatusSucceeded.Render(strings.Repeat("=", max(0, succeededWidth)))
	bar += StyleStatusFailed.Render(strings.Repeat("!", max(0, failedWidth)))
	bar += StyleStatusRunning.Render(strings.Repeat("-", max(0, runningWidth)))
	bar += StyleStatusWaiting.Render(strings.Repeat(".", max(0, waitingWidth)))
	return fmt.Sprintf("[%s]", bar)
}

// SetSize updates the pane dimensions.
func (m *QueuePaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *QueuePaneModel) SetFocused(focused bool) {
	m.focused = focused
}

// Tick returns the spinner's animation command, to be chained into Init.
func (m QueuePaneModel) Tick() tea.Cmd {
	return m.spinner.Tick
}
