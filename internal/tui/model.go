package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arjenvrh/taskqueue/internal/config"
	"github.com/arjenvrh/taskqueue/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneLog PaneID = iota
	PaneQueues
)

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	logPane     LogPaneModel
	queuePane   QueuePaneModel
	focusedPane PaneID
	eventSub    <-chan events.Event
	width       int
	height      int
	quitting    bool
	config      *config.DemoConfig
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll.
func New(eventBus *events.EventBus, cfg *config.DemoConfig) Model {
	return Model{
		logPane:     NewLogPaneModel(),
		queuePane:   NewQueuePaneModel(),
		focusedPane: PaneLog,
		eventSub:    eventBus.SubscribeAll(256),
		config:      cfg,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventSub), m.queuePane.Tick())
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeyTab:
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		case KeyShiftTab:
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		default:
			switch m.focusedPane {
			case PaneLog:
				var cmd tea.Cmd
				m.logPane, cmd = m.logPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneQueues:
				var cmd tea.Cmd
				m.queuePane, cmd = m.queuePane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case events.TaskStateChangedEvent, events.TaskSucceededEvent, events.TaskFailedEvent:
		var cmd tea.Cmd
		m.logPane, cmd = m.logPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.QueueProgressEvent:
		var cmd tea.Cmd
		m.queuePane, cmd = m.queuePane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.queuePane, cmd = m.queuePane.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	logView := m.logPane.View()
	queueView := m.queuePane.View()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, logView, queueView)
	helpBar := HelpView()

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, helpBar)
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 60) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1 // reserve 1 line for the help bar

	m.logPane.SetSize(leftWidth, availableHeight)
	m.queuePane.SetSize(rightWidth, availableHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.logPane.SetFocused(m.focusedPane == PaneLog)
	m.queuePane.SetFocused(m.focusedPane == PaneQueues)
}
