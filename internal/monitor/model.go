// Package monitor renders the live pipeline state and event log in the
// terminal.
package monitor

import (
	"fmt"
	"strings"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/events"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultMaxEvents = 12
	defaultWidth     = 80
)

type (
	StateMsg orchestration.State
	EventMsg struct{ Event events.Event }
	DoneMsg  struct{ Err error }
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type Model struct {
	spinner spinner.Model
	state   orchestration.State
	lines   []string
	width   int
	err     error
	done    bool

	maxEvents int
	onQuit    func()
}

// NewModel creates the monitor view. onQuit runs once when the user quits.
func NewModel(onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = stateStyle

	return Model{
		spinner:   s,
		width:     defaultWidth,
		maxEvents: defaultMaxEvents,
		onQuit:    onQuit,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.onQuit != nil {
				m.onQuit()
				m.onQuit = nil
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case StateMsg:
		m.state = orchestration.State(msg)
	case EventMsg:
		m.lines = append(m.lines, FormatEvent(msg.Event))
		if len(m.lines) > m.maxEvents {
			m.lines = m.lines[len(m.lines)-m.maxEvents:]
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("openclaw assistant"))
	b.WriteString("\n\n")

	indicator := m.spinner.View()
	if m.done || m.state == orchestration.StateIdle {
		indicator = "•"
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", indicator, stateStyle.Render(m.state.String())))

	wrap := max(20, m.width-2)
	if len(m.lines) == 0 {
		b.WriteString(mutedStyle.Render("waiting for events"))
		b.WriteString("\n")
	}
	for _, line := range m.lines {
		b.WriteString(wordwrap.String(line, wrap))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(wordwrap.String("error: "+m.err.Error(), wrap)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

// FormatEvent renders one event as a log line.
func FormatEvent(event events.Event) string {
	stamp := event.Timestamp().Format("15:04:05")
	switch e := event.(type) {
	case events.WakeDetected:
		return fmt.Sprintf("%s wake detected (%s)", stamp, e.Label)
	case events.ListenStarted:
		return fmt.Sprintf("%s listening", stamp)
	case events.AudioCaptured:
		return fmt.Sprintf("%s captured %d samples", stamp, e.SampleCount)
	case events.TextTranscribed:
		if e.Text == "" {
			return fmt.Sprintf("%s heard nothing", stamp)
		}
		return fmt.Sprintf("%s heard %q", stamp, e.Text)
	case events.ActionCompleted:
		return fmt.Sprintf("%s gateway replied %q", stamp, e.Response)
	case events.ResponseSpoken:
		return fmt.Sprintf("%s spoke response", stamp)
	case events.PipelineError:
		return errorStyle.Render(fmt.Sprintf("%s %s failed: %s", stamp, e.Stage, e.Error))
	}
	return fmt.Sprintf("%s %s", stamp, event.Kind())
}
