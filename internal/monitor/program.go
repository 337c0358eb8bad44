package monitor

import (
	"context"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/events"
	tea "github.com/charmbracelet/bubbletea"
)

// Program feeds pipeline activity into a running monitor view.
type Program struct {
	program *tea.Program
}

func NewProgram(onQuit func(), opts ...tea.ProgramOption) *Program {
	return &Program{program: tea.NewProgram(NewModel(onQuit), opts...)}
}

// Observe forwards every pipeline event to the view.
func (p *Program) Observe(_ context.Context, event events.Event, _ *orchestration.RuntimeContext) error {
	p.program.Send(EventMsg{Event: event})
	return nil
}

// SetState is an orchestrator state listener.
func (p *Program) SetState(state orchestration.State) {
	p.program.Send(StateMsg(state))
}

// Done shows err, if any, and closes the view.
func (p *Program) Done(err error) {
	p.program.Send(DoneMsg{Err: err})
}

// Run blocks until the view is closed.
func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}
