// Package tui is a terminal viewer for a published document. It implements
// the navigator's surface on top of a bubbletea program.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/msgcat"
	"github.com/park285/cheese-diagram-player/internal/navigator"
)

// redrawMsg asks the model to repaint after the screen changed.
type redrawMsg struct{}

// actionMsg reports the outcome of a controller call.
type actionMsg struct{ err error }

// Model lists every move of the document and shows one diagram at a time:
// the framed one, or the one holding the selected move.
type Model struct {
	ctx    context.Context
	ctrl   *navigator.Controller
	screen *Screen
	doc    *domain.Document
	labels msgcat.Labels

	moves  []*domain.MoveNode
	cursor int
	width  int
	status string
}

func NewModel(ctx context.Context, ctrl *navigator.Controller, screen *Screen, labels msgcat.Labels) Model {
	doc := ctrl.Document()
	m := Model{ctx: ctx, ctrl: ctrl, screen: screen, doc: doc, labels: labels}
	for _, start := range doc.Starts() {
		chain, err := doc.Chain(start.ID)
		if err != nil {
			continue
		}
		m.moves = append(m.moves, chain...)
	}
	return m
}

func waitForRedraw(s *Screen) tea.Cmd {
	return func() tea.Msg {
		<-s.Dirty()
		return redrawMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return waitForRedraw(m.screen)
}

// call runs fn off the event loop. The controller blocks while it stops a
// running sequence, and that sequence draws through the screen.
func (m Model) call(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case redrawMsg:
		if cur := m.ctrl.Snapshot().Current; cur != nil {
			m.follow(cur.ID)
		}
		return m, waitForRedraw(m.screen)
	case actionMsg:
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		return m, m.call(func(ctx context.Context) error {
			m.ctrl.HandleKey(ctx, navigator.KeyLeft)
			return nil
		})
	case "right", "l":
		return m, m.call(func(ctx context.Context) error {
			m.ctrl.HandleKey(ctx, navigator.KeyRight)
			return nil
		})
	case " ":
		if !m.ctrl.Snapshot().Framed() {
			return m, nil
		}
		return m, m.call(func(ctx context.Context) error {
			m.ctrl.TogglePlayPause(ctx)
			return nil
		})
	case "esc":
		return m, m.call(func(ctx context.Context) error {
			m.ctrl.ExitFrame(ctx)
			return nil
		})
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.moves)-1 {
			m.cursor++
		}
	case "enter":
		if n := m.selected(); n != nil {
			id := n.ID
			return m, m.call(func(ctx context.Context) error { return m.ctrl.SelectMove(ctx, id) })
		}
	case "f":
		if n := m.selected(); n != nil {
			dg := n.Diagram
			return m, m.call(func(ctx context.Context) error { return m.ctrl.EnterFrame(ctx, dg) })
		}
	}
	return m, nil
}

func (m Model) selected() *domain.MoveNode {
	if m.cursor < 0 || m.cursor >= len(m.moves) {
		return nil
	}
	return m.moves[m.cursor]
}

func (m *Model) follow(id int) {
	for i, n := range m.moves {
		if n.ID == id {
			m.cursor = i
			return
		}
	}
}

// visibleDiagram is the framed diagram, else the selected move's.
func (m Model) visibleDiagram() int {
	if st := m.ctrl.Snapshot(); st.Framed() {
		return st.FramedDiagram
	}
	if n := m.selected(); n != nil {
		return n.Diagram
	}
	if len(m.doc.Diagrams) > 0 {
		return m.doc.Diagrams[0].Index
	}
	return domain.NoDiagram
}

// Run starts the program on the terminal and closes the controller once the
// user quits.
func Run(ctx context.Context, ctrl *navigator.Controller, screen *Screen, labels msgcat.Labels, opts ...tea.ProgramOption) error {
	defer ctrl.Close()
	p := tea.NewProgram(NewModel(ctx, ctrl, screen, labels), append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
