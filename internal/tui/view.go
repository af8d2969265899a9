package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/notation"
	"github.com/park285/cheese-diagram-player/internal/surface"
)

var (
	colorLight  = lipgloss.Color("#f0d9b5")
	colorDark   = lipgloss.Color("#b58863")
	colorFramed = lipgloss.Color("#ccaa48")
	colorMuted  = lipgloss.Color("#7f7f7f")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Italic(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	buttonStyle  = lipgloss.NewStyle().Bold(true)
	currentStyle = lipgloss.NewStyle().Reverse(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	framedBox    = boxStyle.BorderForeground(colorFramed)
)

var glyphs = map[notation.Color]map[notation.Kind]string{
	notation.White: {
		notation.King: "♔", notation.Queen: "♕", notation.Rook: "♖",
		notation.Bishop: "♗", notation.Knight: "♘", notation.Pawn: "♙",
	},
	notation.Black: {
		notation.King: "♚", notation.Queen: "♛", notation.Rook: "♜",
		notation.Bishop: "♝", notation.Knight: "♞", notation.Pawn: "♟",
	},
}

func glyph(p notation.Piece) string {
	if p.IsEmpty() {
		return " "
	}
	if g, ok := glyphs[p.Color][p.Kind]; ok {
		return g
	}
	return string(p.Letter())
}

func toneColor(t notation.Tone) lipgloss.Color {
	switch t {
	case notation.ToneLight:
		return colorLight
	case notation.ToneFramed:
		return colorFramed
	default:
		return colorDark
	}
}

func (m Model) View() string {
	v := m.screen.snapshot()
	var b strings.Builder
	title := m.doc.Title
	if title == "" {
		title = "Untitled"
	}
	index := m.visibleDiagram()
	b.WriteString(titleStyle.Render(m.labels.Text("tui.title",
		map[string]any{"Title": title, "Diagram": index + 1},
		fmt.Sprintf("%s: diagram %d", title, index+1))))
	b.WriteString("\n\n")

	board := lipgloss.JoinVertical(lipgloss.Left,
		m.renderBoard(index, v),
		m.renderControls(index, v),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", m.renderMoves(index, v)))
	b.WriteString("\n")
	switch {
	case m.status != "":
		b.WriteString(m.status)
		b.WriteString("\n")
	case !m.ctrl.Snapshot().Framed():
		b.WriteString(m.labels.Text("tui.no_frame", nil, "No diagram framed. Choose a move with ↑/↓ and press enter."))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(m.labels.Text("tui.help", nil,
		"←/→ step · space play/pause · ↑/↓ choose move · enter jump · f frame · esc exit frame · q quit")))
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

// renderBoard draws a diagram as the screen has it, or at rest when the
// navigator has not drawn it yet.
func (m Model) renderBoard(index int, v view) string {
	p, ok := v.panes[index]
	if !ok {
		dg, err := m.doc.Diagram(index)
		if err != nil {
			return boxStyle.Render("no diagram")
		}
		p = pane{board: notation.ParseBoard(dg.Position)}
	}

	roverCell := -1
	if r := v.rover; r != nil && r.diagram == index {
		c := notation.Coord{File: int(math.Round(r.file)), Rank: int(math.Round(r.rank))}
		if c.Valid() {
			roverCell = c.Cell()
		}
	}

	rows := make([]string, 0, 8)
	for row := range 8 {
		var line strings.Builder
		for col := range 8 {
			cell := row*8 + col
			asset := notation.Asset(&p.board, cell, p.framed)
			if o, ok := p.overlays[cell]; ok {
				asset = o
			}
			piece := asset.Piece
			if cell == roverCell {
				piece = v.rover.piece
			}
			style := lipgloss.NewStyle().Background(toneColor(asset.Tone))
			if !piece.IsEmpty() {
				fg := lipgloss.Color("#000000")
				if piece.Color == notation.White {
					fg = lipgloss.Color("#ffffff")
				}
				style = style.Foreground(fg).Bold(true)
			}
			line.WriteString(style.Render(" " + glyph(piece) + " "))
		}
		rows = append(rows, line.String())
	}
	label := p.label
	if label == "" {
		label = fmt.Sprintf("Diagram %d", index+1)
	}
	rows = append(rows, labelStyle.Render(label))

	box := boxStyle
	if p.framed {
		box = framedBox
	}
	return box.Render(strings.Join(rows, "\n"))
}

func (m Model) renderControls(index int, v view) string {
	p, ok := v.panes[index]
	if !ok || p.controls == nil {
		return ""
	}
	c := *p.controls
	button := func(on bool, s string) string {
		if on {
			return buttonStyle.Render(s)
		}
		return mutedStyle.Render(s)
	}
	caption := func(key string) string { return m.labels.Text("controls."+key, nil, key) }
	play := "[   ]"
	switch c.Play {
	case surface.GlyphPlay:
		play = "[▶ " + caption("play") + "]"
	case surface.GlyphPause:
		play = "[⏸ " + caption("pause") + "]"
	}
	return strings.Join([]string{
		button(c.Back, "[◀ "+caption("back")+"]"),
		button(c.Play != surface.GlyphNone, play),
		button(c.Forward, "["+caption("forward")+" ▶▶]"),
		buttonStyle.Render("[esc "+caption("exit")+"]"),
	}, " ")
}

// renderMoves lists the moves shown by diagram index.
func (m Model) renderMoves(index int, v view) string {
	var lines []string
	for i, n := range m.moves {
		if n.Diagram != index {
			continue
		}
		text := moveText(n)
		if v.highlighted[n.ID] {
			text = currentStyle.Render(text)
		}
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		lines = append(lines, marker+text)
	}
	if len(lines) == 0 {
		return mutedStyle.Render("no moves")
	}
	return strings.Join(lines, "\n")
}

func moveText(n *domain.MoveNode) string {
	if n.IsInitial() {
		return "(start)"
	}
	if n.Variation {
		return "  " + n.Text
	}
	return n.Text
}
