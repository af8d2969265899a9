package diagramdto

import (
	"github.com/park285/cheese-diagram-player/internal/domain"
	"github.com/park285/cheese-diagram-player/internal/notation"
)

// Document is the JSON view of a published game.
type Document struct {
	Title    string    `json:"title"`
	Diagrams []Diagram `json:"diagrams"`
}

// Diagram lists the moves it shows, in chain order.
type Diagram struct {
	Index    int      `json:"index"`
	Position string   `json:"position"`
	Rows     []string `json:"rows"`
	Image    string   `json:"image"`
	Moves    []Move   `json:"moves"`
}

type Move struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Prev      int    `json:"prev"`
	Next      int    `json:"next"`
	Token     string `json:"token,omitempty"`
	Initial   bool   `json:"initial,omitempty"`
	Variation bool   `json:"variation,omitempty"`
	Image     string `json:"image"`
}

// FromDocument groups the moves of doc by diagram. Image links are relative
// to the server root.
func FromDocument(doc *domain.Document) Document {
	out := Document{Title: doc.Title, Diagrams: make([]Diagram, 0, len(doc.Diagrams))}
	byDiagram := make(map[int]int, len(doc.Diagrams))
	for _, dg := range doc.Diagrams {
		rows := notation.ParseBoard(dg.Position).Rows()
		byDiagram[dg.Index] = len(out.Diagrams)
		out.Diagrams = append(out.Diagrams, Diagram{
			Index:    dg.Index,
			Position: dg.Position,
			Rows:     rows[:],
			Image:    DiagramImagePath(dg.Index),
			Moves:    []Move{},
		})
	}
	for _, head := range doc.Starts() {
		chain, err := doc.Chain(head.ID)
		if err != nil {
			continue
		}
		for _, n := range chain {
			i, ok := byDiagram[n.Diagram]
			if !ok {
				continue
			}
			out.Diagrams[i].Moves = append(out.Diagrams[i].Moves, Move{
				ID:        n.ID,
				Text:      n.Text,
				Prev:      n.Prev,
				Next:      n.Next,
				Token:     n.Token,
				Initial:   n.IsInitial(),
				Variation: n.Variation,
				Image:     MoveImagePath(n.ID),
			})
		}
	}
	return out
}
