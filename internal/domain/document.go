package domain

import (
	"fmt"
	"io"
	"os"
	"sort"

	yaml "gopkg.in/yaml.v3"
)

// NoMove marks a missing prev/next link. NoDiagram marks "nothing framed".
const (
	NoMove    = -1
	NoDiagram = -1
)

// MoveNode is one ply of a published line. Nodes are immutable once a
// Document is indexed.
type MoveNode struct {
	ID        int    `yaml:"id" json:"id"`
	Diagram   int    `yaml:"diagram" json:"diagram"`
	Position  string `yaml:"position" json:"position"`
	Text      string `yaml:"text" json:"text"`
	Prev      int    `yaml:"prev" json:"prev"`
	Next      int    `yaml:"next" json:"next"`
	Token     string `yaml:"token" json:"token"`
	Variation bool   `yaml:"variation,omitempty" json:"variation,omitempty"`
}

// IsInitial reports the first node of a chain (no move to retreat over).
func (n *MoveNode) IsInitial() bool { return n.Prev == NoMove }

// IsTerminal reports the last node of a chain.
func (n *MoveNode) IsTerminal() bool { return n.Next == NoMove }

// Diagram is one rendered board and the position it shows at rest.
type Diagram struct {
	Index    int    `yaml:"index" json:"index"`
	Position string `yaml:"position" json:"position"`
}

// Document is everything a page embeds: its diagrams and move nodes.
type Document struct {
	Title    string     `yaml:"title,omitempty" json:"title,omitempty"`
	Diagrams []Diagram  `yaml:"diagrams" json:"diagrams"`
	Moves    []MoveNode `yaml:"moves" json:"moves"`

	moves    map[int]*MoveNode
	diagrams map[int]*Diagram
}

var (
	ErrUnknownMove     = errf("unknown move")
	ErrUnknownDiagram  = errf("unknown diagram")
	ErrInvalidDocument = errf("invalid document")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

// Index builds the lookup tables and checks link integrity. It must be
// called before Move/Diagram lookups; Decode and LoadFile call it.
func (d *Document) Index() error {
	d.diagrams = make(map[int]*Diagram, len(d.Diagrams))
	for i := range d.Diagrams {
		dg := &d.Diagrams[i]
		if dg.Index < 0 {
			return fmt.Errorf("%w: diagram index %d", ErrInvalidDocument, dg.Index)
		}
		if _, dup := d.diagrams[dg.Index]; dup {
			return fmt.Errorf("%w: duplicate diagram %d", ErrInvalidDocument, dg.Index)
		}
		d.diagrams[dg.Index] = dg
	}
	d.moves = make(map[int]*MoveNode, len(d.Moves))
	for i := range d.Moves {
		n := &d.Moves[i]
		if n.ID == NoMove {
			return fmt.Errorf("%w: move id %d is reserved", ErrInvalidDocument, NoMove)
		}
		if _, dup := d.moves[n.ID]; dup {
			return fmt.Errorf("%w: duplicate move %d", ErrInvalidDocument, n.ID)
		}
		if _, ok := d.diagrams[n.Diagram]; !ok {
			return fmt.Errorf("%w: move %d refers to diagram %d", ErrInvalidDocument, n.ID, n.Diagram)
		}
		d.moves[n.ID] = n
	}
	for _, n := range d.moves {
		if n.Next != NoMove {
			next, ok := d.moves[n.Next]
			if !ok {
				return fmt.Errorf("%w: move %d next %d missing", ErrInvalidDocument, n.ID, n.Next)
			}
			if next.Prev != n.ID {
				return fmt.Errorf("%w: move %d next %d links back to %d", ErrInvalidDocument, n.ID, n.Next, next.Prev)
			}
		}
		if n.Prev != NoMove {
			if _, ok := d.moves[n.Prev]; !ok {
				return fmt.Errorf("%w: move %d prev %d missing", ErrInvalidDocument, n.ID, n.Prev)
			}
		}
	}
	return d.checkAcyclic()
}

// checkAcyclic rejects next links that loop, so every walk forward ends.
func (d *Document) checkAcyclic() error {
	const (
		walking = 1
		ended   = 2
	)
	state := make(map[int]int, len(d.Moves))
	for i := range d.Moves {
		var path []int
		for id := d.Moves[i].ID; id != NoMove && state[id] != ended; id = d.moves[id].Next {
			if state[id] == walking {
				return fmt.Errorf("%w: move %d is part of a cycle", ErrInvalidDocument, id)
			}
			state[id] = walking
			path = append(path, id)
		}
		for _, id := range path {
			state[id] = ended
		}
	}
	return nil
}

// Move looks a node up by id.
func (d *Document) Move(id int) (*MoveNode, error) {
	if n, ok := d.moves[id]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMove, id)
}

// Diagram looks a diagram up by index.
func (d *Document) Diagram(index int) (*Diagram, error) {
	if dg, ok := d.diagrams[index]; ok {
		return dg, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownDiagram, index)
}

// Chain returns the linear line through id, first node first.
func (d *Document) Chain(id int) ([]*MoveNode, error) {
	n, err := d.Move(id)
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{n.ID: true}
	for n.Prev != NoMove {
		p, ok := d.moves[n.Prev]
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		n = p
	}
	out := []*MoveNode{n}
	for n.Next != NoMove {
		nx, ok := d.moves[n.Next]
		if !ok || nx.Prev != n.ID {
			break
		}
		out = append(out, nx)
		n = nx
	}
	return out, nil
}

// Starts returns every chain head in id order.
func (d *Document) Starts() []*MoveNode {
	var out []*MoveNode
	for i := range d.Moves {
		if d.Moves[i].IsInitial() {
			out = append(out, &d.Moves[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Decode reads a YAML document and indexes it.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Index(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads a YAML document from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteYAML encodes the document.
func (d *Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return enc.Close()
}
