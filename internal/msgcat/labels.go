package msgcat

// Labels produces the captions shown under a diagram.
type Labels struct {
	cat *Catalog
}

func NewLabels(cat *Catalog) Labels { return Labels{cat: cat} }

// PositionAfter captions the position reached by a move.
func (l Labels) PositionAfter(moveText string) string {
	return l.cat.RenderOr("label.position_after", map[string]any{"Move": moveText}, "Position after "+moveText)
}

// Initial captions the start of a chain.
func (l Labels) Initial() string {
	return l.cat.RenderOr("label.initial_position", nil, "Initial position")
}

// Clickable captions a diagram that is not framed.
func (l Labels) Clickable() string {
	return l.cat.RenderOr("label.clickable", nil, "Moves are clickable")
}

// For picks the caption of a resting position: Initial for a chain head,
// PositionAfter otherwise.
func (l Labels) For(moveText string, initial bool) string {
	if initial {
		return l.Initial()
	}
	return l.PositionAfter(moveText)
}

// Text looks up any other message with a fallback.
func (l Labels) Text(key string, data any, fallback string) string {
	return l.cat.RenderOr(key, data, fallback)
}
