package diagramdto

import "fmt"

func DiagramImagePath(index int) string { return fmt.Sprintf("/diagrams/%d.png", index) }
func MoveImagePath(id int) string       { return fmt.Sprintf("/moves/%d.png", id) }
