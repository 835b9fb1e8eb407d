// Package ui is a small retained widget tree. Widgets are not safe for
// concurrent use; all mutation and rendering goes through a Loop.
package ui

import "github.com/google/uuid"

// Widget is anything that can be placed in a container and rendered
type Widget interface {
	ID() string
	Render() Node
}

// Container is a widget holding other widgets
type Container interface {
	Widget
	Children() []Widget
}

// Node is the serializable render of a widget subtree
type Node struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Text      string   `json:"text,omitempty"`
	Fraction  *float64 `json:"fraction,omitempty"`
	ShowText  bool     `json:"show_text,omitempty"`
	MarginTop int      `json:"margin_top,omitempty"`
	Spacing   int      `json:"spacing,omitempty"`
	HExpand   bool     `json:"hexpand,omitempty"`
	VExpand   bool     `json:"vexpand,omitempty"`
	Children  []Node   `json:"children,omitempty"`
}

type base struct {
	id string
}

func newBase() base {
	return base{id: uuid.NewString()}
}

func (b *base) ID() string {
	return b.id
}

func renderAll(widgets []Widget) []Node {
	if len(widgets) == 0 {
		return nil
	}
	nodes := make([]Node, 0, len(widgets))
	for _, w := range widgets {
		nodes = append(nodes, w.Render())
	}
	return nodes
}

// walk visits w and every descendant depth-first until visit returns false
func walk(w Widget, visit func(Widget) bool) bool {
	if !visit(w) {
		return false
	}
	if c, ok := w.(Container); ok {
		for _, child := range c.Children() {
			if !walk(child, visit) {
				return false
			}
		}
	}
	return true
}
