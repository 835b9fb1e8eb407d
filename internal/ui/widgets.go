package ui

import "math"

// Box lays out its children vertically in insertion order
type Box struct {
	base
	spacing  int
	children []Widget
}

// NewBox creates an empty vertical box
func NewBox(spacing int) *Box {
	return &Box{base: newBase(), spacing: spacing}
}

// Append adds w at the end of the box
func (b *Box) Append(w Widget) {
	b.children = append(b.children, w)
}

// Remove detaches w. Removing a widget that is not a child is a no-op.
func (b *Box) Remove(w Widget) {
	for i, child := range b.children {
		if child == w {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}

func (b *Box) Children() []Widget {
	return b.children
}

func (b *Box) Len() int {
	return len(b.children)
}

func (b *Box) Render() Node {
	return Node{ID: b.id, Kind: "box", Spacing: b.spacing, Children: renderAll(b.children)}
}

// ScrolledWindow is a scrollable viewport around a single child
type ScrolledWindow struct {
	base
	child   Widget
	hexpand bool
	vexpand bool
}

func NewScrolledWindow() *ScrolledWindow {
	return &ScrolledWindow{base: newBase()}
}

func (s *ScrolledWindow) SetChild(w Widget) { s.child = w }
func (s *ScrolledWindow) SetHExpand(v bool) { s.hexpand = v }
func (s *ScrolledWindow) SetVExpand(v bool) { s.vexpand = v }

func (s *ScrolledWindow) Children() []Widget {
	if s.child == nil {
		return nil
	}
	return []Widget{s.child}
}

func (s *ScrolledWindow) Render() Node {
	return Node{
		ID:       s.id,
		Kind:     "scroll",
		HExpand:  s.hexpand,
		VExpand:  s.vexpand,
		Children: renderAll(s.Children()),
	}
}

// Label displays a single line of text
type Label struct {
	base
	text      string
	marginTop int
}

// NewLabel creates an empty label with the given top margin
func NewLabel(marginTop int) *Label {
	return &Label{base: newBase(), marginTop: marginTop}
}

func (l *Label) SetText(text string) { l.text = text }
func (l *Label) Text() string { return l.text }
func (l *Label) MarginTop() int { return l.marginTop }

func (l *Label) Render() Node {
	return Node{ID: l.id, Kind: "label", Text: l.text, MarginTop: l.marginTop}
}

// ProgressBar shows a fraction in [0, 1] with an optional text overlay
type ProgressBar struct {
	base
	fraction float64
	text     string
	showText bool
}

func NewProgressBar() *ProgressBar {
	return &ProgressBar{base: newBase()}
}

// SetFraction clamps f into [0, 1]; NaN is stored as 0
func (p *ProgressBar) SetFraction(f float64) {
	switch {
	case math.IsNaN(f), f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	p.fraction = f
}

func (p *ProgressBar) Fraction() float64 { return p.fraction }
func (p *ProgressBar) SetText(text string) { p.text = text }
func (p *ProgressBar) Text() string { return p.text }
func (p *ProgressBar) SetShowText(show bool) { p.showText = show }
func (p *ProgressBar) ShowText() bool { return p.showText }

func (p *ProgressBar) Render() Node {
	fraction := p.fraction
	return Node{ID: p.id, Kind: "progress", Text: p.text, Fraction: &fraction, ShowText: p.showText}
}

// Button is a labeled push button
type Button struct {
	base
	label    string
	handlers []func()
}

func NewButton(label string) *Button {
	return &Button{base: newBase(), label: label}
}

func (b *Button) Label() string { return b.label }

// ConnectClicked registers fn to run on every click
func (b *Button) ConnectClicked(fn func()) {
	b.handlers = append(b.handlers, fn)
}

// Click runs the click handlers in registration order
func (b *Button) Click() {
	for _, fn := range b.handlers {
		fn()
	}
}

func (b *Button) Render() Node {
	return Node{ID: b.id, Kind: "button", Text: b.label}
}
