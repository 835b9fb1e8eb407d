package ui

import (
	"errors"

	"sysmon/internal/models"
)

var (
	ErrUnknownPage   = errors.New("unknown page")
	ErrUnknownButton = errors.New("unknown button")
)

type page struct {
	name  string
	title string
	child Widget
}

// Stack holds titled pages, one per monitor panel
type Stack struct {
	pages []page
}

func NewStack() *Stack {
	return &Stack{}
}

// AddTitled registers child as page name. A page with the same name is replaced.
func (s *Stack) AddTitled(child Widget, name, title string) {
	for i := range s.pages {
		if s.pages[i].name == name {
			s.pages[i] = page{name: name, title: title, child: child}
			return
		}
	}
	s.pages = append(s.pages, page{name: name, title: title, child: child})
}

// Pages lists the registered pages in insertion order
func (s *Stack) Pages() []models.PageInfo {
	infos := make([]models.PageInfo, 0, len(s.pages))
	for _, p := range s.pages {
		infos = append(infos, models.PageInfo{Name: p.name, Title: p.title})
	}
	return infos
}

// Page returns the root widget of the named page
func (s *Stack) Page(name string) (Widget, error) {
	for _, p := range s.pages {
		if p.name == name {
			return p.child, nil
		}
	}
	return nil, ErrUnknownPage
}

// RenderPage renders the named page
func (s *Stack) RenderPage(name string) (Node, error) {
	w, err := s.Page(name)
	if err != nil {
		return Node{}, err
	}
	return w.Render(), nil
}

// Render renders every page keyed by name
func (s *Stack) Render() map[string]Node {
	nodes := make(map[string]Node, len(s.pages))
	for _, p := range s.pages {
		nodes[p.name] = p.child.Render()
	}
	return nodes
}

// FindButton looks up a button by id inside the named page
func (s *Stack) FindButton(pageName, id string) (*Button, error) {
	root, err := s.Page(pageName)
	if err != nil {
		return nil, err
	}

	var found *Button
	walk(root, func(w Widget) bool {
		if b, ok := w.(*Button); ok && b.ID() == id {
			found = b
			return false
		}
		return true
	})
	if found == nil {
		return nil, ErrUnknownButton
	}
	return found, nil
}
