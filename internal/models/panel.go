package models

// PageInfo describes one titled page of the widget stack
type PageInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}
