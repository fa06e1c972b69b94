package models

// Lesson is an ordered batch of item labels published together.
type Lesson struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}
