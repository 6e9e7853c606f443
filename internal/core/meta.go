package core

import "time"

// Meta is the per-user cross-year settings document stored remotely.
// JSON field names match the remote document schema.
type Meta struct {
	Years          []int    `json:"years"`
	Categories     []string `json:"categories"`
	CurrentYear    int      `json:"currentYear"`
	CurrentMonth   string   `json:"currentMonth"`
	FilterMonth    string   `json:"filterMonth"`
	FilterCategory string   `json:"filterCategory"`
}

// DefaultMeta is the seed written on first-ever access: the current calendar
// year and a starter category taxonomy.
func DefaultMeta(now time.Time) Meta {
	year := now.Year()
	return Meta{
		Years:       []int{year},
		Categories:  []string{"Food", "Transport", "Salary"},
		CurrentYear: year,
	}
}
