package models

import "time"

// Course represents course metadata downloaded for offline use
type Course struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ShortSummary    string    `json:"shortSummary,omitempty"`
	ComplexityLevel string    `json:"complexityLevel,omitempty"`
	CachedAt        time.Time `json:"cachedAt"`
}

// Lesson represents lesson metadata downloaded for offline use
type Lesson struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	Title        string    `json:"title"`
	ShortSummary string    `json:"shortSummary,omitempty"`
	Order        int       `json:"order"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	DocumentURL  string    `json:"documentUrl,omitempty"`
	CachedAt     time.Time `json:"cachedAt"`
}
