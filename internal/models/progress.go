package models

import "time"

// ProgressRecord tracks a user's watch progress for a single lesson.
// At most one record exists per (lesson, user) pair. The record is the
// local source of truth until Synced flips to true after a successful
// remote upsert.
type ProgressRecord struct {
	ID                   int64      `json:"id"`
	LessonID             string     `json:"lessonId"`
	UserID               string     `json:"userId"`
	VideoProgressSeconds int        `json:"videoProgressSeconds"`
	IsCompleted          bool       `json:"isCompleted"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	LastAccessedAt       time.Time  `json:"lastAccessedAt"`
	Synced               bool       `json:"synced"`
}
