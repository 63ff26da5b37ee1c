package models

import (
	"encoding/json"
	"time"
)

// QueueItemType identifies the kind of pending remote mutation
type QueueItemType string

const (
	QueueItemTypeQuizAttempt QueueItemType = "quiz_attempt"
	QueueItemTypeEnrollment  QueueItemType = "enrollment"
)

// Valid reports whether the type is a known queue item type
func (t QueueItemType) Valid() bool {
	return t == QueueItemTypeQuizAttempt || t == QueueItemTypeEnrollment
}

// QueueItem is a durable unit of pending remote work. The payload is
// opaque to the queue itself and interpreted by type during sync.
type QueueItem struct {
	ID        string          `json:"id"`
	Type      QueueItemType   `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	Retries   int             `json:"retries"`
}

// QuizAnswerPayload is a single answer inside a queued quiz attempt
type QuizAnswerPayload struct {
	QuestionID       string  `json:"questionId"`
	SelectedOptionID *string `json:"selectedOptionId,omitempty"`
	IsCorrect        bool    `json:"isCorrect"`
}

// QuizAttemptPayload is the payload of a quiz_attempt queue item
type QuizAttemptPayload struct {
	QuizID           string              `json:"quizId"`
	UserID           string              `json:"userId"`
	Score            int                 `json:"score"`
	TotalQuestions   int                 `json:"totalQuestions"`
	Passed           bool                `json:"passed"`
	TimeTakenSeconds int                 `json:"timeTakenSeconds"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	CanRetryAfter    *time.Time          `json:"canRetryAfter,omitempty"`
	Answers          []QuizAnswerPayload `json:"answers,omitempty"`
}

// EnrollmentPayload is the payload of an enrollment queue item
type EnrollmentPayload struct {
	CourseID string `json:"courseId"`
	UserID   string `json:"userId"`
}
