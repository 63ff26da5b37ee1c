package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/japanesestudent/offline-service/internal/models"
)

const requestTimeout = 15 * time.Second

// HTTPGateway talks JSON over HTTP to the platform API
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client for the given API base URL
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// UpsertProgress pushes the last known progress state for a lesson.
// The backend keys the upsert on (lesson, user), so repeated delivery
// is safe.
func (g *HTTPGateway) UpsertProgress(ctx context.Context, record models.ProgressRecord) error {
	body := map[string]any{
		"lessonId":             record.LessonID,
		"userId":               record.UserID,
		"videoProgressSeconds": record.VideoProgressSeconds,
		"isCompleted":          record.IsCompleted,
		"lastAccessedAt":       record.LastAccessedAt,
	}
	if record.CompletedAt != nil {
		body["completedAt"] = record.CompletedAt
	}

	return g.post(ctx, "upsert progress", "/progress", "", body, nil)
}

// CreateQuizAttempt creates the remote attempt record and returns its id
func (g *HTTPGateway) CreateQuizAttempt(ctx context.Context, idempotencyKey string, payload models.QuizAttemptPayload) (string, error) {
	var response struct {
		ID string `json:"id"`
	}

	body := map[string]any{
		"quizId":           payload.QuizID,
		"userId":           payload.UserID,
		"score":            payload.Score,
		"totalQuestions":   payload.TotalQuestions,
		"passed":           payload.Passed,
		"timeTakenSeconds": payload.TimeTakenSeconds,
	}
	if payload.StartedAt != nil {
		body["startedAt"] = payload.StartedAt
	}
	if payload.CanRetryAfter != nil {
		body["canRetryAfter"] = payload.CanRetryAfter
	}

	if err := g.post(ctx, "create quiz attempt", "/quiz-attempts", idempotencyKey, body, &response); err != nil {
		return "", err
	}
	if response.ID == "" {
		return "", &GatewayError{Op: "create quiz attempt", Err: fmt.Errorf("remote returned no attempt id")}
	}

	return response.ID, nil
}

// CreateQuizAnswer creates one remote answer record for an attempt
func (g *HTTPGateway) CreateQuizAnswer(ctx context.Context, attemptID string, answer models.QuizAnswerPayload) error {
	body := map[string]any{
		"questionId": answer.QuestionID,
		"isCorrect":  answer.IsCorrect,
	}
	if answer.SelectedOptionID != nil {
		body["selectedOptionId"] = answer.SelectedOptionID
	}

	path := "/quiz-attempts/" + attemptID + "/answers"
	return g.post(ctx, "create quiz answer", path, "", body, nil)
}

// CreateEnrollment creates the remote enrollment record
func (g *HTTPGateway) CreateEnrollment(ctx context.Context, idempotencyKey string, payload models.EnrollmentPayload) error {
	body := map[string]any{
		"courseId": payload.CourseID,
		"userId":   payload.UserID,
	}

	return g.post(ctx, "create enrollment", "/enrollments", idempotencyKey, body, nil)
}

// post sends a JSON POST and decodes the response into out when given
func (g *HTTPGateway) post(ctx context.Context, op, path, idempotencyKey string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return &GatewayError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &GatewayError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}
