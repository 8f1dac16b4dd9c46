package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxContentLength is the maximum number of characters a task's content may hold.
const MaxContentLength = 200

// Task represents a task in the active set.
type Task struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletedTask is the historical record left behind when a task is completed.
type CompletedTask struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	CompletedAt time.Time `json:"completed_at"`
}

// DeletedTask is the historical record left behind when a task is deleted.
type DeletedTask struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ValidationError reports a field value that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	return ValidateContent(t.Content)
}

// ValidateContent checks task content. Content is stored verbatim, so
// whitespace counts towards the length and is never trimmed.
func ValidateContent(content string) error {
	if content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}

	if utf8.RuneCountInString(content) > MaxContentLength {
		return &ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("content must be %d characters or fewer", MaxContentLength),
		}
	}

	return nil
}

// Status returns a short label describing where the task is in its lifecycle.
func (t *Task) Status() string {
	if t.Completed {
		return "completed"
	}
	return "open"
}
