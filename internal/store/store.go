package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todolist/internal/models"
)

// ErrNotFound is returned when no active task has the requested ID.
var ErrNotFound = errors.New("task not found")

// Policy selects how completed and deleted tasks are recorded.
type Policy string

const (
	// PolicyHistory moves completed and deleted tasks into the
	// completed_tasks and deleted_tasks tables.
	PolicyHistory Policy = "history"
	// PolicyFlag keeps a single tasks table: completing sets the completed
	// column and deleting removes the row.
	PolicyFlag Policy = "flag"
)

// ParsePolicy parses a policy name. An empty name selects PolicyHistory.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyHistory:
		return PolicyHistory, nil
	case PolicyFlag:
		return PolicyFlag, nil
	default:
		return "", fmt.Errorf("unknown policy %q: expected %q or %q", s, PolicyHistory, PolicyFlag)
	}
}

// Store defines the interface for data persistence operations.
type Store interface {
	// Active set
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)

	// History
	ListCompletedTasks(ctx context.Context) ([]models.CompletedTask, error)
	ListDeletedTasks(ctx context.Context) ([]models.DeletedTask, error)

	// Transitions
	CompleteTask(ctx context.Context, id int64, at time.Time) error
	DeleteTask(ctx context.Context, id int64, at time.Time) error

	// Lifecycle
	Policy() Policy
	Ping(ctx context.Context) error
	Close() error
}
