// Package service implements the task lifecycle on top of a store.Store:
// tasks are created open and leave the active set by being completed or
// deleted, as dictated by the store's policy.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"todolist/internal/models"
	"todolist/internal/store"
)

// Operation names, used in errors, logs and metrics.
const (
	OpList     = "list"
	OpCreate   = "create"
	OpComplete = "complete"
	OpDelete   = "delete"
)

// Listing is the result of ListTasks. Completed and Deleted are only
// populated under store.PolicyHistory; under store.PolicyFlag completed
// tasks stay in Active with Completed set.
type Listing struct {
	Policy    store.Policy
	Active    []models.Task
	Completed []models.CompletedTask
	Deleted   []models.DeletedTask
}

// Service enforces the task lifecycle.
type Service struct {
	store   store.Store
	log     *logrus.Entry
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for creation and transition
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   logrus.NewEntry(logrus.StandardLogger()),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("policy", st.Policy())
	return s
}

// Policy returns the lifecycle policy of the underlying store.
func (s *Service) Policy() store.Policy {
	return s.store.Policy()
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListTasks returns the active set, newest first, and under the history
// policy the completed and deleted records, most recent transition first.
func (s *Service) ListTasks(ctx context.Context) (*Listing, error) {
	listing := &Listing{Policy: s.store.Policy()}

	active, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, s.fail(OpList, 0, err)
	}
	listing.Active = active

	if listing.Policy != store.PolicyHistory {
		return listing, nil
	}

	completed, err := s.store.ListCompletedTasks(ctx)
	if err != nil {
		return nil, s.fail(OpList, 0, err)
	}
	listing.Completed = completed

	deleted, err := s.store.ListDeletedTasks(ctx)
	if err != nil {
		return nil, s.fail(OpList, 0, err)
	}
	listing.Deleted = deleted

	return listing, nil
}

// CreateTask stores a new open task with exactly the given content.
func (s *Service) CreateTask(ctx context.Context, content string) (*models.Task, error) {
	task := &models.Task{
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, s.fail(OpCreate, 0, err)
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, s.fail(OpCreate, 0, err)
	}

	s.log.WithField("task_id", task.ID).Debug("task created")
	s.metrics.transition("created")
	return task, nil
}

// CompleteTask completes the active task with the given id.
func (s *Service) CompleteTask(ctx context.Context, id int64) error {
	if err := s.store.CompleteTask(ctx, id, s.now().UTC()); err != nil {
		return s.fail(OpComplete, id, err)
	}

	s.log.WithField("task_id", id).Debug("task completed")
	s.metrics.transition("completed")
	return nil
}

// DeleteTask deletes the active task with the given id.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.store.DeleteTask(ctx, id, s.now().UTC()); err != nil {
		return s.fail(OpDelete, id, err)
	}

	s.log.WithField("task_id", id).Debug("task deleted")
	s.metrics.transition("deleted")
	return nil
}

// fail records err and maps it to the error kinds callers inspect:
// validation errors and ErrNotFound pass through, anything else becomes a
// *StorageError.
func (s *Service) fail(op string, id int64, err error) error {
	s.metrics.failure(op, err)

	entry := s.log.WithFields(logrus.Fields{"op": op, "kind": ErrorKind(err)})
	if id != 0 {
		entry = entry.WithField("task_id", id)
	}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		entry.WithError(err).Debug("rejected task")
		return err
	case errors.Is(err, ErrNotFound):
		entry.Debug("task not found")
		return err
	default:
		entry.WithError(err).Error("task operation failed")
		return &StorageError{Op: op, Err: err}
	}
}
