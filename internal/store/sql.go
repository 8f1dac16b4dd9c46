package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"todolist/internal/models"
)

// dialect holds the differences between the SQL engines SQLStore runs on.
type dialect struct {
	name             string
	driver           string
	migrationsDir    string
	tableExistsQuery string
	numbered         bool   // $1, $2, ... placeholders instead of ?
	lockClause       string // appended to the SELECT that opens a transition
}

// rebind rewrites ? placeholders for dialects that use numbered ones.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements the Store interface on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	policy  Policy
}

func openSQLStore(d dialect, dsn string, policy Policy) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return newSQLStore(db, d, policy)
}

func newSQLStore(db *sql.DB, d dialect, policy Policy) (*SQLStore, error) {
	if policy == "" {
		policy = PolicyHistory
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	store := &SQLStore{db: db, dialect: d, policy: policy}
	if err := runMigrations(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

// Policy returns the lifecycle policy the store applies to transitions.
func (s *SQLStore) Policy() Policy {
	return s.policy
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// taskColumns is the select list read by scanTask. Databases written by the
// Flask app allow NULL in completed and date_created.
const taskColumns = `id, content, COALESCE(completed, FALSE), date_created`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var created sql.NullTime
	if err := row.Scan(&task.ID, &task.Content, &task.Completed, &created); err != nil {
		return task, err
	}
	task.CreatedAt = created.Time
	return task, nil
}

// CreateTask inserts a new task into the active set and sets its ID.
func (s *SQLStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO tasks (content, completed, date_created)
		VALUES (?, ?, ?)
		RETURNING id
	`), task.Content, task.Completed, task.CreatedAt).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves an active task by ID.
func (s *SQLStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, s.q(`
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ?
	`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// ListTasks retrieves the active set, most recently created first.
func (s *SQLStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// ListCompletedTasks retrieves completed task records, most recent first.
func (s *SQLStore) ListCompletedTasks(ctx context.Context) ([]models.CompletedTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, date_completed
		FROM completed_tasks ORDER BY date_completed DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	defer rows.Close()

	var records []models.CompletedTask
	for rows.Next() {
		var record models.CompletedTask
		var at sql.NullTime
		if err := rows.Scan(&record.ID, &record.Content, &at); err != nil {
			return nil, fmt.Errorf("failed to scan completed task: %w", err)
		}
		record.CompletedAt = at.Time
		records = append(records, record)
	}

	return records, rows.Err()
}

// ListDeletedTasks retrieves deleted task records, most recent first.
func (s *SQLStore) ListDeletedTasks(ctx context.Context) ([]models.DeletedTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, date_deleted
		FROM deleted_tasks ORDER BY date_deleted DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted tasks: %w", err)
	}
	defer rows.Close()

	var records []models.DeletedTask
	for rows.Next() {
		var record models.DeletedTask
		var at sql.NullTime
		if err := rows.Scan(&record.ID, &record.Content, &at); err != nil {
			return nil, fmt.Errorf("failed to scan deleted task: %w", err)
		}
		record.DeletedAt = at.Time
		records = append(records, record)
	}

	return records, rows.Err()
}

// CompleteTask completes an active task. Under PolicyHistory the task is
// moved to completed_tasks; under PolicyFlag its completed column is set.
func (s *SQLStore) CompleteTask(ctx context.Context, id int64, at time.Time) error {
	if s.policy == PolicyFlag {
		result, err := s.db.ExecContext(ctx, s.q(`UPDATE tasks SET completed = ? WHERE id = ?`), true, id)
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		return requireAffected(result, id)
	}

	return s.moveTask(ctx, id, at, `INSERT INTO completed_tasks (content, date_completed) VALUES (?, ?)`)
}

// DeleteTask deletes an active task. Under PolicyHistory the task is moved
// to deleted_tasks; under PolicyFlag the row is removed without a trace.
func (s *SQLStore) DeleteTask(ctx context.Context, id int64, at time.Time) error {
	if s.policy == PolicyFlag {
		result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM tasks WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return requireAffected(result, id)
	}

	return s.moveTask(ctx, id, at, `INSERT INTO deleted_tasks (content, date_deleted) VALUES (?, ?)`)
}

// moveTask removes a task from the active set and records it with insert in
// a single transaction.
func (s *SQLStore) moveTask(ctx context.Context, id int64, at time.Time, insert string) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var content string
	err = tx.QueryRowContext(ctx, s.q(`SELECT content FROM tasks WHERE id = ?`+s.dialect.lockClause), id).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to load task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q(insert), content, at); err != nil {
		return fmt.Errorf("failed to record task history: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.q(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to remove task: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
