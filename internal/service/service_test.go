package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/models"
	"todolist/internal/store"
)

func setupService(t *testing.T, policy store.Policy, opts ...Option) (*Service, *store.SQLStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", policy)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(logrus.NewEntry(logger))}, opts...)
	return New(st, opts...), st
}

// failingStore wraps a real store and fails the operations that have an
// error configured.
type failingStore struct {
	store.Store
	createErr   error
	listErr     error
	completeErr error
	deleteErr   error
}

var _ store.Store = (*failingStore)(nil)

func (f *failingStore) CreateTask(ctx context.Context, task *models.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Store.CreateTask(ctx, task)
}

func (f *failingStore) ListCompletedTasks(ctx context.Context) ([]models.CompletedTask, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListCompletedTasks(ctx)
}

func (f *failingStore) CompleteTask(ctx context.Context, id int64, at time.Time) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	return f.Store.CompleteTask(ctx, id, at)
}

func (f *failingStore) DeleteTask(ctx context.Context, id int64, at time.Time) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.DeleteTask(ctx, id, at)
}

func total(l *Listing) int {
	return len(l.Active) + len(l.Completed) + len(l.Deleted)
}

func TestCreateTask_AppearsAtHeadOfActive(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	for _, content := range []string{"x", "buy milk", " padded ", strings.Repeat("z", models.MaxContentLength)} {
		task, err := svc.CreateTask(ctx, content)
		require.NoError(t, err)

		listing, err := svc.ListTasks(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, listing.Active)
		assert.Equal(t, task.ID, listing.Active[0].ID)
		assert.Equal(t, content, listing.Active[0].Content, "content must be stored verbatim")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	for _, content := range []string{"", strings.Repeat("a", models.MaxContentLength+1)} {
		_, err := svc.CreateTask(ctx, content)

		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, KindValidation, ErrorKind(err))
	}

	listing, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, listing.Active, "rejected content must not be stored")
}

func TestScenario_BuyMilk(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "buy milk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), task.ID)

	listing, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Active, 1)
	assert.Equal(t, int64(1), listing.Active[0].ID)
	assert.Equal(t, "buy milk", listing.Active[0].Content)
	assert.False(t, listing.Active[0].Completed)

	require.NoError(t, svc.CompleteTask(ctx, 1))

	listing, err = svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, listing.Active)
	require.Len(t, listing.Completed, 1)
	assert.Equal(t, "buy milk", listing.Completed[0].Content)
}

func TestScenario_NewestFirst(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	a, err := svc.CreateTask(ctx, "a")
	require.NoError(t, err)
	b, err := svc.CreateTask(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	listing, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Active, 2)
	assert.Equal(t, "b", listing.Active[0].Content)
	assert.Equal(t, "a", listing.Active[1].Content)
}

func TestTransitions_PreserveTotalCount(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	first, err := svc.CreateTask(ctx, "first")
	require.NoError(t, err)
	second, err := svc.CreateTask(ctx, "second")
	require.NoError(t, err)

	before, err := svc.ListTasks(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(ctx, first.ID))
	require.NoError(t, svc.DeleteTask(ctx, second.ID))

	after, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, total(before), total(after))
	assert.Empty(t, after.Active)
	require.Len(t, after.Completed, 1)
	require.Len(t, after.Deleted, 1)
	assert.Equal(t, "first", after.Completed[0].Content)
	assert.Equal(t, "second", after.Deleted[0].Content)
}

func TestTransitions_UnknownIDLeavesListingUnchanged(t *testing.T) {
	for _, policy := range []store.Policy{store.PolicyHistory, store.PolicyFlag} {
		t.Run(string(policy), func(t *testing.T) {
			svc, _ := setupService(t, policy)
			ctx := context.Background()

			_, err := svc.CreateTask(ctx, "only")
			require.NoError(t, err)

			before, err := svc.ListTasks(ctx)
			require.NoError(t, err)

			err = svc.CompleteTask(ctx, 99)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, KindNotFound, ErrorKind(err))

			err = svc.DeleteTask(ctx, 99)
			assert.ErrorIs(t, err, ErrNotFound)

			after, err := svc.ListTasks(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestTransitions_HistoryPolicyRejectsSecondAttempt(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "once")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(ctx, task.ID))
	assert.ErrorIs(t, svc.CompleteTask(ctx, task.ID), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTask(ctx, task.ID), ErrNotFound)
}

func TestFlagPolicy(t *testing.T) {
	svc, _ := setupService(t, store.PolicyFlag)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "flagged")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(ctx, task.ID))
	require.NoError(t, svc.CompleteTask(ctx, task.ID), "repeated complete is a no-op")

	listing, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.PolicyFlag, listing.Policy)
	require.Len(t, listing.Active, 1)
	assert.True(t, listing.Active[0].Completed)
	assert.Nil(t, listing.Completed)
	assert.Nil(t, listing.Deleted)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))

	listing, err = svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, listing.Active)
	assert.ErrorIs(t, svc.DeleteTask(ctx, task.ID), ErrNotFound)
}

func TestListTasks_Idempotent(t *testing.T) {
	svc, _ := setupService(t, store.PolicyHistory)
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c"} {
		_, err := svc.CreateTask(ctx, content)
		require.NoError(t, err)
	}
	require.NoError(t, svc.CompleteTask(ctx, 1))
	require.NoError(t, svc.DeleteTask(ctx, 2))

	first, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	second, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWithClock_StampsTransitions(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, store.PolicyHistory, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, "stamped")
	require.NoError(t, err)
	assert.True(t, task.CreatedAt.Equal(now))

	now = now.Add(time.Hour)
	require.NoError(t, svc.DeleteTask(ctx, task.ID))

	listing, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, listing.Deleted, 1)
	assert.True(t, listing.Deleted[0].DeletedAt.Equal(now))
}

func TestStorageErrors(t *testing.T) {
	boom := errors.New("disk on fire")

	st, err := store.NewSQLiteStore(":memory:", store.PolicyHistory)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fs := &failingStore{Store: st, createErr: boom, listErr: boom, completeErr: boom, deleteErr: boom}
	logger, hook := test.NewNullLogger()
	svc := New(fs, WithLogger(logrus.NewEntry(logger)))
	ctx := context.Background()

	_, err = svc.CreateTask(ctx, "valid")
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpCreate, serr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindStorage, ErrorKind(err))

	_, err = svc.ListTasks(ctx)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpList, serr.Op)

	err = svc.CompleteTask(ctx, 1)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpComplete, serr.Op)

	err = svc.DeleteTask(ctx, 1)
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpDelete, serr.Op)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, OpDelete, hook.LastEntry().Data["op"])
	assert.Equal(t, int64(1), hook.LastEntry().Data["task_id"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	svc, _ := setupService(t, store.PolicyHistory, WithMetrics(m))
	ctx := context.Background()

	_, err = svc.CreateTask(ctx, "a")
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, svc.CompleteTask(ctx, 1))
	_, _ = svc.CreateTask(ctx, "")
	_ = svc.DeleteTask(ctx, 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.transitions.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(OpCreate, KindValidation)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(OpDelete, KindNotFound)))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice on one registry must fail")
}
