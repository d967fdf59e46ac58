package records

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/studentdb/internal/storage/memory"
	"github.com/aanand-mishra/studentdb/internal/storage/sqlite"
	"github.com/aanand-mishra/studentdb/internal/types"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSQLiteStore(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	db, err := sqlite.New(path)
	require.NoError(t, err)
	s := New(db, append([]Option{WithLogger(quiet)}, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertThenFetchByID(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t, filepath.Join(t.TempDir(), "students.db"))

	id, err := s.Insert(ctx, "Ahmed Ali", 20, "A")
	require.NoError(t, err)

	got, err := s.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ahmed Ali", got.Name)
	assert.Equal(t, 20, got.Age)
	assert.Equal(t, "A", got.Grade)
}

func TestStore_InsertRejectsEmptyFields(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet))

	_, err := s.Insert(ctx, "", 20, "A")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.ErrorContains(t, err, "name is required")

	_, err = s.Insert(ctx, "Sara", 19, "")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.ErrorContains(t, err, "grade is required")

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_FetchByIDMissing(t *testing.T) {
	s := New(memory.New(), WithLogger(quiet))

	_, err := s.FetchByID(context.Background(), 99)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NotErrorIs(t, err, types.ErrStorageUnavailable)
}

func TestStore_FetchByNameExactMatch(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet))

	for _, name := range []string{"Ali", "Ali", "ali", "Alice"} {
		_, err := s.Insert(ctx, name, 20, "B")
		require.NoError(t, err)
	}

	got, err := s.FetchByName(ctx, "Ali")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.FetchByName(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_CountMatchesInsertsMinusDeletes(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t, filepath.Join(t.TempDir(), "students.db"))
	rng := rand.New(rand.NewSource(7))

	var ids []int64
	want := 0
	for i := 0; i < 60; i++ {
		if len(ids) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(ids))
			deleted, err := s.Delete(ctx, ids[idx])
			require.NoError(t, err)
			if deleted {
				want--
			}
			continue
		}
		id, err := s.Insert(ctx, "Student", 18+rng.Intn(10), "B")
		require.NoError(t, err)
		ids = append(ids, id)
		want++
	}

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, want)
}

func TestStore_DeleteMissing(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet))

	_, err := s.Insert(ctx, "Omar", 21, "A-")
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, deleted)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// Update reinserts under a new id; the old id stops resolving.
func TestStore_UpdateReassignsID(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t, filepath.Join(t.TempDir(), "students.db"))

	id, err := s.Insert(ctx, "Sara Mohamed", 19, "B+")
	require.NoError(t, err)

	newID, err := s.Update(ctx, id, "Sara Mohamed", 20, "A")
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)

	_, err = s.FetchByID(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := s.FetchByID(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Age)
	assert.Equal(t, "A", got.Grade)
}

func TestStore_UpdateUnknownIDStillInserts(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet))

	newID, err := s.Update(ctx, 404, "Ghost", 30, "C")
	require.NoError(t, err)

	got, err := s.FetchByID(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, "Ghost", got.Name)
}

func TestStore_UpdateValidatesBeforeDeleting(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet))

	id, err := s.Insert(ctx, "Omar", 21, "A")
	require.NoError(t, err)

	_, err = s.Update(ctx, id, "", 21, "A")
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = s.FetchByID(ctx, id)
	assert.NoError(t, err)
}

func TestStore_UpdateWithStableIDs(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet), WithStableIDs())

	id, err := s.Insert(ctx, "Omar", 21, "B")
	require.NoError(t, err)

	got, err := s.Update(ctx, id, "Omar Hassan", 22, "A-")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	st, err := s.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Omar Hassan", st.Name)

	_, err = s.Update(ctx, id+10, "X", 1, "A")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestStore_StorageFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	db.Err = errors.New("disk unavailable")
	s := New(db, WithLogger(quiet))

	_, err := s.Insert(ctx, "Ahmed", 20, "A")
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	_, err = s.FetchAll(ctx)
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	_, err = s.FetchByID(ctx, 1)
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	_, err = s.Delete(ctx, 1)
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	_, err = s.Update(ctx, 1, "Ahmed", 20, "A")
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)
}

func TestStore_ContextErrorsPassThrough(t *testing.T) {
	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		t.Run(ctxErr.Error(), func(t *testing.T) {
			var logs bytes.Buffer
			db := memory.New()
			db.Err = ctxErr
			s := New(db, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			_, err := s.Insert(context.Background(), "Ahmed", 20, "A")
			assert.ErrorIs(t, err, ctxErr)
			assert.NotErrorIs(t, err, types.ErrStorageUnavailable)

			_, err = s.FetchAll(context.Background())
			assert.ErrorIs(t, err, ctxErr)
			assert.Nil(t, types.KindOf(err))

			assert.NotContains(t, logs.String(), "level=ERROR")
		})
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "students.db")

	db, err := sqlite.New(path)
	require.NoError(t, err)
	first := New(db, WithLogger(quiet))
	id, err := first.Insert(ctx, "Sara", 19, "B+")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newSQLiteStore(t, path)
	got, err := second.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sara", got.Name)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), WithLogger(quiet))

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Stats{}, empty)

	for _, st := range []types.Student{
		{Name: "Ahmed Ali", Age: 20, Grade: "A"},
		{Name: "Sara Mohamed", Age: 19, Grade: "B+"},
		{Name: "Omar Hassan", Age: 21, Grade: "A"},
	} {
		_, err := s.Insert(ctx, st.Name, st.Age, st.Grade)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 20.0, stats.AverageAge, 0.001)
	assert.Equal(t, 2, stats.UniqueGrades)
	assert.Equal(t, 19, stats.Youngest)
}

func TestStore_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t, filepath.Join(t.TempDir(), "students.db"))

	var wg sync.WaitGroup
	ids := make(chan int64, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Insert(ctx, "Parallel", 20, "B")
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 40)
}
