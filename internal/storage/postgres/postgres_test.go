package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// These tests need a disposable database; point STUDENTDB_TEST_POSTGRES_URL
// at one to run them.
func newTestDB(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("STUDENTDB_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("STUDENTDB_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url)
	require.NoError(t, err)
	_, err = db.pool.Exec(ctx, "TRUNCATE students")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgres_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	id, err := db.CreateStudent(ctx, "Ahmed", 20, "A")
	require.NoError(t, err)

	got, err := db.GetStudentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ahmed", got.Name)

	byName, err := db.GetStudentsByName(ctx, "Ahmed")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	newID, err := db.ReplaceStudent(ctx, id, types.Student{Name: "Ahmed A", Age: 21, Grade: "B"})
	require.NoError(t, err)
	assert.Greater(t, newID, id)

	_, err = db.GetStudentByID(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	updated, err := db.UpdateStudentByID(ctx, newID, types.Student{Name: "Ahmed B", Age: 22, Grade: "A"})
	require.NoError(t, err)
	assert.Equal(t, newID, updated.ID)

	deleted, err := db.DeleteStudentByID(ctx, newID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteStudentByID(ctx, newID)
	require.NoError(t, err)
	assert.False(t, deleted)

	all, err := db.GetStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
