// Package records is the record store: the one writer of the student table.
//
// It sits between callers (HTTP handlers, the CLI, the chat interpreter,
// bulk import) and a storage.Storage driver, and adds what the drivers
// don't know about:
//
//   - input validation (name and grade must be non-empty),
//   - a read/write lock so mutations never interleave with reads,
//   - classification of driver failures into the types.Err* kinds.
//
// Update follows the long-standing contract of the student table: the old
// row is deleted and the new values are inserted as a fresh row, so the id
// changes. Callers holding the old id must re-fetch. WithStableIDs switches
// to an in-place update that keeps the id.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/studentdb/internal/storage"
	"github.com/aanand-mishra/studentdb/internal/types"
)

// Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	db        storage.Storage
	validate  *validator.Validate
	log       *slog.Logger
	stableIDs bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithStableIDs makes Update rewrite the row in place and keep its id.
func WithStableIDs() Option {
	return func(s *Store) { s.stableIDs = true }
}

// New wraps db. The Store takes ownership of db; Close closes it.
func New(db storage.Storage, opts ...Option) *Store {
	s := &Store{
		db:       db,
		validate: validator.New(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert validates and stores a new student and returns its id.
// Age is not checked here; the 1..100 bound is a caller rule.
func (s *Store) Insert(ctx context.Context, name string, age int, grade string) (int64, error) {
	const op = "records.Insert"

	if err := s.check(op, name, grade); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.db.CreateStudent(ctx, name, age, grade)
	if err != nil {
		return 0, s.fail(op, "cannot insert student", err)
	}

	s.log.Info("student created", slog.Int64("id", id), slog.String("name", name))
	return id, nil
}

// FetchAll returns every student in storage order.
func (s *Store) FetchAll(ctx context.Context) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students, err := s.db.GetStudents(ctx)
	if err != nil {
		return nil, s.fail("records.FetchAll", "cannot read students", err)
	}
	return students, nil
}

// FetchByID returns the student with id, or an error of kind
// types.ErrNotFound when there is none.
func (s *Store) FetchByID(ctx context.Context, id int64) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.db.GetStudentByID(ctx, id)
	if err != nil {
		return types.Student{}, s.fail("records.FetchByID", "cannot read student", err)
	}
	return student, nil
}

// FetchByName returns all students whose name equals name exactly
// (case-sensitive). No match is an empty slice, not an error.
func (s *Store) FetchByName(ctx context.Context, name string) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students, err := s.db.GetStudentsByName(ctx, name)
	if err != nil {
		return nil, s.fail("records.FetchByName", "cannot read students", err)
	}
	return students, nil
}

// Delete removes the student and reports whether a row was removed.
// Deleting an unknown id returns false and no error.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.db.DeleteStudentByID(ctx, id)
	if err != nil {
		return false, s.fail("records.Delete", "cannot delete student", err)
	}

	if deleted {
		s.log.Info("student deleted", slog.Int64("id", id))
	}
	return deleted, nil
}

// Update replaces the fields of student id and returns the id the record
// now lives under.
//
// By default this is delete(id) followed by insert: the returned id is a
// new one and id no longer resolves. If id does not exist the new row is
// still inserted. With WithStableIDs the row is rewritten in place, the
// same id is returned, and an unknown id is types.ErrNotFound.
func (s *Store) Update(ctx context.Context, id int64, name string, age int, grade string) (int64, error) {
	const op = "records.Update"

	if err := s.check(op, name, grade); err != nil {
		return 0, err
	}

	student := types.Student{Name: name, Age: age, Grade: grade}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stableIDs {
		if _, err := s.db.UpdateStudentByID(ctx, id, student); err != nil {
			return 0, s.fail(op, "cannot update student", err)
		}
		s.log.Info("student updated", slog.Int64("id", id))
		return id, nil
	}

	newID, err := s.db.ReplaceStudent(ctx, id, student)
	if err != nil {
		return 0, s.fail(op, "cannot update student", err)
	}

	s.log.Info("student updated", slog.Int64("old_id", id), slog.Int64("id", newID))
	return newID, nil
}

// Stats summarises the table: total, average age, distinct grades and the
// youngest age.
func (s *Store) Stats(ctx context.Context) (types.Stats, error) {
	students, err := s.FetchAll(ctx)
	if err != nil {
		return types.Stats{}, err
	}

	var stats types.Stats
	if len(students) == 0 {
		return stats, nil
	}

	grades := make(map[string]struct{})
	sum := 0
	stats.Youngest = students[0].Age
	for _, st := range students {
		sum += st.Age
		grades[st.Grade] = struct{}{}
		if st.Age < stats.Youngest {
			stats.Youngest = st.Age
		}
	}

	stats.Total = len(students)
	stats.AverageAge = float64(sum) / float64(len(students))
	stats.UniqueGrades = len(grades)
	return stats, nil
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) check(op, name, grade string) error {
	err := s.validate.StructPartial(types.Student{Name: name, Grade: grade}, "Name", "Grade")
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.WrapError(op, types.ErrInvalidInput, "invalid student", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
	}
	return types.NewError(op, types.ErrInvalidInput, strings.Join(msgs, ", "))
}

func (s *Store) fail(op, msg string, err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return types.WrapError(op, types.ErrNotFound, "student not found", err)
	}
	// A cancelled or timed-out caller says nothing about the storage.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.log.Debug(msg, slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Error(msg, slog.String("op", op), slog.String("error", err.Error()))
	return types.WrapError(op, types.ErrStorageUnavailable, msg, err)
}
