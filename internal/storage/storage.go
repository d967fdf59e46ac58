// Package storage defines the Storage interface, the contract any database
// backend must satisfy to hold the student table.
//
// The record store (internal/records) depends only on this interface, so
// switching between SQLite and PostgreSQL is a config change, and tests can
// pass an in-memory fake.
package storage

import (
	"context"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// Storage is the student table contract.
//
// Drivers return errors wrapping types.ErrNotFound for a missing id; every
// other error is an I/O failure of the underlying database.
type Storage interface {
	// CreateStudent inserts a row and returns its generated id. Ids are
	// never reused for the lifetime of the table.
	CreateStudent(ctx context.Context, name string, age int, grade string) (int64, error)

	// GetStudentByID fetches a single student by primary key.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// GetStudentsByName returns every student whose name matches exactly.
	GetStudentsByName(ctx context.Context, name string) ([]types.Student, error)

	// GetStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are none.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID rewrites the fields of an existing row in place.
	UpdateStudentByID(ctx context.Context, id int64, student types.Student) (types.Student, error)

	// ReplaceStudent deletes id and inserts student as a new row inside one
	// transaction, returning the new id. A missing id is not an error.
	ReplaceStudent(ctx context.Context, id int64, student types.Student) (int64, error)

	// DeleteStudentByID removes a row and reports whether one existed.
	DeleteStudentByID(ctx context.Context, id int64) (bool, error)

	Close() error
}
