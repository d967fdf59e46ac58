// Package sqlite implements storage.Storage on top of a SQLite file using
// the mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/studentdb/internal/types"

	// Blank import: registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// SQLite holds the open database handle.
type SQLite struct {
	Db *sql.DB
}

// New opens (or creates) the SQLite file at path and makes sure the
// students table exists.
//
// AUTOINCREMENT keeps ids monotonic: SQLite never hands out an id that was
// used by a deleted row.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			name  TEXT    NOT NULL,
			age   INTEGER NOT NULL,
			grade TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) CreateStudent(ctx context.Context, name string, age int, grade string) (int64, error) {
	return insertStudent(ctx, s.Db, name, age, grade)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertStudent(ctx context.Context, db execer, name string, age int, grade string) (int64, error) {
	result, err := db.ExecContext(ctx,
		"INSERT INTO students (name, age, grade) VALUES (?, ?, ?)",
		name, age, grade,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return lastID, nil
}

func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, name, age, grade FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student

	err = stmt.QueryRowContext(ctx, id).Scan(
		&student.ID,
		&student.Name,
		&student.Age,
		&student.Grade,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, types.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

func (s *SQLite) GetStudentsByName(ctx context.Context, name string) ([]types.Student, error) {
	return s.query(ctx, "GetStudentsByName",
		"SELECT id, name, age, grade FROM students WHERE name = ? ORDER BY id", name)
}

func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	return s.query(ctx, "GetStudents",
		"SELECT id, name, age, grade FROM students ORDER BY id")
}

func (s *SQLite) query(ctx context.Context, op, query string, args ...any) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student

		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Age,
			&student.Grade,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}

	return students, nil
}

func (s *SQLite) UpdateStudentByID(ctx context.Context, id int64, student types.Student) (types.Student, error) {
	result, err := s.Db.ExecContext(ctx,
		"UPDATE students SET name = ?, age = ?, grade = ? WHERE id = ?",
		student.Name, student.Age, student.Grade, id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, types.ErrNotFound)
	}

	return s.GetStudentByID(ctx, id)
}

func (s *SQLite) ReplaceStudent(ctx context.Context, id int64, student types.Student) (int64, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ReplaceStudent: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id); err != nil {
		return 0, fmt.Errorf("ReplaceStudent: delete: %w", err)
	}

	newID, err := insertStudent(ctx, tx, student.Name, student.Age, student.Grade)
	if err != nil {
		return 0, fmt.Errorf("ReplaceStudent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ReplaceStudent: commit: %w", err)
	}

	return newID, nil
}

func (s *SQLite) DeleteStudentByID(ctx context.Context, id int64) (bool, error) {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}

	return n > 0, nil
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}
