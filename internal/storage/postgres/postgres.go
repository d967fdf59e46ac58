// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/studentdb/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS students (
	id    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name  TEXT    NOT NULL,
	age   INTEGER NOT NULL,
	grade TEXT    NOT NULL
)`

// Postgres holds the connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and creates the
// students table if needed.
func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse database URL: %w", err)
	}

	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertStudent(ctx context.Context, q querier, name string, age int, grade string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx,
		"INSERT INTO students (name, age, grade) VALUES ($1, $2, $3) RETURNING id",
		name, age, grade,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: insert: %w", err)
	}
	return id, nil
}

func (p *Postgres) CreateStudent(ctx context.Context, name string, age int, grade string) (int64, error) {
	return insertStudent(ctx, p.pool, name, age, grade)
}

func (p *Postgres) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	var s types.Student
	err := p.pool.QueryRow(ctx,
		"SELECT id, name, age, grade FROM students WHERE id = $1", id,
	).Scan(&s.ID, &s.Name, &s.Age, &s.Grade)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, types.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}
	return s, nil
}

func (p *Postgres) GetStudentsByName(ctx context.Context, name string) ([]types.Student, error) {
	return p.query(ctx, "GetStudentsByName",
		"SELECT id, name, age, grade FROM students WHERE name = $1 ORDER BY id", name)
}

func (p *Postgres) GetStudents(ctx context.Context) ([]types.Student, error) {
	return p.query(ctx, "GetStudents",
		"SELECT id, name, age, grade FROM students ORDER BY id")
}

func (p *Postgres) query(ctx context.Context, op, sql string, args ...any) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var s types.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Age, &s.Grade); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}

	return students, nil
}

func (p *Postgres) UpdateStudentByID(ctx context.Context, id int64, student types.Student) (types.Student, error) {
	tag, err := p.pool.Exec(ctx,
		"UPDATE students SET name = $1, age = $2, grade = $3 WHERE id = $4",
		student.Name, student.Age, student.Grade, id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, types.ErrNotFound)
	}

	student.ID = id
	return student, nil
}

func (p *Postgres) ReplaceStudent(ctx context.Context, id int64, student types.Student) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ReplaceStudent: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return 0, fmt.Errorf("ReplaceStudent: delete: %w", err)
	}

	newID, err := insertStudent(ctx, tx, student.Name, student.Age, student.Grade)
	if err != nil {
		return 0, fmt.Errorf("ReplaceStudent: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ReplaceStudent: commit: %w", err)
	}

	return newID, nil
}

func (p *Postgres) DeleteStudentByID(ctx context.Context, id int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
