// Package memory is a process-local storage.Storage. Nothing survives a
// restart; it backs tests and the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// Memory keeps rows in insertion order.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	rows   []types.Student

	// Err, when set, is returned by every operation.
	Err error
}

func New() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) CreateStudent(_ context.Context, name string, age int, grade string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.insertLocked(name, age, grade), nil
}

func (m *Memory) insertLocked(name string, age int, grade string) int64 {
	id := m.nextID
	m.nextID++
	m.rows = append(m.rows, types.Student{ID: id, Name: name, Age: age, Grade: grade})
	return id
}

func (m *Memory) GetStudentByID(_ context.Context, id int64) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return types.Student{}, m.Err
	}
	if i := m.indexLocked(id); i >= 0 {
		return m.rows[i], nil
	}
	return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, types.ErrNotFound)
}

func (m *Memory) GetStudentsByName(_ context.Context, name string) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]types.Student, 0)
	for _, s := range m.rows {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]types.Student, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id int64, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return types.Student{}, m.Err
	}
	i := m.indexLocked(id)
	if i < 0 {
		return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, types.ErrNotFound)
	}
	student.ID = id
	m.rows[i] = student
	return student, nil
}

func (m *Memory) ReplaceStudent(_ context.Context, id int64, student types.Student) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.deleteLocked(id)
	return m.insertLocked(student.Name, student.Age, student.Grade), nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.deleteLocked(id), nil
}

func (m *Memory) deleteLocked(id int64) bool {
	i := m.indexLocked(id)
	if i < 0 {
		return false
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return true
}

func (m *Memory) indexLocked(id int64) int {
	for i, s := range m.rows {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) Close() error { return nil }
