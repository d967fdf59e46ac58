// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles: records,
// accounts, chat, bulk and the HTTP layer can all import types without
// depending on each other.
package types

import "fmt"

// Student represents one student record.
//
// Struct tags serve two purposes:
//
//  1. json:"..." controls how the field appears when encoded to JSON.
//
//  2. validate:"..." holds the rules checked by go-playground/validator.
//     The record store only checks Name and Grade; the age bound is a
//     caller-side rule enforced by the HTTP layer, the CLI and bulk import.
type Student struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"  validate:"required"`
	Age   int    `json:"age"   validate:"required,gte=1,lte=100"`
	Grade string `json:"grade" validate:"required"`
}

// String renders the student the way listings show it.
func (s Student) String() string {
	return fmt.Sprintf("ID: %d, Name: %s, Age: %d, Grade: %s", s.ID, s.Name, s.Age, s.Grade)
}

// Credentials is a username/password pair submitted for registration or login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Stats summarises the record table. Zero values mean an empty table.
type Stats struct {
	Total        int     `json:"total"`
	AverageAge   float64 `json:"average_age"`
	UniqueGrades int     `json:"unique_grades"`
	Youngest     int     `json:"youngest"`
}
