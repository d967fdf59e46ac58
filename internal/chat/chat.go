// Package chat turns one line of free text into a record-store query and
// renders the answer as text.
//
// Matching is plain substring search on the trimmed, lower-cased input,
// tried in a fixed order; the first rule that matches wins:
//
//	list + students    -> List
//	count | how many   -> Count
//	help               -> Help
//	find student <x>   -> Find
//	anything else      -> Unknown
//
// The order matters: "how many students, help?" is a Count.
package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// Intent is the category assigned to one input line.
type Intent int

const (
	Unknown Intent = iota
	List
	Count
	Help
	Find
)

func (i Intent) String() string {
	switch i {
	case List:
		return "list"
	case Count:
		return "count"
	case Help:
		return "help"
	case Find:
		return "find"
	default:
		return "unknown"
	}
}

// Fixed replies.
const (
	NoStudentsMessage  = "No students found in the database."
	SpecifyNameMessage = "Please specify a student name. For example: 'Find student Ali'."
	UnknownMessage     = "Sorry, I didn't understand that. Type 'help' to see what I can do."
)

// HelpMessage lists the supported phrasings.
const HelpMessage = "You can ask:\n" +
	"- 'List students'\n" +
	"- 'Count students'\n" +
	"- 'Find student <name>'\n" +
	"- 'Help'"

const findPhrase = "find student"

// Students is the part of the record store the interpreter reads from.
type Students interface {
	FetchAll(ctx context.Context) ([]types.Student, error)
	FetchByName(ctx context.Context, name string) ([]types.Student, error)
}

// Interpreter is stateless; one value can serve any number of callers.
type Interpreter struct {
	students Students
}

func New(students Students) *Interpreter {
	return &Interpreter{students: students}
}

// Classify returns the intent for text and, for Find, the extracted name
// (possibly empty).
func Classify(text string) (Intent, string) {
	q := normalize(text)

	switch {
	case strings.Contains(q, "list") && strings.Contains(q, "students"):
		return List, ""
	case strings.Contains(q, "count") || strings.Contains(q, "how many"):
		return Count, ""
	case strings.Contains(q, "help"):
		return Help, ""
	case strings.Contains(q, findPhrase):
		_, rest, _ := strings.Cut(q, findPhrase)
		return Find, capitalize(strings.TrimSpace(rest))
	default:
		return Unknown, ""
	}
}

// Respond answers text. Store errors are returned unchanged; the reply is
// empty in that case.
func (it *Interpreter) Respond(ctx context.Context, text string) (string, error) {
	intent, name := Classify(text)

	switch intent {
	case List:
		return it.list(ctx)
	case Count:
		return it.count(ctx)
	case Help:
		return HelpMessage, nil
	case Find:
		if name == "" {
			return SpecifyNameMessage, nil
		}
		return it.find(ctx, name)
	default:
		return UnknownMessage, nil
	}
}

func (it *Interpreter) list(ctx context.Context) (string, error) {
	students, err := it.students.FetchAll(ctx)
	if err != nil {
		return "", err
	}
	if len(students) == 0 {
		return NoStudentsMessage, nil
	}

	lines := make([]string, len(students))
	for i, s := range students {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n"), nil
}

func (it *Interpreter) count(ctx context.Context) (string, error) {
	students, err := it.students.FetchAll(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Total number of students: %d", len(students)), nil
}

func (it *Interpreter) find(ctx context.Context, name string) (string, error) {
	matches, err := it.students.FetchByName(ctx, name)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return fmt.Sprintf("No student found with the name '%s'.", name), nil
	}

	lines := make([]string, len(matches))
	for i, s := range matches {
		lines[i] = fmt.Sprintf("Found: ID %d, Name: %s, Age: %d, Grade: %s", s.ID, s.Name, s.Age, s.Grade)
	}
	return strings.Join(lines, "\n"), nil
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// capitalize upper-cases the first rune only.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
