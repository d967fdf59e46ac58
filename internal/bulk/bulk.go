// Package bulk moves students in and out of CSV files.
//
// Import is ordinary orchestration over the record store: it parses rows
// with Name, Age and Grade columns and inserts them one at a time,
// counting successes and failures. A bad row never stops the import; a
// read error or a store outage does.
package bulk

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// Columns required in an import file, and written by Export after ID.
var Columns = []string{"Name", "Age", "Grade"}

// Inserter is the part of the record store Import writes to.
type Inserter interface {
	Insert(ctx context.Context, name string, age int, grade string) (int64, error)
}

// Lister is the part of the record store Export reads from.
type Lister interface {
	FetchAll(ctx context.Context) ([]types.Student, error)
}

// RowError describes one rejected row. Line is 1-based and counts the header.
type RowError struct {
	Line int    `json:"line"`
	Name string `json:"name"`
	Err  string `json:"error"`
}

// Report summarises an import.
type Report struct {
	Added  int        `json:"added"`
	Failed int        `json:"failed"`
	IDs    []int64    `json:"ids"`
	Errors []RowError `json:"errors,omitempty"`
}

// Progress, when passed to Import, is called after every data row.
type Progress func(done int)

// Import reads CSV from r and inserts every row through store.
func Import(ctx context.Context, r io.Reader, store Inserter, progress Progress) (Report, error) {
	const op = "bulk.Import"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Report{}, types.NewError(op, types.ErrInvalidInput, "file is empty")
		}
		return Report{}, types.WrapError(op, types.ErrInvalidInput, "cannot read CSV header", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return Report{}, types.WrapError(op, types.ErrInvalidInput,
			"CSV must contain columns: "+strings.Join(Columns, ", "), err)
	}

	report := Report{IDs: []int64{}}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				report.fail(line, "", err)
				continue
			}
			// The reader does not recover from I/O errors; every later
			// Read returns the same one.
			return report, types.WrapError(op, types.ErrInvalidInput, "cannot read CSV", err)
		}

		name := field(record, idx["Name"])
		id, err := insertRow(ctx, store, name, field(record, idx["Age"]), field(record, idx["Grade"]))
		if err != nil {
			if errors.Is(err, types.ErrStorageUnavailable) || ctx.Err() != nil {
				return report, err
			}
			report.fail(line, name, err)
		} else {
			report.Added++
			report.IDs = append(report.IDs, id)
		}

		if progress != nil {
			progress(report.Added + report.Failed)
		}
	}

	return report, nil
}

func insertRow(ctx context.Context, store Inserter, name, age, grade string) (int64, error) {
	n, err := parseAge(age)
	if err != nil {
		return 0, err
	}
	return store.Insert(ctx, name, n, grade)
}

// parseAge accepts "20" and spreadsheet-style "20.0".
func parseAge(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return int(f), nil
}

func (r *Report) fail(line int, name string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Line: line, Name: name, Err: err.Error()})
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(Columns))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing %s; got %s", strings.Join(missing, ", "), strings.Join(header, ", "))
	}
	return idx, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Export writes every student as CSV with an ID,Name,Age,Grade header.
func Export(ctx context.Context, w io.Writer, store Lister) (int, error) {
	students, err := store.FetchAll(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"ID"}, Columns...)); err != nil {
		return 0, fmt.Errorf("bulk.Export: write header: %w", err)
	}
	for _, s := range students {
		row := []string{strconv.FormatInt(s.ID, 10), s.Name, strconv.Itoa(s.Age), s.Grade}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("bulk.Export: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("bulk.Export: flush: %w", err)
	}
	return len(students), nil
}

// Sample is the example import file offered to users.
var Sample = []types.Student{
	{Name: "Ahmed Ali", Age: 20, Grade: "A"},
	{Name: "Sara Mohamed", Age: 19, Grade: "B+"},
	{Name: "Omar Hassan", Age: 21, Grade: "A-"},
}

// WriteSample writes Sample in import format.
func WriteSample(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, s := range Sample {
		if err := cw.Write([]string{s.Name, strconv.Itoa(s.Age), s.Grade}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
