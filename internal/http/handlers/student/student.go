// Package student contains the HTTP handlers for the Student resource.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────────────
// Each exported function receives its dependencies (the record store) once,
// at route registration, and returns the http.HandlerFunc the router calls
// on every request:
//
//	router.HandleFunc("POST /api/students", student.New(store))
package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/studentdb/internal/bulk"
	"github.com/aanand-mishra/studentdb/internal/types"
	"github.com/aanand-mishra/studentdb/internal/utils/response"
)

// Store is the slice of the record store these handlers use.
type Store interface {
	Insert(ctx context.Context, name string, age int, grade string) (int64, error)
	FetchAll(ctx context.Context) ([]types.Student, error)
	FetchByID(ctx context.Context, id int64) (types.Student, error)
	FetchByName(ctx context.Context, name string) ([]types.Student, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, id int64, name string, age int, grade string) (int64, error)
	Stats(ctx context.Context) (types.Stats, error)
}

// MaxImportBytes caps the size of an uploaded CSV file.
const MaxImportBytes = 10 << 20

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body (JSON):
//
//	{ "name": "Ahmed Ali", "age": 20, "grade": "A" }
//
// Success response (201 Created):
//
//	{ "id": 1 }
//
// Error responses:
//
//	400 Bad Request   empty body, malformed JSON, or failed validation
//	503 Unavailable   database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var student types.Student
		if !response.DecodeJSON(w, r, &student) {
			return
		}

		// Age bounds are enforced here, not in the store.
		if !response.Validate(w, student) {
			return
		}

		lastID, err := store.Insert(r.Context(), student.Name, student.Age, student.Grade)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, map[string]int64{"id": lastID})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Error responses:
//
//	400 Bad Request   id is not a valid integer
//	404 Not Found     no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		student, err := store.FetchByID(r.Context(), id)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students. An empty table is [] (not null).
func GetList(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.FetchAll(r.Context())
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// Search handles GET /api/students/search?name=...
// The match is exact and case-sensitive; no match is [].
func Search(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("query parameter name is required")))
			return
		}

		students, err := store.FetchByName(r.Context(), name)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
//
// Request body (JSON), all fields required:
//
//	{ "name": "Sara Mohamed", "age": 20, "grade": "A" }
//
// Success response (200 OK):
//
//	{ "id": 7, "previous_id": 3 }
//
// The record is reinserted, so "id" usually differs from the path id.
// Clients must use the returned id from now on.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		var student types.Student
		if !response.DecodeJSON(w, r, &student) {
			return
		}
		if !response.Validate(w, student) {
			return
		}

		newID, err := store.Update(r.Context(), id, student.Name, student.Age, student.Grade)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]int64{"id": newID, "previous_id": id})
	}
}

// Delete handles DELETE /api/students/{id}.
// Deleting an unknown id is not an error: { "deleted": false }.
func Delete(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.Int64("id", id))

		deleted, err := store.Delete(r.Context(), id)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
	}
}

// Stats handles GET /api/students/stats.
func Stats(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats(r.Context())
		if err != nil {
			response.StoreError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, stats)
	}
}

// Import handles POST /api/students/import with a CSV body
// (Name, Age, Grade columns). Row failures are reported, not fatal.
//
//	413 Request Entity Too Large  body over MaxImportBytes
func Import(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("importing students")

		body := http.MaxBytesReader(w, r.Body, MaxImportBytes)
		report, err := bulk.Import(r.Context(), body, store, nil)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// Rows read before the limit stay imported.
			slog.Warn("import body too large",
				slog.Int64("limit", tooLarge.Limit),
				slog.Int("added", report.Added))
			response.WriteJSON(w, http.StatusRequestEntityTooLarge,
				response.GeneralError(fmt.Errorf("CSV body exceeds %d bytes; %d students were imported before the limit",
					tooLarge.Limit, report.Added)))
			return
		}
		if err != nil {
			response.StoreError(w, err)
			return
		}

		slog.Info("import finished",
			slog.Int("added", report.Added),
			slog.Int("failed", report.Failed))
		response.WriteJSON(w, http.StatusOK, report)
	}
}

// Export handles GET /api/students/export and streams students.csv.
func Export(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := store.FetchAll(r.Context())
		if err != nil {
			response.StoreError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)
		if _, err := bulk.Export(r.Context(), w, fixed(students)); err != nil {
			slog.Error("export failed", slog.String("error", err.Error()))
		}
	}
}

// fixed serves an already-fetched slice as a bulk.Lister, so a storage
// error can still be reported before any CSV byte is written.
type fixed []types.Student

func (f fixed) FetchAll(context.Context) ([]types.Student, error) { return f, nil }

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(fmt.Errorf("invalid id %q: must be an integer", raw)))
		return 0, false
	}
	return id, true
}
