// Package response provides helpers for writing consistent JSON responses.
//
// Every error response has the same shape, so clients can rely on:
//
//	{ "status": "error", "error": "..." }
package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// Response is the standard error envelope.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON sets the Content-Type header, writes the status code and
// encodes data as the body.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any error into the standard envelope.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError turns validator field errors into one readable message.
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", field))
		case "gte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", field, e.Param()))
		case "lte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s", field, e.Param()))
		case "eqfield":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must match %s", field, strings.ToLower(e.Param())))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", field))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// StatusFor maps a store error kind to an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch types.KindOf(err) {
	case types.ErrInvalidInput:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrAlreadyExists:
		return http.StatusConflict
	case types.ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StoreError writes err with the status code for its kind. Storage
// failures are reported generically; the detail stays in the logs.
func StoreError(w http.ResponseWriter, err error) error {
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		return WriteJSON(w, status, GeneralError(errors.New("storage is unavailable, try again later")))
	}
	return WriteJSON(w, status, GeneralError(err))
}

// Validate checks v against its validate tags and writes a 400 response on
// failure. It reports whether v was valid.
func Validate(w http.ResponseWriter, v any) bool {
	err := validator.New().Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		WriteJSON(w, http.StatusBadRequest, ValidationError(verrs))
	} else {
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
	}
	return false
}

// DecodeJSON reads the request body into v and writes a 400 response on
// failure. It reports whether decoding succeeded.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	if errors.Is(err, io.EOF) {
		WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("request body is empty")))
		return false
	}
	WriteJSON(w, http.StatusBadRequest, GeneralError(err))
	return false
}
