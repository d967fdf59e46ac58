// Package middleware wraps handlers with request ids, request logging and
// role checks.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/studentdb/internal/accounts"
	"github.com/aanand-mishra/studentdb/internal/utils/response"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	principalKey
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Principal is the account a request was authenticated as.
type Principal struct {
	Username string
	Role     accounts.Namespace
}

// RequestID reuses the caller's X-Request-ID or generates one, and echoes
// it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the id set by RequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger logs one line per request.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", RequestIDFrom(r.Context())),
			)
		})
	}
}

// RequireRole admits requests whose HTTP Basic credentials authenticate
// against any of the given namespaces, tried in order. There is no session:
// every request is checked against the stored hash.
func RequireRole(stores ...*accounts.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="studentdb"`)
				response.WriteJSON(w, http.StatusUnauthorized,
					response.GeneralError(errors.New("credentials are required")))
				return
			}

			for _, store := range stores {
				valid, err := store.Authenticate(r.Context(), username, password)
				if err != nil {
					response.StoreError(w, err)
					return
				}
				if valid {
					p := Principal{Username: username, Role: store.Namespace()}
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
					return
				}
			}

			response.WriteJSON(w, http.StatusForbidden,
				response.GeneralError(errors.New("invalid credentials for this resource")))
		})
	}
}

// PrincipalFrom returns the authenticated account, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Chain applies mw to h so that the first middleware is the outermost.
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
