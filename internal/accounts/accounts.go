// Package accounts stores login credentials per role.
//
// Each namespace (admin, user) is one Store over one Document: a persisted
// map from username to password hash. Register and Authenticate always load
// the whole document; Register writes the whole document back. Namespaces
// never share keys, so the same username may exist in both.
package accounts

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/studentdb/internal/types"
)

// Namespace names an independent set of accounts.
type Namespace string

const (
	Admin Namespace = "admin"
	User  Namespace = "user"
)

// ParseNamespace accepts "admin" or "user".
func ParseNamespace(s string) (Namespace, error) {
	switch ns := Namespace(s); ns {
	case Admin, User:
		return ns, nil
	default:
		return "", types.NewError("accounts.ParseNamespace", types.ErrInvalidInput,
			fmt.Sprintf("unknown role %q: want admin or user", s))
	}
}

// Entry is one persisted account. The JSON shape matches the credential
// files written by earlier versions: {"username": ..., "password": <hex>}.
type Entry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrCorrupt marks a document that exists but cannot be decoded.
var ErrCorrupt = errors.New("accounts: corrupt document")

// Document persists a whole namespace at once.
//
// Load returns an empty map and a nil error when nothing has been saved
// yet. A payload that cannot be decoded is reported as ErrCorrupt.
type Document interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, entries map[string]Entry) error
}

// Store is safe for concurrent use within one process. Registrations from
// several processes against one document still need external locking.
type Store struct {
	ns       Namespace
	doc      Document
	mu       sync.RWMutex
	validate *validator.Validate
	log      *slog.Logger
}

// New returns the store for namespace ns. A nil logger means slog.Default().
func New(ns Namespace, doc Document, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		ns:       ns,
		doc:      doc,
		validate: validator.New(),
		log:      log.With(slog.String("namespace", string(ns))),
	}
}

// Namespace reports which namespace the store serves.
func (s *Store) Namespace() Namespace { return s.ns }

// Register hashes password and stores it under username. It fails with
// types.ErrAlreadyExists if username is taken, leaving the stored hash as is.
func (s *Store) Register(ctx context.Context, username, password string) error {
	const op = "accounts.Register"

	if err := s.validate.Struct(types.Credentials{Username: username, Password: password}); err != nil {
		return types.WrapError(op, types.ErrInvalidInput, "username and password are required", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, op)
	if err != nil {
		return err
	}

	if _, ok := entries[username]; ok {
		return types.NewError(op, types.ErrAlreadyExists,
			fmt.Sprintf("username %q already exists", username))
	}

	entries[username] = Entry{Username: username, Password: Hash(password)}
	if err := s.doc.Save(ctx, entries); err != nil {
		s.log.Error("cannot save accounts", slog.String("error", err.Error()))
		return types.WrapError(op, types.ErrStorageUnavailable, "cannot save accounts", err)
	}

	s.log.Info("account registered", slog.String("username", username))
	return nil
}

// Authenticate reports whether password hashes to the stored hash for
// username. Unknown usernames are simply false.
func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	const op = "accounts.Authenticate"

	s.mu.RLock()
	entries, err := s.load(ctx, op)
	s.mu.RUnlock()
	if err != nil {
		return false, err
	}

	entry, ok := entries[username]
	if !ok {
		s.log.Debug("username not found", slog.String("username", username))
		return false, nil
	}

	match := subtle.ConstantTimeCompare([]byte(Hash(password)), []byte(entry.Password)) == 1
	if !match {
		s.log.Debug("incorrect password", slog.String("username", username))
	}
	return match, nil
}

// load reads the namespace. A corrupt or unreadable file counts as an empty
// namespace; only backends that cannot be reached at all surface an error.
func (s *Store) load(ctx context.Context, op string) (map[string]Entry, error) {
	entries, err := s.doc.Load(ctx)
	switch {
	case err == nil:
		if entries == nil {
			entries = make(map[string]Entry)
		}
		return entries, nil
	case errors.Is(err, ErrCorrupt), errors.Is(err, errUnreadable):
		s.log.Warn("treating accounts as empty", slog.String("error", err.Error()))
		return make(map[string]Entry), nil
	default:
		s.log.Error("cannot load accounts", slog.String("error", err.Error()))
		return nil, types.WrapError(op, types.ErrStorageUnavailable, "cannot load accounts", err)
	}
}

// Hash is the hex-encoded SHA-256 digest of password.
func Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Roles bundles the admin and user namespaces.
type Roles struct {
	Admin *Store
	User  *Store
}

// Get returns the store for ns.
func (r Roles) Get(ns Namespace) (*Store, error) {
	switch ns {
	case Admin:
		return r.Admin, nil
	case User:
		return r.User, nil
	default:
		return nil, types.NewError("accounts.Roles", types.ErrInvalidInput,
			fmt.Sprintf("unknown role %q", ns))
	}
}
