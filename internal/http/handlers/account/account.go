// Package account contains the registration and login handlers.
package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/studentdb/internal/accounts"
	"github.com/aanand-mishra/studentdb/internal/utils/response"
)

// RegisterRequest is the body of POST /api/accounts/register.
type RegisterRequest struct {
	Username        string `json:"username"         validate:"required"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /api/accounts/{role}/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/accounts/register. Self-service registration
// only ever creates accounts in the user namespace; admins are created
// from the command line.
//
//	201 Created    { "username": "alice" }
//	400            missing fields or passwords do not match
//	409 Conflict   username already exists
func Register(users *accounts.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !response.DecodeJSON(w, r, &req) {
			return
		}
		if !response.Validate(w, req) {
			return
		}

		if err := users.Register(r.Context(), req.Username, req.Password); err != nil {
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
	}
}

// Login handles POST /api/accounts/{role}/login and reports whether the
// credentials are valid for that role. It issues no token.
//
//	200 OK             { "username": "alice", "role": "user" }
//	401 Unauthorized   wrong username or password
func Login(roles accounts.Roles) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ns, err := accounts.ParseNamespace(r.PathValue("role"))
		if err != nil {
			response.StoreError(w, err)
			return
		}
		store, err := roles.Get(ns)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		var req LoginRequest
		if !response.DecodeJSON(w, r, &req) {
			return
		}
		if !response.Validate(w, req) {
			return
		}

		ok, err := store.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if !ok {
			slog.Info("login rejected", slog.String("role", string(ns)), slog.String("username", req.Username))
			response.WriteJSON(w, http.StatusUnauthorized,
				response.GeneralError(errors.New("invalid "+string(ns)+" credentials")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"username": req.Username, "role": string(ns)})
	}
}
