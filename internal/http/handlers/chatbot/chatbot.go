// Package chatbot exposes the command interpreter over HTTP.
package chatbot

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/studentdb/internal/chat"
	"github.com/aanand-mishra/studentdb/internal/http/middleware"
	"github.com/aanand-mishra/studentdb/internal/utils/response"
)

// Request is the body of POST /api/chat. An empty message is not an
// error; the interpreter answers it with its fixed "didn't understand" reply.
type Request struct {
	Message string `json:"message"`
}

// Reply is the response body.
type Reply struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}

// Ask handles POST /api/chat. The server keeps no transcript; clients
// hold their own history.
func Ask(it *chat.Interpreter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if !response.DecodeJSON(w, r, &req) {
			return
		}

		intent, _ := chat.Classify(req.Message)
		if p, ok := middleware.PrincipalFrom(r.Context()); ok {
			slog.Info("chat message",
				slog.String("username", p.Username),
				slog.String("role", string(p.Role)),
				slog.String("intent", intent.String()))
		}
		reply, err := it.Respond(r.Context(), req.Message)
		if err != nil {
			slog.Error("chat lookup failed", slog.String("error", err.Error()))
			response.StoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, Reply{Intent: intent.String(), Reply: reply})
	}
}
