// Package router wires the handlers into one router.
//
// Route table:
//
//	POST   /api/accounts/register       open: create a user account
//	POST   /api/accounts/{role}/login   open: check admin or user credentials
//	POST   /api/students                admin
//	GET    /api/students                admin
//	GET    /api/students/search?name=   admin
//	GET    /api/students/stats          admin
//	POST   /api/students/import         admin, CSV body
//	GET    /api/students/export         admin, CSV download
//	GET    /api/students/{id}           admin
//	PUT    /api/students/{id}           admin
//	DELETE /api/students/{id}           admin
//	POST   /api/chat                    admin or user
//	GET    /healthz                     open
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/studentdb/internal/accounts"
	"github.com/aanand-mishra/studentdb/internal/chat"
	"github.com/aanand-mishra/studentdb/internal/http/handlers/account"
	"github.com/aanand-mishra/studentdb/internal/http/handlers/chatbot"
	"github.com/aanand-mishra/studentdb/internal/http/handlers/student"
	"github.com/aanand-mishra/studentdb/internal/http/middleware"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Students    student.Store
	Roles       accounts.Roles
	Interpreter *chat.Interpreter
	Log         *slog.Logger
}

// NewRouter registers every route and returns the wrapped handler.
func NewRouter(d Deps) http.Handler {
	router := http.NewServeMux()

	admin := middleware.RequireRole(d.Roles.Admin)
	anyone := middleware.RequireRole(d.Roles.Admin, d.Roles.User)

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.HandleFunc("POST /api/accounts/register", account.Register(d.Roles.User))
	router.HandleFunc("POST /api/accounts/{role}/login", account.Login(d.Roles))

	router.Handle("POST /api/students", admin(student.New(d.Students)))
	router.Handle("GET /api/students", admin(student.GetList(d.Students)))
	router.Handle("GET /api/students/search", admin(student.Search(d.Students)))
	router.Handle("GET /api/students/stats", admin(student.Stats(d.Students)))
	router.Handle("POST /api/students/import", admin(student.Import(d.Students)))
	router.Handle("GET /api/students/export", admin(student.Export(d.Students)))
	router.Handle("GET /api/students/{id}", admin(student.GetByID(d.Students)))
	router.Handle("PUT /api/students/{id}", admin(student.Update(d.Students)))
	router.Handle("DELETE /api/students/{id}", admin(student.Delete(d.Students)))

	router.Handle("POST /api/chat", anyone(chatbot.Ask(d.Interpreter)))

	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return middleware.Chain(router, middleware.RequestID, middleware.Logger(log))
}
