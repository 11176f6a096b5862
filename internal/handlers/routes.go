package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/s/ecourse/internal/middleware"
)

// Routes builds the API router. Every route runs behind authn; the ones that
// need a user are additionally wrapped in RequireUser.
func (h *Handler) Routes(authn *middleware.Authenticator) http.Handler {
	r := mux.NewRouter()
	r.Use(authn.Authenticate)

	auth := middleware.RequireUser

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)

	r.HandleFunc("/courses", h.ListCourses).Methods(http.MethodGet)
	r.HandleFunc("/courses/{id:[0-9]+}/lessons", h.ListCourseLessons).Methods(http.MethodGet)

	r.HandleFunc("/lessons", h.ListLessons).Methods(http.MethodGet)
	r.HandleFunc("/lessons/{id:[0-9]+}", h.GetLesson).Methods(http.MethodGet)
	r.HandleFunc("/lessons/{id:[0-9]+}/tags", h.AddLessonTags).Methods(http.MethodPost)
	r.HandleFunc("/lessons/{id:[0-9]+}/add-comment", auth(h.AddComment)).Methods(http.MethodPost)
	r.HandleFunc("/lessons/{id:[0-9]+}/comments", h.ListComments).Methods(http.MethodGet)
	r.HandleFunc("/lessons/{id:[0-9]+}/like", auth(h.TakeAction)).Methods(http.MethodPost)
	r.HandleFunc("/lessons/{id:[0-9]+}/rating", auth(h.Rate)).Methods(http.MethodPost)

	r.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/users/current-user", auth(h.CurrentUser)).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id:[0-9]+}", auth(h.UpdateUser)).Methods(http.MethodPatch)

	r.HandleFunc("/comments/{id:[0-9]+}", auth(h.UpdateComment)).Methods(http.MethodPatch)
	r.HandleFunc("/comments/{id:[0-9]+}", auth(h.DeleteComment)).Methods(http.MethodDelete)

	r.HandleFunc("/auth/info", h.AuthInfo).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
	})

	return trimTrailingSlash(r)
}

// trimTrailingSlash lets /courses/ and /courses reach the same route.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimRight(r.URL.Path, "/")
			if r.URL.RawPath != "" {
				r.URL.RawPath = strings.TrimRight(r.URL.RawPath, "/")
			}
		}
		next.ServeHTTP(w, r)
	})
}
