package httpapi

import (
	"net/http"
	"strings"

	"taskManager/internal/auth"

	"github.com/gorilla/mux"
)

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// NewRouter wires every route. Routes under the protected subrouter pass
// through the bearer gate before reaching a handler.
func NewRouter(h *Handlers, verifier auth.Verifier) http.Handler {
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Authenticated routes
	protected := router.NewRoute().Subrouter()
	protected.Use(auth.Middleware(verifier))
	protected.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}", h.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", h.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}", h.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/user", h.Profile).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithMessage(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowed := allowedMethods(router, r); len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
		}
		respondWithMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return requestLogger(router)
}

// allowedMethods lists the methods that would have matched r's path.
func allowedMethods(router *mux.Router, r *http.Request) []string {
	var allowed []string
	for _, m := range routeMethods {
		probe := r.Clone(r.Context())
		probe.Method = m
		var match mux.RouteMatch
		if router.Match(probe, &match) && match.MatchErr == nil {
			allowed = append(allowed, m)
		}
	}
	return allowed
}
