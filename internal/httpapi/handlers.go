package httpapi

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"taskManager/internal/service"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers struct holds the services, allowing methods to share them.
type Handlers struct {
	Auth     *service.AuthService
	Tasks    *service.TaskService
	Profiles *service.ProfileService
	DB       Pinger
	Env      string
}

// Register handles a new user registration.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"userId":  id,
	})
}

// Login handles user authentication and returns a JWT.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}
	res, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":      res.User,
		"message":   "Login successful",
	})
}

// ListTasks retrieves the caller's tasks.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Tasks.List(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// CreateTask creates a new task owned by the caller.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in service.CreateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}
	t, err := h.Tasks.Create(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, t)
}

// GetTask retrieves a single task by its ID.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	t, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

// UpdateTask applies a partial update to an existing task.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in service.UpdateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}
	t, err := h.Tasks.Update(r.Context(), id, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

// DeleteTask deletes a task by its ID.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.Tasks.Delete(r.Context(), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile returns the caller's account summary.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// Health always answers 200; the database field reflects a live ping.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	dbState := "ok"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			dbState = "unavailable"
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"env":       h.Env,
		"goVersion": runtime.Version(),
		"database":  dbState,
	})
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, status.Error(codes.InvalidArgument, "Invalid task ID")
	}
	return id, nil
}
