package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/plannerd/taskplanner/internal/orchestrator"
	"github.com/plannerd/taskplanner/internal/request"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	orch *orchestrator.Orchestrator
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(orch *orchestrator.Orchestrator) *TaskHandler {
	return &TaskHandler{orch: orch}
}

// RegisterRoutes registers task routes on the given router. The router
// should already carry the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id:[0-9]+}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id:[0-9]+}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id:[0-9]+}/ack", h.AcknowledgeReminder).Methods("POST")
	r.HandleFunc("/{id:[0-9]+}/snooze", h.SnoozeReminder).Methods("POST")
}

// CreateTaskRequest represents a create task request. When accepts RFC3339
// or natural language, interpreted in the user's timezone.
type CreateTaskRequest struct {
	Title           string `json:"title"`
	When            string `json:"when"`
	DurationMin     int    `json:"duration_min"`
	RemindBeforeMin *int   `json:"remind_before_min,omitempty"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Title           *string `json:"title,omitempty"`
	When            *string `json:"when,omitempty"`
	DurationMin     *int    `json:"duration_min,omitempty"`
	RemindBeforeMin *int    `json:"remind_before_min,omitempty"`
}

// SnoozeRequest represents a snooze request
type SnoozeRequest struct {
	Minutes int `json:"minutes"`
}

// ListTasks lists the user's upcoming tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	tasks, err := h.orch.ListUpcoming(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a new task, arming its reminder and scheduling the
// remote calendar mirror
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	task, warnings, err := h.orch.CreateTask(r.Context(), user.ID, orchestrator.CreateTaskInput{
		Title:           req.Title,
		When:            req.When,
		DurationMin:     req.DurationMin,
		RemindBeforeMin: req.RemindBeforeMin,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidInput) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	respondJSONWarnings(w, http.StatusCreated, task, warnings)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	task, err := h.orch.GetTask(r.Context(), user.ID, taskID)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a partial update. Start and reminder changes re-sync
// the remote mirror and re-arm the wake-up; title and duration changes only
// persist.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	ctx := r.Context()
	var warnings []string

	if req.Title != nil {
		if err := h.orch.EditTitle(ctx, user.ID, taskID, *req.Title); err != nil {
			respondOrchestratorError(w, err, "Failed to update task")
			return
		}
	}
	if req.DurationMin != nil {
		if err := h.orch.EditDuration(ctx, user.ID, taskID, *req.DurationMin); err != nil {
			respondOrchestratorError(w, err, "Failed to update task")
			return
		}
	}
	if req.When != nil {
		_, warns, err := h.orch.EditStart(ctx, user.ID, taskID, *req.When)
		if err != nil {
			respondOrchestratorError(w, err, "Failed to update task")
			return
		}
		warnings = append(warnings, warns...)
	}
	if req.RemindBeforeMin != nil {
		_, warns, err := h.orch.EditReminder(ctx, user.ID, taskID, *req.RemindBeforeMin)
		if err != nil {
			respondOrchestratorError(w, err, "Failed to update task")
			return
		}
		warnings = append(warnings, warns...)
	}

	task, err := h.orch.GetTask(ctx, user.ID, taskID)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	respondJSONWarnings(w, http.StatusOK, task, warnings)
}

// DeleteTask removes a task and cancels its reminder. A mirrored remote
// event is not removed.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.orch.DeleteTask(r.Context(), user.ID, taskID); err != nil {
		respondOrchestratorError(w, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AcknowledgeReminder dismisses a fired or pending reminder
func (h *TaskHandler) AcknowledgeReminder(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.orch.Acknowledge(r.Context(), user.ID, taskID); err != nil {
		respondOrchestratorError(w, err, "Failed to acknowledge reminder")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SnoozeReminder re-arms a task's reminder a few minutes from now
func (h *TaskHandler) SnoozeReminder(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	var req SnoozeRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	if err := h.orch.Snooze(r.Context(), user.ID, taskID, req.Minutes); err != nil {
		respondOrchestratorError(w, err, "Failed to snooze reminder")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func taskIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return err
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return err
	}
	return nil
}

func respondOrchestratorError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, orchestrator.ErrTaskNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", fallback)
	}
}
