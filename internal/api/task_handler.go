package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasklist-api/internal/api/shared"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/redact"
	"github.com/phrazzld/tasklist-api/internal/service"
)

// TaskRequest is the body of create and update requests.
type TaskRequest struct {
	Title       string  `json:"title"        validate:"required,max=255"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
	DueDate     *string `json:"due_date"     validate:"omitempty,datetime=2006-01-02"`
}

// toInput converts the request into a domain.TaskInput.
func (req *TaskRequest) toInput() (domain.TaskInput, error) {
	in := domain.TaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.IsCompleted != nil {
		in.Completed = *req.IsCompleted
	}
	if req.DueDate != nil {
		due, err := domain.ParseDueDate(*req.DueDate)
		if err != nil {
			return domain.TaskInput{}, err
		}
		in.DueDate = due
	}
	return in, nil
}

// UpdateStatusRequest is the body of the status route.
type UpdateStatusRequest struct {
	IsCompleted *bool `json:"is_completed" validate:"required"`
}

// TaskResponse is a task as returned to its owner.
type TaskResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"is_completed"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// TaskListResponse wraps the owner's tasks.
type TaskListResponse struct {
	Todos []TaskResponse `json:"todos"`
}

// MessageResponse carries a single status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse carries the stored completion flag.
type StatusResponse struct {
	IsCompleted bool `json:"is_completed"`
}

// TaskLogResponse is one audit entry of a task.
type TaskLogResponse struct {
	ID        int64  `json:"id"`
	TodoID    int64  `json:"todo_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// TaskLogsResponse wraps the audit history of a task.
type TaskLogsResponse struct {
	Logs []TaskLogResponse `json:"logs"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		UserID:      t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.Completed,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(domain.DueDateLayout)
		resp.DueDate = &d
	}
	return resp
}

// TaskHandler serves the task routes of the authenticated owner.
type TaskHandler struct {
	tasks  service.TaskService
	audit  service.AuditService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, audit service.AuditService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: constructor argument check
		panic("task service cannot be nil for TaskHandler")
	}
	if audit == nil {
		// ALLOW-PANIC: constructor argument check
		panic("audit service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		audit:  audit,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// Routes mounts the task routes on r. Authentication is applied by the caller.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/todos", h.ListTasks)
	r.Post("/todo", h.CreateTask)
	r.Route("/todo/{id}", func(r chi.Router) {
		r.Get("/", h.GetTask)
		r.Put("/", h.UpdateTask)
		r.Delete("/", h.DeleteTask)
		r.Patch("/update-status", h.UpdateTaskStatus)
		r.Get("/logs", h.GetTaskLogs)
	})
}

// ListTasks handles GET /todos.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := TaskListResponse{Todos: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Todos = append(resp.Todos, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetTask handles GET /todo/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.requireOwnerAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(r.Context(), taskID, ownerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// CreateTask handles POST /todo.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Create(r.Context(), ownerID, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /todo/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.requireOwnerAndTaskID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Update(r.Context(), taskID, ownerID, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /todo/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.requireOwnerAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID, ownerID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Task deleted"})
}

// UpdateTaskStatus handles PATCH /todo/{id}/update-status.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.requireOwnerAndTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	completed, err := h.tasks.UpdateStatus(r.Context(), taskID, ownerID, *req.IsCompleted)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{IsCompleted: completed})
}

// GetTaskLogs handles GET /todo/{id}/logs. The task itself must be visible
// to the owner, so logs of deleted or foreign tasks are a 404.
func (h *TaskHandler) GetTaskLogs(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.requireOwnerAndTaskID(w, r)
	if !ok {
		return
	}

	if _, err := h.tasks.GetByID(r.Context(), taskID, ownerID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	entries, err := h.audit.History(r.Context(), taskID, ownerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := TaskLogsResponse{Logs: make([]TaskLogResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Logs = append(resp.Logs, TaskLogResponse{
			ID:        e.ID,
			TodoID:    e.TaskID,
			Message:   e.Message,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func (h *TaskHandler) requireOwner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID, ok := shared.GetUserID(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), h.logger).Warn("user ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return 0, false
	}
	return ownerID, true
}

func (h *TaskHandler) requireOwnerAndTaskID(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return 0, 0, false
	}

	raw := chi.URLParam(r, "id")
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || taskID <= 0 {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("invalid task ID in path",
			slog.String("task_id", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return 0, 0, false
	}
	return ownerID, taskID, true
}

func (h *TaskHandler) decodeTaskRequest(w http.ResponseWriter, r *http.Request) (domain.TaskInput, bool) {
	var req TaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return domain.TaskInput{}, false
	}

	in, err := req.toInput()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return domain.TaskInput{}, false
	}
	return in, true
}

func (h *TaskHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := shared.DecodeJSON(r, req); err != nil {
		log.Debug("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

func (h *TaskHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
