package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskbase/taskbase/internal/middleware"
	"github.com/taskbase/taskbase/internal/service"
	"github.com/taskbase/taskbase/internal/task"
)

// TaskService is the producer side of service.Service
type TaskService interface {
	Namespaces() []string
	Authorized(namespace string) bool
	Push(ctx context.Context, tasks []task.PushTask) error
	NotifyReady(ctx context.Context, namespace, payload string) error
}

// TaskHandler handles task and namespace endpoints
type TaskHandler struct {
	svc    TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// TaskInput is one task in a push request
type TaskInput struct {
	ID        *int64          `json:"id,omitempty" validate:"omitempty,min=1"`
	Namespace string          `json:"namespace" validate:"required,excludesall=/"`
	TaskName  string          `json:"task_name" validate:"required"`
	Context   json.RawMessage `json:"context,omitempty"`
	Status    task.Status     `json:"status" validate:"required"`
}

type PushTasksRequest struct {
	Tasks []TaskInput `json:"tasks" validate:"required,min=1,max=10000,dive"`
}

// PushTasksResponse reports how many tasks were written. Tasks for namespaces
// this server does not serve are counted as dropped.
type PushTasksResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

type NamespacesResponse struct {
	Namespaces []string `json:"namespaces"`
}

type NotifyRequest struct {
	Payload string `json:"payload" validate:"max=7999"`
}

// ListNamespaces handles GET /api/v1/namespaces
func (h *TaskHandler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	out := []string{}
	for _, ns := range h.svc.Namespaces() {
		if claims == nil || claims.Allows(ns) {
			out = append(out, ns)
		}
	}
	sendJSON(w, http.StatusOK, NamespacesResponse{Namespaces: out})
}

// Push handles POST /api/v1/tasks
func (h *TaskHandler) Push(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeJSON[PushTasksRequest](w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(r.Context())
	tasks := make([]task.PushTask, 0, len(input.Tasks))
	resp := PushTasksResponse{}
	var forbidden []string

	for _, in := range input.Tasks {
		if claims != nil && !claims.Allows(in.Namespace) {
			forbidden = append(forbidden, in.Namespace)
			continue
		}
		if h.svc.Authorized(in.Namespace) {
			resp.Accepted++
		} else {
			resp.Dropped++
		}
		tasks = append(tasks, task.PushTask{
			ID:        in.ID,
			Namespace: in.Namespace,
			TaskName:  in.TaskName,
			Context:   []byte(in.Context),
			Status:    in.Status,
		})
	}

	if len(forbidden) > 0 {
		sendError(w, r, http.StatusForbidden, "FORBIDDEN", "Token does not grant access to namespace", forbidden)
		return
	}

	if err := h.svc.Push(r.Context(), tasks); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	sendJSON(w, http.StatusAccepted, resp)
}

// Notify handles POST /api/v1/namespaces/{namespace}/notify
func (h *TaskHandler) Notify(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	if claims := middleware.ClaimsFrom(r.Context()); claims != nil && !claims.Allows(namespace) {
		sendError(w, r, http.StatusForbidden, "FORBIDDEN", "Token does not grant access to namespace", namespace)
		return
	}

	var input NotifyRequest
	if r.ContentLength != 0 {
		var ok bool
		if input, ok = decodeJSON[NotifyRequest](w, r); !ok {
			return
		}
	}

	if err := h.svc.NotifyReady(r.Context(), namespace, input.Payload); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorizedNamespace):
		sendError(w, r, http.StatusNotFound, "NOT_FOUND", "Namespace is not served here", nil)
	case errors.Is(err, service.ErrInvalidStatus):
		sendError(w, r, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
	default:
		h.logger.Error("Task operation failed",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		sendError(w, r, http.StatusInternalServerError, "DB_ERROR", "Database error", nil)
	}
}
