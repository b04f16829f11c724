package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/crm-access/internal/auth"
	"github.com/frahmantamala/crm-access/internal/rbac"
	"github.com/frahmantamala/crm-access/internal/transport"
	"github.com/frahmantamala/crm-access/pkg/logger"
)

type ServiceAPI interface {
	CreateTask(ctx context.Context, actor Actor, dto CreateTaskDTO) (*Task, error)
	ListTasks(ctx context.Context, actor Actor, limit, offset int) ([]*Task, int64, error)
	GetTask(ctx context.Context, actor Actor, id int64) (*Task, error)
	AssignTask(ctx context.Context, actor Actor, taskID int64, dto AssignTaskDTO) (*Task, rbac.AssignmentDecision, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func actorFrom(u *auth.User) Actor {
	return Actor{ID: u.ID, RoleName: u.Role.Name}
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Warn("CreateTask: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.Service.CreateTask(r.Context(), actorFrom(user), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := h.ParsePagination(r)

	tasks, total, err := h.Service.ListTasks(r.Context(), actorFrom(user), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListTasksResponse{
		Tasks:  tasks,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid task ID")
		return
	}

	task, err := h.Service.GetTask(r.Context(), actorFrom(user), taskID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid task ID")
		return
	}

	var dto AssignTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, decision, err := h.Service.AssignTask(r.Context(), actorFrom(user), taskID, dto)
	if err != nil {
		h.Logger.Warn("AssignTask: rejected", "error", err, "task_id", taskID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AssignTaskResponse{
		Task:         task,
		AssignerRole: decision.AssignerRole,
		AssigneeRole: decision.AssigneeRole,
	})
}
