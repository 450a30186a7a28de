package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	schemas *schemaSet
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, schemas *schemaSet, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		schemas: schemas,
		logger:  logger,
	}
}

// updateTaskRequest - тело PATCH. assignee_user_id различает отсутствие и null.
type updateTaskRequest struct {
	Title          *string           `json:"title"`
	Status         *model.TaskStatus `json:"status"`
	AssigneeUserID model.OptionalID  `json:"assignee_user_id"`
	Version        *int              `json:"version"`
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterOf(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	var req updateTaskRequest
	if err := decodeBody(w, r, h.schemas.taskUpdate, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	task, err := h.service.Update(r.Context(), id, requester, model.TaskPatch{
		Title:          req.Title,
		Status:         req.Status,
		AssigneeUserID: req.AssigneeUserID,
		Version:        req.Version,
	})
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	h.logger.Info("task updated",
		zap.Int64("task_id", task.ID),
		zap.Int64("user_id", requester.ID),
		zap.Int("version", task.Version),
	)
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterOf(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, requester); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type transitionsResponse struct {
	From       model.TaskStatus   `json:"from"`
	To         *model.TaskStatus  `json:"to,omitempty"`
	Allowed    *bool              `json:"allowed,omitempty"`
	Successors []model.TaskStatus `json:"successors"`
}

// Transitions отвечает на ?from=&to= без обращения к хранилищу.
// Без to возвращает только список допустимых следующих статусов.
func (h *TaskHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	from := model.TaskStatus(r.URL.Query().Get("from"))
	if from == "" {
		handleErrors(w, r, h.logger, apperr.New(apperr.InvalidInput, "Query parameter from is required."))
		return
	}

	resp := transitionsResponse{From: from, Successors: model.Successors(from)}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to := model.TaskStatus(raw)
		allowed := model.CanTransition(from, to)
		resp.To = &to
		resp.Allowed = &allowed
	}
	respond.JSON(w, r, http.StatusOK, resp)
}
