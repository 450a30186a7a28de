package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/pkg/respond"
)

type ProjectHandler struct {
	projects *service.ProjectService
	tasks    *service.TaskService
	schemas  *schemaSet
	logger   *zap.Logger
}

func NewProjectHandler(projects *service.ProjectService, tasks *service.TaskService, schemas *schemaSet, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		tasks:    tasks,
		schemas:  schemas,
		logger:   logger,
	}
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type createTaskRequest struct {
	Title          string  `json:"title"`
	AssigneeUserID *int64  `json:"assignee_user_id"`
	DueDate        *string `json:"due_date"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, projects)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(w, r, h.schemas.projectCreate, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/projects/%d", project.ID))
	respond.JSON(w, r, http.StatusCreated, project)
}

// ListTasks поддерживает фильтры ?status= и ?assignee=.
func (h *ProjectHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := idParam(r, "id")
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	var filter model.TaskFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.TaskStatus(raw)
		if !status.Valid() {
			handleErrors(w, r, h.logger, apperr.Newf(apperr.InvalidInput, "Unknown status %q.", raw))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("assignee"); raw != "" {
		assignee, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			handleErrors(w, r, h.logger, apperr.New(apperr.InvalidInput, "Invalid assignee."))
			return
		}
		filter.AssigneeID = &assignee
	}

	tasks, err := h.tasks.ListByProject(r.Context(), projectID, filter)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterOf(r)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	projectID, err := idParam(r, "id")
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	var req createTaskRequest
	if err := decodeBody(w, r, h.schemas.taskCreate, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.tasks.Create(r.Context(), requester, projectID, service.CreateTaskInput{
		Title:          req.Title,
		AssigneeUserID: req.AssigneeUserID,
		DueDate:        dueDate,
	}, idempKey)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID, err := idParam(r, "id")
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	stats, err := h.tasks.Stats(r.Context(), projectID)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}
