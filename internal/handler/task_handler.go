package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"minitasks/internal/errors"
	"minitasks/internal/middleware"
	"minitasks/internal/model"
	"minitasks/internal/service"
)

// TaskHandler handles task endpoints. Every route sits behind RequireAuth.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// UpdateTaskRequest represents a task completion update.
type UpdateTaskRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// OKResponse acknowledges a delete.
type OKResponse struct {
	OK bool `json:"ok"`
}

// List godoc
// @Summary List the caller's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TaskList
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	list, err := h.taskService.List(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	identity := middleware.IdentityFrom(c)
	task, err := h.taskService.Create(c.Request().Context(), identity.UserID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
	})
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errors.ToEchoError(errors.ErrTaskNotFound)
	}

	identity := middleware.IdentityFrom(c)
	task, err := h.taskService.Get(c.Request().Context(), identity.UserID, id)
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Update godoc
// @Summary Set a task's completion flag
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Completion"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errors.ToEchoError(errors.ErrTaskNotFound)
	}

	var req UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	identity := middleware.IdentityFrom(c)
	task, err := h.taskService.SetCompleted(c.Request().Context(), identity.UserID, id, *req.Completed)
	if err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Description Deleting a task that does not exist succeeds.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} OKResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// No task can have this id.
		return c.JSON(http.StatusOK, OKResponse{OK: true})
	}

	identity := middleware.IdentityFrom(c)
	if err := h.taskService.Delete(c.Request().Context(), identity.UserID, id); err != nil {
		return errors.ToEchoError(err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
