package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "minitasks/internal/errors"
	"minitasks/internal/model"
	"minitasks/internal/repository"
)

// CreateTaskInput carries the caller-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    model.Priority
}

// TaskList is an owner's tasks plus completion counts.
type TaskList struct {
	Tasks     []model.Task `json:"tasks"`
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Pending   int          `json:"pending"`
}

// TaskService exposes task operations on behalf of an authenticated owner.
type TaskService interface {
	List(ctx context.Context, ownerID uuid.UUID) (*TaskList, error)
	Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	SetCompleted(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type taskService struct {
	repo repository.TaskRepository
	now  func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository) TaskService {
	return &taskService{repo: repo, now: time.Now}
}

// List returns only the owner's tasks; the filter is part of the query.
func (s *taskService) List(ctx context.Context, ownerID uuid.UUID) (*TaskList, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("list tasks", err)
	}

	list := &TaskList{Tasks: tasks, Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			list.Completed++
		}
	}
	list.Pending = list.Total - list.Completed
	return list, nil
}

// Create stores a new task owned by ownerID.
func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.InvalidArgument("title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.InvalidArgument("priority must be one of low, medium, high")
	}

	task := &model.Task{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		Completed:   false,
		UserID:      ownerID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperrors.Internal("create task", err)
	}
	return task, nil
}

// Get returns a single task if ownerID owns it.
func (s *taskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	return s.authorize(ctx, ownerID, id)
}

// SetCompleted toggles the completion flag of an owned task.
func (s *taskService) SetCompleted(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*model.Task, error) {
	task, err := s.authorize(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	matched, err := s.repo.SetCompleted(ctx, id, ownerID, completed, now)
	if err != nil {
		return nil, apperrors.Internal("update task", err)
	}
	if !matched {
		// Deleted between the check and the update.
		return nil, apperrors.ErrTaskNotFound
	}

	task.Completed = completed
	task.UpdatedAt = now
	return task, nil
}

// Delete removes an owned task. Deleting a task that does not exist succeeds.
func (s *taskService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, ownerID, id); err != nil {
		if errors.Is(err, apperrors.ErrTaskNotFound) {
			return nil
		}
		return err
	}

	if _, err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return apperrors.Internal("delete task", err)
	}
	return nil
}

// authorize is the single ownership gate for every operation on a task id.
func (s *taskService) authorize(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, apperrors.Internal("find task", err)
	}
	if task.UserID != ownerID {
		return nil, apperrors.ErrTaskForbidden
	}
	return task, nil
}
