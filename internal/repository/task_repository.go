package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minitasks/internal/model"
)

// priorityOrder sorts high before medium before low.
const priorityOrder = "CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC"

// TaskRepository defines task persistence operations. Every method that reads
// or writes more than a single known row is scoped by owner in the query itself.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error)
	SetCompleted(ctx context.Context, id, ownerID uuid.UUID, completed bool, at time.Time) (bool, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return translate(r.db.WithContext(ctx).Create(task).Error)
}

// FindByID finds a task by ID regardless of owner. Callers must compare task.UserID.
func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// ListByOwner returns the owner's tasks, highest priority first, oldest first within a priority.
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order(priorityOrder).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetCompleted updates the completion flag of a task owned by ownerID.
// It reports whether a row matched.
func (r *taskRepository) SetCompleted(ctx context.Context, id, ownerID uuid.UUID, completed bool, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(map[string]interface{}{
			"completed":  completed,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a task owned by ownerID. It reports whether a row matched.
func (r *taskRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Task{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
