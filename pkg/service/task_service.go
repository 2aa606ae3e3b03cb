package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/models"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/pkg/storage"
)

// TaskService owns the task lifecycle, including the relationship cascade on
// deletion.
type TaskService struct {
	store  storage.Store
	logger Logger
}

func NewTaskService(store storage.Store, logger Logger) *TaskService {
	return &TaskService{store: store, logger: logger}
}

// CreateTaskInput carries the Create parameters. Zero-value optional fields
// get entity defaults.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    int
	Category    string
	Color       string
	Icon        string
	Position    *models.Position
}

func (ts *TaskService) Create(in CreateTaskInput) (task *models.Task, err error) {
	opts := []models.TaskOption{}
	if in.Description != "" {
		opts = append(opts, models.WithDescription(in.Description))
	}
	if in.Status != "" {
		opts = append(opts, models.WithStatus(in.Status))
	}
	if in.Priority != 0 {
		opts = append(opts, models.WithPriority(in.Priority))
	}
	if in.Category != "" {
		opts = append(opts, models.WithCategory(in.Category))
	}
	if in.Color != "" {
		opts = append(opts, models.WithColor(in.Color))
	}
	if in.Icon != "" {
		opts = append(opts, models.WithIcon(in.Icon))
	}
	if in.Position != nil {
		opts = append(opts, models.WithPosition(in.Position.X, in.Position.Y))
	}
	task, err = models.NewTask(uuid.NewString(), in.Title, opts...)
	if err != nil {
		return nil, err
	}

	txStore, err := ts.store.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
			task = nil
		}
	}()

	if err = txStore.SaveTask(*task); err != nil {
		return nil, errors.Wrapf(err, "failed to save task %s", task.ID)
	}
	ts.logger.Infof("Created task '%s' with ID %s", task.Title, task.ID)
	return task, nil
}

func (ts *TaskService) Get(id string) (models.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Task{}, models.NewValidationError("empty_id", nil)
	}
	task, err := ts.store.GetTask(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Task{}, models.NewNotFoundError("task", id)
		}
		return models.Task{}, errors.Wrapf(err, "failed to load task %s", id)
	}
	return task, nil
}

// ListTasksInput carries the listing parameters. Nil numeric fields take
// defaults; the same limit/offset rules as the relationship query apply.
type ListTasksInput struct {
	Statuses []models.TaskStatus
	Category string
	Search   string
	Priority *storage.PriorityRange
	Viewport *storage.Viewport
	Limit    *int
	Offset   *int
	SortBy   storage.SortField
	SortDir  storage.SortDirection
}

func (ts *TaskService) List(in ListTasksInput) ([]models.Task, error) {
	for _, s := range in.Statuses {
		if !s.Valid() {
			return nil, models.NewValidationError("invalid_status", map[string]string{"status": string(s)})
		}
	}
	switch in.SortBy {
	case "", storage.SortByPriority, storage.SortByCreatedAt, storage.SortByUpdatedAt:
	default:
		return nil, models.NewValidationError("invalid_sort_field", map[string]string{"sort": string(in.SortBy)})
	}
	switch in.SortDir {
	case "", storage.SortAsc, storage.SortDesc:
	default:
		return nil, models.NewValidationError("invalid_sort_direction", map[string]string{"direction": string(in.SortDir)})
	}
	limit, err := normalizeLimit(in.Limit)
	if err != nil {
		return nil, err
	}
	offset, err := normalizeOffset(in.Offset)
	if err != nil {
		return nil, err
	}
	return ts.store.ListTasks(storage.TaskFilter{
		Statuses: in.Statuses,
		Category: strings.TrimSpace(in.Category),
		Search:   strings.TrimSpace(in.Search),
		Priority: in.Priority,
		Viewport: in.Viewport,
		Limit:    limit,
		Offset:   offset,
		SortBy:   in.SortBy,
		SortDir:  in.SortDir,
	})
}

// UpdateTaskInput names the fields to change; nil fields are untouched.
// Empty strings clear description/category/icon.
type UpdateTaskInput struct {
	ID          string
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *int
	Category    *string
	Color       *string
	Icon        *string
	Position    *models.Position
}

// Update loads the task, applies each supplied field through the entity's
// mutators, and persists once. Mutators no-op on equal values, so an update
// that changes nothing still succeeds without bumping updatedAt.
func (ts *TaskService) Update(in UpdateTaskInput) (task *models.Task, err error) {
	existing, err := ts.Get(in.ID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := existing.Rename(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		if err := existing.Describe(*in.Description); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if err := existing.ChangeStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil {
		if err := existing.Reprioritize(*in.Priority); err != nil {
			return nil, err
		}
	}
	if in.Category != nil {
		if err := existing.Recategorize(*in.Category); err != nil {
			return nil, err
		}
	}
	if in.Color != nil {
		if err := existing.Recolor(*in.Color); err != nil {
			return nil, err
		}
	}
	if in.Icon != nil {
		existing.SetIcon(*in.Icon)
	}
	if in.Position != nil {
		if err := existing.MoveTo(in.Position.X, in.Position.Y); err != nil {
			return nil, err
		}
	}

	txStore, err := ts.store.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
			task = nil
		}
	}()

	if err = txStore.UpdateTask(existing); err != nil {
		return nil, errors.Wrapf(err, "failed to update task %s", existing.ID)
	}
	ts.logger.Infof("Updated task %s", existing.ID)
	return &existing, nil
}

// Delete removes the task and cascades to every relationship touching it, in
// one transaction, so no dangling edges remain.
func (ts *TaskService) Delete(id string) (err error) {
	task, err := ts.Get(id)
	if err != nil {
		return err
	}

	txStore, err := ts.store.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ts.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			ts.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	removed, err := txStore.DeleteByTaskID(task.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to cascade relationships for task %s", task.ID)
	}
	if err = txStore.DeleteTask(task.ID); err != nil {
		return errors.Wrapf(err, "failed to delete task %s", task.ID)
	}
	ts.logger.Infof("Deleted task %s (cascaded %d relationship(s))", task.ID, removed)
	return nil
}
