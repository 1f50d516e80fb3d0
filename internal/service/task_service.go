package service

import (
	"context"
	"errors"
	"strings"

	"task-manager/internal/apperr"
	"task-manager/internal/domain"
	"task-manager/internal/repository"
)

// TaskService coordinates owner-scoped task operations backed by repositories.
type TaskService interface {
	CreateTask(ctx context.Context, ownerID int64, title, description string) (*domain.Task, error)
	GetTask(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error)
	CompleteTask(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	DeleteTask(ctx context.Context, id, ownerID int64) error
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) CreateTask(ctx context.Context, ownerID int64, title, description string) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("task title is required")
	}
	if err := checkLength("task_title", title, 1, 200); err != nil {
		return nil, err
	}
	if len([]rune(description)) > 2000 {
		return nil, apperr.Validation("task_description must be at most 2000 characters")
	}

	task := &domain.Task{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		Completed:   false,
	}
	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperr.Internal(err)
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	task, err := s.tasks.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, taskError(err)
	}
	// the query is owner-scoped already; never hand out someone else's row
	if !task.OwnedBy(ownerID) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tasks, nil
}

func (s *taskService) CompleteTask(ctx context.Context, id, ownerID int64) (*domain.Task, error) {
	if err := s.tasks.MarkCompleted(ctx, id, ownerID); err != nil {
		return nil, taskError(err)
	}
	return s.GetTask(ctx, id, ownerID)
}

func (s *taskService) DeleteTask(ctx context.Context, id, ownerID int64) error {
	if err := s.tasks.DeleteForOwner(ctx, id, ownerID); err != nil {
		return taskError(err)
	}
	return nil
}

func taskError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return apperr.Internal(err)
}
