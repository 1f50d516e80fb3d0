package repository

import (
	"context"

	"task-manager/internal/domain"
)

// TaskRepository exposes persistence operations for Task aggregates. Every
// read and mutation of an existing task is scoped to its owner; a task owned
// by someone else is indistinguishable from a missing one (ErrNotFound).
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	GetForOwner(ctx context.Context, id, ownerID int64) (*domain.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error)
	MarkCompleted(ctx context.Context, id, ownerID int64) error
	DeleteForOwner(ctx context.Context, id, ownerID int64) error
}
