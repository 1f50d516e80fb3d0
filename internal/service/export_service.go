package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/apperr"
	"task-manager/internal/domain"
	"task-manager/internal/repository"
	"task-manager/internal/storage"
)

const defaultExportURLExpiry = 15 * time.Minute

// ExportOptions configures where task snapshots are written.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// Export describes an uploaded task snapshot.
type Export struct {
	Key       string
	Location  string
	URL       string
	TaskCount int
	CreatedAt time.Time
}

// ExportService writes JSON snapshots of a user's tasks to object storage.
type ExportService interface {
	ExportTasks(ctx context.Context, ownerID int64) (*Export, error)
	ListExports(ctx context.Context, ownerID int64) ([]storage.ObjectInfo, error)
}

type exportService struct {
	tasks   repository.TaskRepository
	storage storage.Service
	opts    ExportOptions
}

// NewExportService returns an ExportService. With a nil store or empty bucket
// every call fails with ErrExportDisabled.
func NewExportService(tasks repository.TaskRepository, store storage.Service, opts ExportOptions) ExportService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = defaultExportURLExpiry
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &exportService{
		tasks:   tasks,
		storage: store,
		opts:    opts,
	}
}

type exportedTask struct {
	ID          int64     `json:"task_id"`
	Title       string    `json:"task_title"`
	Description string    `json:"task_description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type exportDocument struct {
	OwnerID    int64          `json:"owner_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Tasks      []exportedTask `json:"tasks"`
}

func (s *exportService) ExportTasks(ctx context.Context, ownerID int64) (*Export, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now().UTC()
	doc := exportDocument{
		OwnerID:    ownerID,
		ExportedAt: now,
		Tasks:      make([]exportedTask, len(tasks)),
	}
	for i, task := range tasks {
		doc.Tasks[i] = toExportedTask(task)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("encode export: %w", err))
	}

	key := path.Join(s.ownerPrefix(ownerID), uuid.NewString()+".json")
	location, err := s.storage.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.opts.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	url, err := s.storage.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLExpiry)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Export{
		Key:       key,
		Location:  location,
		URL:       url,
		TaskCount: len(tasks),
		CreatedAt: now,
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, ownerID int64) ([]storage.ObjectInfo, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}
	objects, err := s.storage.ListObjects(ctx, s.opts.Bucket, s.ownerPrefix(ownerID)+"/")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return objects, nil
}

func (s *exportService) enabled() bool {
	return s.storage != nil && s.opts.Bucket != ""
}

func (s *exportService) ownerPrefix(ownerID int64) string {
	return path.Join(s.opts.KeyPrefix, fmt.Sprintf("user-%d", ownerID))
}

func toExportedTask(task domain.Task) exportedTask {
	return exportedTask{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
