package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"task-manager/internal/apperr"
	"task-manager/internal/domain"
	"task-manager/internal/storage"
)

var errInvalidTaskID = apperr.Validation("invalid task id")

type createTaskRequest struct {
	Title       string `json:"task_title"`
	Description string `json:"task_description"`
}

func (h *Handler) createTask(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validation("invalid request body"))
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), id.UserID, req.Title, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(*task))
}

func (h *Handler) listTasks(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), taskID, id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

func (h *Handler) completeTask(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.tasks.CompleteTask(c.Request.Context(), taskID, id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), taskID, id.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": taskID})
}

func (h *Handler) exportTasks(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}

	export, err := h.exports.ExportTasks(c.Request.Context(), id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"location":   export.Location,
		"url":        export.URL,
		"task_count": export.TaskCount,
		"created_at": export.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) listExports(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		h.respondError(c, errMissingToken)
		return
	}

	objects, err := h.exports.ListExports(c.Request.Context(), id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidTaskID
	}
	return id, nil
}

type TaskResponse struct {
	ID          int64  `json:"task_id"`
	Title       string `json:"task_title"`
	Description string `json:"task_description"`
	OwnerID     int64  `json:"owner_id"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func taskToResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		OwnerID:     task.OwnerID,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
}
