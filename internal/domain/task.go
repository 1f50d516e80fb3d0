package domain

import "time"

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int64
	Title       string
	Description string
	OwnerID     int64
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether the task belongs to the given user.
func (t *Task) OwnedBy(userID int64) bool {
	return t != nil && t.OwnerID == userID
}
