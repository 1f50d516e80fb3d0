package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/apperr"
)

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob", "pw1", "user")

	task, err := env.taskSvc.CreateTask(ctx, bob, "t1", "d1")
	require.NoError(t, err)
	assert.Equal(t, bob, task.OwnerID)
	assert.False(t, task.Completed)

	done, err := env.taskSvc.CompleteTask(ctx, task.ID, bob)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	tasks, err := env.taskSvc.ListTasks(ctx, bob)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, "t1", tasks[0].Title)
	assert.Equal(t, "d1", tasks[0].Description)
}

func TestTaskOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "pw1", "user")
	bob := env.register(t, "bob", "pw1", "user")

	task, err := env.taskSvc.CreateTask(ctx, alice, "secret", "alice only")
	require.NoError(t, err)

	_, err = env.taskSvc.GetTask(ctx, task.ID, bob)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = env.taskSvc.CompleteTask(ctx, task.ID, bob)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, env.taskSvc.DeleteTask(ctx, task.ID, bob), ErrTaskNotFound)

	// an absent task and a foreign task look the same
	_, missing := env.taskSvc.GetTask(ctx, 9999, bob)
	assert.Equal(t, missing, ErrTaskNotFound)

	got, err := env.taskSvc.GetTask(ctx, task.ID, alice)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestDeleteTask_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob", "pw1", "user")

	task, err := env.taskSvc.CreateTask(ctx, bob, "t1", "d1")
	require.NoError(t, err)
	other, err := env.taskSvc.CreateTask(ctx, bob, "t2", "d2")
	require.NoError(t, err)

	require.NoError(t, env.taskSvc.DeleteTask(ctx, task.ID, bob))
	assert.ErrorIs(t, env.taskSvc.DeleteTask(ctx, task.ID, bob), ErrTaskNotFound)
	assert.ErrorIs(t, env.taskSvc.DeleteTask(ctx, task.ID, bob), ErrTaskNotFound)

	tasks, err := env.taskSvc.ListTasks(ctx, bob)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, other.ID, tasks[0].ID)
}

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	bob := env.register(t, "bob", "pw1", "user")

	_, err := env.taskSvc.CreateTask(context.Background(), bob, "   ", "d")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
