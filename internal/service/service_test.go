package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-manager/internal/auth"
	"task-manager/internal/repository"
	"task-manager/internal/repository/sqlite"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	users   repository.UserRepository
	tasks   repository.TaskRepository
	tokens  *auth.TokenService
	userSvc UserService
	taskSvc TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	tasks := sqlite.NewTaskRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, tasks.Init(ctx))

	tokens, err := auth.NewTokenService(testSecret, 0)
	require.NoError(t, err)

	return &testEnv{
		users:   users,
		tasks:   tasks,
		tokens:  tokens,
		userSvc: NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		taskSvc: NewTaskService(tasks),
	}
}

func (e *testEnv) register(t *testing.T, username, password, role string) int64 {
	t.Helper()
	user, err := e.userSvc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return user.ID
}
