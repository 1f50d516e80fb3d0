package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-manager/internal/apperr"
	"task-manager/internal/auth"
	"task-manager/internal/domain"
	"task-manager/internal/repository"
)

func TestRegister_PersistsHashedActiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.userSvc.Register(ctx, RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		FullName: "Bob Builder",
		Password: "pw1",
		Role:     "user",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.True(t, user.IsActive)
	assert.Equal(t, domain.RoleUser, user.Role)

	stored, err := env.users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegister_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "bob", "pw1", "user")

	_, err := env.userSvc.Register(ctx, RegisterInput{
		Username: "bob", Email: "another@example.com", FullName: "Bob Two", Password: "pw2", Role: "user",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = env.userSvc.Register(ctx, RegisterInput{
		Username: "robert", Email: "bob@example.com", FullName: "Robert", Password: "pw2", Role: "user",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// staleUsers answers the pre-insert uniqueness checks as if a concurrent
// registration had not committed yet.
type staleUsers struct {
	repository.UserRepository
	emailChecks int
}

func (s *staleUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (s *staleUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.emailChecks++
	if s.emailChecks == 1 {
		return false, nil
	}
	return s.UserRepository.ExistsByEmail(ctx, email)
}

func TestRegister_ConcurrentDuplicateReportsColumn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "bob", "pw1", "user")

	register := func(username, email string) error {
		svc := NewUserService(&staleUsers{UserRepository: env.users}, auth.NewBcryptHasher(bcrypt.MinCost), env.tokens)
		_, err := svc.Register(ctx, RegisterInput{
			Username: username, Email: email, FullName: "Someone", Password: "pw2", Role: "user",
		})
		return err
	}

	assert.ErrorIs(t, register("robert", "bob@example.com"), ErrEmailTaken)
	assert.ErrorIs(t, register("bob", "fresh@example.com"), ErrUsernameTaken)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	valid := RegisterInput{
		Username: "carol", Email: "carol@example.com", FullName: "Carol", Password: "pw", Role: "user",
	}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{"invalid role", func(in *RegisterInput) { in.Role = "superuser" }},
		{"empty role", func(in *RegisterInput) { in.Role = "" }},
		{"short username", func(in *RegisterInput) { in.Username = "c" }},
		{"long username", func(in *RegisterInput) { in.Username = strings.Repeat("c", 51) }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "p" }},
		{"long password", func(in *RegisterInput) { in.Password = strings.Repeat("p", 73) }},
		{"short full name", func(in *RegisterInput) { in.FullName = "C" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := env.userSvc.Register(context.Background(), in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	_, err := env.users.GetByUsername(context.Background(), "carol")
	assert.Error(t, err, "nothing may be persisted after a validation failure")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "bob", "pw1", "user")

	_, err := env.userSvc.Login(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = env.userSvc.Login(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	token, err := env.userSvc.Login(ctx, "bob", "pw1")
	require.NoError(t, err)
	assert.Empty(t, token.User.PasswordHash)

	claims, err := env.tokens.Verify(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestLogin_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hasher := auth.NewBcryptHasher(4)
	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	_, err = env.users.Create(ctx, &domain.User{
		Username: "dormant", Email: "dormant@example.com", PasswordHash: hash,
		FullName: "Dormant", Role: domain.RoleUser, IsActive: false,
	})
	require.NoError(t, err)

	_, err = env.userSvc.Login(ctx, "dormant", "pw1")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "bob", "pw1", "user")

	err := env.userSvc.ChangePassword(ctx, id, "wrong", "pw2")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	err = env.userSvc.ChangePassword(ctx, id, "pw1", "x")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, env.userSvc.ChangePassword(ctx, id, "pw1", "pw2"))

	_, err = env.userSvc.Login(ctx, "bob", "pw1")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = env.userSvc.Login(ctx, "bob", "pw2")
	assert.NoError(t, err)

	assert.ErrorIs(t, env.userSvc.ChangePassword(ctx, 9999, "pw2", "pw3"), ErrUserNotFound)
}

func TestListAll_RoleIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.register(t, "bob", "pw1", "user")
	adminID := env.register(t, "root", "pw1", "admin")
	env.register(t, "carol", "pw1", "user")

	_, err := env.userSvc.ListAll(ctx, auth.Identity{UserID: userID, Username: "bob", Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := env.userSvc.ListAll(ctx, auth.Identity{UserID: adminID, Username: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestGetByID(t *testing.T) {
	env := newTestEnv(t)
	id := env.register(t, "bob", "pw1", "user")

	user, err := env.userSvc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = env.userSvc.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
