package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"task-manager/internal/apperr"
	"task-manager/internal/auth"
	"task-manager/internal/domain"
	"task-manager/internal/repository"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(subject string, userID int64, role domain.Role) (string, time.Time, error)
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     string
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*AccessToken, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListAll(ctx context.Context, caller auth.Identity) ([]domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if err := checkLength("username", username, 2, 50); err != nil {
		return nil, err
	}
	if err := checkLength("full_name", fullName, 2, 100); err != nil {
		return nil, err
	}
	if err := checkLength("email", email, 5, 100); err != nil {
		return nil, err
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.Validation("email is invalid")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation("invalid role")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateError(ctx, email)
		}
		return nil, apperr.Internal(err)
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*AccessToken, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidUsername
		}
		return nil, apperr.Internal(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, expiresAt, err := s.tokens.Issue(user.Username, user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &AccessToken{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      sanitizeUser(user),
	}, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Internal(err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return ErrInvalidPassword
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListAll(ctx context.Context, caller auth.Identity) ([]domain.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// duplicateError tells which unique column a rejected insert collided with.
func (s *userService) duplicateError(ctx context.Context, email string) error {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return apperr.Internal(err)
	}
	if taken {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func checkLength(field, value string, min, max int) error {
	if n := len([]rune(value)); n < min || n > max {
		return apperr.Validation(fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < 2 {
		return apperr.Validation("password must be at least 2 characters")
	}
	if len(password) > auth.MaxPasswordLength {
		return apperr.Validation(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordLength))
	}
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
