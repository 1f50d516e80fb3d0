package service

import "task-manager/internal/apperr"

var (
	ErrUsernameTaken   = apperr.Conflict("username already exists")
	ErrEmailTaken      = apperr.Conflict("email already exists")
	ErrInvalidUsername = apperr.Unauthorized("invalid username")
	ErrInvalidPassword = apperr.Unauthorized("invalid password")
	ErrInactiveUser    = apperr.Unauthorized("inactive user")
	ErrForbidden       = apperr.Forbidden("forbidden")
	ErrUserNotFound    = apperr.NotFound("user not found")
	ErrTaskNotFound    = apperr.NotFound("task not found")
	ErrExportDisabled  = apperr.New(apperr.KindUnavailable, "export storage not configured")
)
