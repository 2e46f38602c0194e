package service

import (
	"context"
	"errors"

	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

type ErrorCode string

const (
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeUnspecified    ErrorCode = "UNSPECIFIED"
	ErrorCodeInvalidBody    ErrorCode = "INVALID_BODY"
	ErrorCodeValidation     ErrorCode = "VALIDATION"
	ErrorCodeAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrorCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrorCodeInvalidRefresh ErrorCode = "INVALID_REFRESH"
	ErrorCodeBadToken       ErrorCode = "BAD_TOKEN"
	ErrorCodeUserInactive   ErrorCode = "USER_INACTIVE"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewServiceError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}

// asServiceError unwraps an error returned from a transaction body.
func asServiceError(ctx context.Context, err error, fallback string) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return unspecified(ctx, err, fallback)
}

// unspecified logs the underlying failure and hides it from the caller.
func unspecified(ctx context.Context, err error, message string) *Error {
	logger.FromContext(ctx).Error(message, zap.Error(err))
	return NewServiceError(ErrorCodeUnspecified, message)
}
