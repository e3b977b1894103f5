package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// FieldErrors сообщения об ошибках по полям запроса.
type FieldErrors map[string][]string

// Add добавляет сообщение к полю.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Fields     FieldErrors
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation собирает ошибку 422 с сообщениями по полям.
func Validation(fields FieldErrors) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    "данные запроса не прошли проверку",
		HTTPStatus: http.StatusUnprocessableEntity,
		Fields:     fields,
	}
}

// Field сокращение для ошибки валидации одного поля.
func Field(field, message string) *AppError {
	return Validation(FieldErrors{field: {message}})
}

func NotFound(message string) *AppError   { return New(ErrCodeNotFound, message) }
func Forbidden(message string) *AppError  { return New(ErrCodeForbidden, message) }
func Conflict(message string) *AppError   { return New(ErrCodeConflict, message) }
func BadRequest(message string) *AppError { return New(ErrCodeBadRequest, message) }

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// As извлекает AppError из цепочки.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool     { return is(err, ErrCodeNotFound) }
func IsForbidden(err error) bool    { return is(err, ErrCodeForbidden) }
func IsValidation(err error) bool   { return is(err, ErrCodeValidation) }
func IsConflict(err error) bool     { return is(err, ErrCodeConflict) }
func IsUnauthorized(err error) bool { return is(err, ErrCodeUnauthorized) }
func IsBadRequest(err error) bool   { return is(err, ErrCodeBadRequest) }

var (
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверный email или пароль")
)
