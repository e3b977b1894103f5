package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeNotFound:     http.StatusNotFound,
		ErrCodeUnauthorized: http.StatusUnauthorized,
		ErrCodeForbidden:    http.StatusForbidden,
		ErrCodeBadRequest:   http.StatusBadRequest,
		ErrCodeValidation:   http.StatusUnprocessableEntity,
		ErrCodeConflict:     http.StatusConflict,
		ErrCodeInternal:     http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, code)
	}
}

func TestValidation_CarriesFields(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("email", "email уже зарегистрирован")
	fields.Add("email", "второе сообщение")

	err := Validation(fields)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Len(t, err.Fields["email"], 2)
	assert.True(t, IsValidation(err))
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	base := NotFound("платёж не найден")
	wrapped := fmt.Errorf("payment service: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsForbidden(wrapped))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "платёж не найден", appErr.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "внутренняя ошибка")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}
