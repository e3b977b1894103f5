package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/validation"
)

// ContextRequestIDKey ключ идентификатора запроса в gin.Context.
const ContextRequestIDKey = "requestID"

const internalMessage = "внутренняя ошибка сервера"

// Envelope единый формат ответа API.
type Envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Data    any                  `json:"data,omitempty"`
	Errors  apperror.FieldErrors `json:"errors,omitempty"`
	Meta    *Meta                `json:"meta,omitempty"`
}

// Meta параметры страницы списка.
type Meta struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// NewMeta считает номер последней страницы; пустой список имеет одну страницу.
func NewMeta(total, perPage, page int) *Meta {
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return &Meta{Total: total, PerPage: perPage, CurrentPage: page, LastPage: last}
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Message успешный ответ с текстом и необязательными данными.
func Message(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func Paginated(c *gin.Context, data any, total, perPage, page int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: NewMeta(total, perPage, page)})
}

// Error рендерит ошибку. AppError отдаётся со своим статусом, всё остальное
// превращается в 500 с общим сообщением и пишется в лог с идентификатором запроса.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok && appErr.HTTPStatus != http.StatusInternalServerError {
		logger.WithRequest(RequestID(c)).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"code":   appErr.Code,
		}).WithError(err).Log(clientErrorLevel(err), "request rejected")

		c.AbortWithStatusJSON(appErr.HTTPStatus, Envelope{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}

	logger.WithRequest(RequestID(c)).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).WithError(err).Error("request failed")
	Internal(c)
}

// clientErrorLevel отказ в доступе пишется как предупреждение, прочие ошибки клиента в debug.
func clientErrorLevel(err error) logrus.Level {
	switch {
	case apperror.IsUnauthorized(err), apperror.IsForbidden(err):
		return logrus.WarnLevel
	case apperror.IsNotFound(err), apperror.IsValidation(err), apperror.IsBadRequest(err):
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Internal общий ответ 500 без подробностей.
func Internal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{Success: false, Message: internalMessage})
}

// BindError отвечает 422 на ошибку привязки тела или параметров запроса.
func BindError(c *gin.Context, err error) {
	Error(c, apperror.Validation(validation.BindingErrors(err)))
}

// RequestID идентификатор текущего запроса, если он есть.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}
