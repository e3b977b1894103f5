package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/security"
)

const maxWebhookBody = 64 * 1024

// SignatureVerifier проверяет подпись webhook.
type SignatureVerifier interface {
	Verify(timestamp, signature string, body []byte) error
}

// WebhookSignature пропускает запрос дальше только с верной подписью и свежим timestamp.
// Тело читается целиком и возвращается в запрос для обработчика.
func WebhookSignature(verifier SignatureVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(c, apperror.BadRequest("тело запроса слишком большое"))
				return
			}
			response.Error(c, apperror.BadRequest("не удалось прочитать тело запроса"))
			return
		}

		err = verifier.Verify(
			c.GetHeader(security.HeaderWebhookTimestamp),
			c.GetHeader(security.HeaderWebhookSignature),
			body,
		)
		if err != nil {
			response.Error(c, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "неверная подпись webhook"))
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
