package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
)

const HeaderRequestID = "X-Request-Id"

const maxRequestIDLength = 64

// RequestID берёт X-Request-Id клиента или генерирует новый и возвращает его в ответе.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(response.ContextRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
