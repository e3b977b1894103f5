package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AccessParser разбирает access токен.
type AccessParser interface {
	ParseAccess(token string) (policy.Actor, error)
}

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(tokens AccessParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized)
			return
		}
		authenticate(c, tokens, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	}
}

// QueryTokenAuth читает токен из параметра token. Браузерный websocket не умеет слать заголовки.
func QueryTokenAuth(tokens AccessParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, tokens, c.Query("token"))
	}
}

func authenticate(c *gin.Context, tokens AccessParser, raw string) {
	if raw == "" {
		response.Error(c, apperror.ErrUnauthorized)
		return
	}
	actor, err := tokens.ParseAccess(raw)
	if err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "токен недействителен или истёк"))
		return
	}

	c.Set(ContextUserIDKey, actor.ID)
	c.Set(ContextRoleKey, actor.Role)
	c.Next()
}
