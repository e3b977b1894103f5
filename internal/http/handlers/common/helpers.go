package common

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/http/middleware"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

// CurrentActor извлекает пользователя, которого положил AuthMiddleware.
func CurrentActor(c *gin.Context) (policy.Actor, error) {
	rawID, ok := c.Get(middleware.ContextUserIDKey)
	if !ok {
		return policy.Actor{}, apperror.ErrUnauthorized
	}
	id, ok := rawID.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return policy.Actor{}, apperror.ErrUnauthorized
	}
	role, _ := c.Get(middleware.ContextRoleKey)
	roleStr, _ := role.(string)
	return policy.Actor{ID: id, Role: roleStr}, nil
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.BadRequest("параметр " + paramName + " должен быть валидным UUID")
	}
	return parsed, nil
}

// ParseIntQuery читает целый параметр запроса с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// QueryBool true для "1", "true", "yes".
func QueryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// GetPage читает page и per_page. Нули заменяются значениями по умолчанию в сервисе.
func GetPage(c *gin.Context) service.Page {
	return service.Page{
		Number:  ParseIntQuery(c, "page", 1),
		PerPage: ParseIntQuery(c, "per_page", 0),
	}
}

// SessionMeta сведения о клиенте для refresh сессии.
func SessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}
