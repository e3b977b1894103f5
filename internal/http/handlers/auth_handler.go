package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации, входа и профиля пользователя.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	FirstName            string  `json:"first_name"`
	LastName             string  `json:"last_name"`
	Email                string  `json:"email"`
	Phone                string  `json:"phone"`
	WhatsApp             *string `json:"whatsapp"`
	Password             string  `json:"password"`
	PasswordConfirmation string  `json:"password_confirmation"`
	Role                 string  `json:"role"`
	City                 *string `json:"city"`
	Address              *string `json:"address"`
	ProfessionalTitle    string  `json:"professional_title"`
	Category             string  `json:"category"`
	Bio                  *string `json:"bio"`
}

// Register обрабатывает POST /v1/register. Поля проверяет сервис, чтобы вернуть все ошибки сразу.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Phone:                req.Phone,
		WhatsApp:             req.WhatsApp,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Role:                 req.Role,
		City:                 req.City,
		Address:              req.Address,
		ProfessionalTitle:    req.ProfessionalTitle,
		Category:             req.Category,
		Bio:                  req.Bio,
	}, common.SessionMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "регистрация прошла успешно, проверьте почту для подтверждения email", result)
}

// Login обрабатывает POST /v1/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, common.SessionMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "вход выполнен", result)
}

// VerifyEmail обрабатывает POST /v1/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	already, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	msg := "email подтверждён"
	if already {
		msg = "email уже подтверждён"
	}
	response.Message(c, msg, gin.H{"already_verified": already})
}

// ResendVerification обрабатывает POST /v1/resend-verification.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "письмо подтверждения отправлено повторно", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh обрабатывает POST /v1/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, common.SessionMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tokens)
}

// Logout обрабатывает POST /v1/logout. Повторный выход не ошибка.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "выход выполнен", nil)
}

// Me обрабатывает GET /v1/me.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, profile, err := h.auth.Me(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user, "freelance_profile": profile})
}

// UpdateMe обрабатывает PUT /v1/me.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		FirstName string  `json:"first_name"`
		LastName  string  `json:"last_name"`
		Phone     string  `json:"phone"`
		WhatsApp  *string `json:"whatsapp"`
		City      *string `json:"city"`
		Address   *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.auth.UpdateContact(c.Request.Context(), actor, service.ContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		WhatsApp:  req.WhatsApp,
		City:      req.City,
		Address:   req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "профиль обновлён", user)
}

// ChangePassword обрабатывает PUT /v1/me/password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		CurrentPassword      string `json:"current_password" binding:"required"`
		Password             string `json:"password" binding:"required"`
		PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), actor, req.CurrentPassword, req.Password, req.PasswordConfirmation); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "пароль изменён", nil)
}

// ListUsers обрабатывает GET /v1/admin/users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.UserFilter{Role: c.Query("role"), Status: c.Query("status")}
	result, err := h.auth.ListUsers(c.Request.Context(), actor, filter, common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// UpdateUserStatus обрабатывает PATCH /v1/admin/users/:id/status.
func (h *AuthHandler) UpdateUserStatus(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.auth.UpdateUserStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "статус пользователя обновлён", user)
}
