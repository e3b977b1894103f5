package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

// PaymentHandler оплата продвижения профиля и webhook провайдера.
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Plans обрабатывает GET /v1/payments/plans.
func (h *PaymentHandler) Plans(c *gin.Context) {
	response.OK(c, h.payments.Plans())
}

// Initiate обрабатывает POST /v1/payments.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		Plan   string  `json:"plan" binding:"required"`
		Method string  `json:"method" binding:"required"`
		Phone  *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	payment, err := h.payments.Initiate(c.Request.Context(), actor, service.InitiateInput{
		Plan:   req.Plan,
		Method: req.Method,
		Phone:  req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	msg := "платёж создан, ожидается подтверждение"
	if payment.Status == models.PaymentStatusValidated {
		msg = "платёж подтверждён, профиль продвигается"
	}
	response.Created(c, msg, payment)
}

// List обрабатывает GET /v1/payments.
func (h *PaymentHandler) List(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.payments.List(c.Request.Context(), actor, common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// Get обрабатывает GET /v1/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
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

	payment, err := h.payments.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payment)
}

// AdminValidate обрабатывает POST /v1/admin/payments/:id/validate.
func (h *PaymentHandler) AdminValidate(c *gin.Context) {
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

	payment, err := h.payments.AdminValidate(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "платёж подтверждён", payment)
}

// AdminFail обрабатывает POST /v1/admin/payments/:id/fail.
func (h *PaymentHandler) AdminFail(c *gin.Context) {
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

	payment, err := h.payments.AdminFail(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "платёж отклонён", payment)
}

// Webhook обрабатывает POST /v1/payments/webhook. Подпись уже проверил middleware.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), service.WebhookInput{
		Reference: req.Reference,
		Status:    req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"reference":         result.Payment.Reference,
		"status":            result.Payment.Status,
		"already_processed": result.AlreadyProcessed,
	})
}
