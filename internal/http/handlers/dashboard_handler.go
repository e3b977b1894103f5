package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

// DashboardHandler сводная панель пользователя.
type DashboardHandler struct {
	catalog *service.CatalogService
}

func NewDashboardHandler(catalog *service.CatalogService) *DashboardHandler {
	return &DashboardHandler{catalog: catalog}
}

// GetDashboard GET /v1/dashboard
// Фрилансер видит открытые проекты своей категории, просмотры профиля и сумму оплат,
// клиент свои последние проекты, администратор итоги платформы.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	dashboard, err := h.catalog.Dashboard(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dashboard)
}
