package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

// ActivityHandler лента активности пользователя.
type ActivityHandler struct {
	activities *service.ActivityService
}

func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// List GET /v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.activities.List(c.Request.Context(), actor, common.QueryBool(c, "unread"), common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// MarkRead POST /v1/activities/:id/mark-read
func (h *ActivityHandler) MarkRead(c *gin.Context) {
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

	if err := h.activities.MarkRead(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "активность отмечена как прочитанная", nil)
}

// MarkAllRead POST /v1/activities/mark-all-read
func (h *ActivityHandler) MarkAllRead(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.activities.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "вся активность прочитана", gin.H{"updated": updated})
}
