package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

// ProjectHandler проекты клиентов.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	BudgetMin       *int64  `json:"budget_min"`
	BudgetMax       *int64  `json:"budget_max"`
	City            *string `json:"city"`
	DesiredDeadline *string `json:"desired_deadline"`
}

func (r projectRequest) input() service.ProjectInput {
	return service.ProjectInput{
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		BudgetMin:       r.BudgetMin,
		BudgetMax:       r.BudgetMax,
		City:            r.City,
		DesiredDeadline: r.DesiredDeadline,
	}
}

// List GET /v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	filter := models.ProjectFilter{
		Category: c.Query("category"),
		City:     c.Query("city"),
		Search:   c.Query("search"),
	}
	result, err := h.projects.List(c.Request.Context(), filter, common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// Get GET /v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, project)
}

// ListMine GET /v1/projects/mine
func (h *ProjectHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.projects.ListMine(c.Request.Context(), actor, common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// Create POST /v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	project, err := h.projects.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "проект опубликован", project)
}

// Update PUT /v1/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
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

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	project, err := h.projects.Update(c.Request.Context(), actor, id, req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "проект обновлён", project)
}

// Delete DELETE /v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
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

	if err := h.projects.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "проект удалён", nil)
}

// Close POST /v1/projects/:id/close
func (h *ProjectHandler) Close(c *gin.Context) {
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

	project, err := h.projects.Close(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "проект закрыт", project)
}

// ChangeStatus PATCH /v1/projects/:id/status
func (h *ProjectHandler) ChangeStatus(c *gin.Context) {
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

	project, err := h.projects.ChangeStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "статус проекта обновлён", project)
}
