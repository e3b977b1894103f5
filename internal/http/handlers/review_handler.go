package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create POST /v1/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		FreelanceID string  `json:"freelance_id" binding:"required,uuid"`
		ProjectID   *string `json:"project_id" binding:"omitempty,uuid"`
		Rating      int     `json:"rating"`
		Comment     *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	in := service.ReviewInput{
		FreelanceID: uuid.MustParse(req.FreelanceID),
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if req.ProjectID != nil {
		id := uuid.MustParse(*req.ProjectID)
		in.ProjectID = &id
	}

	review, err := h.reviews.Create(c.Request.Context(), actor, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "отзыв опубликован", review)
}

// Update PUT /v1/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
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
		Rating  int     `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), actor, id, req.Rating, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "отзыв обновлён", review)
}

// Delete DELETE /v1/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
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

	if err := h.reviews.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "отзыв удалён", nil)
}

// Report POST /v1/reviews/:id/report
func (h *ReviewHandler) Report(c *gin.Context) {
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

	review, err := h.reviews.Report(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "отзыв отправлен на модерацию", review)
}

// ListMine GET /v1/reviews/mine
func (h *ReviewHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.reviews.ListMine(c.Request.Context(), actor, common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// ListForFreelance GET /v1/freelances/:id/reviews
func (h *ReviewHandler) ListForFreelance(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.reviews.ListForFreelance(c.Request.Context(), id, common.GetPage(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// RecomputeRating POST /v1/admin/freelances/:id/recompute-rating
func (h *ReviewHandler) RecomputeRating(c *gin.Context) {
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

	summary, err := h.reviews.RecomputeRating(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
