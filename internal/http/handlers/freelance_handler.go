package handlers

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers/common"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
	"github.com/ignatzorin/freelance-marketplace/internal/storage"
)

const (
	sniffBytes      = 261
	defaultTopRated = 6
	maxTopRated     = 50
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// FreelanceHandler публичный каталог фрилансеров и управление собственным профилем.
type FreelanceHandler struct {
	freelances     *service.FreelanceService
	maxUploadBytes int64
}

func NewFreelanceHandler(freelances *service.FreelanceService, maxUploadBytes int64) *FreelanceHandler {
	return &FreelanceHandler{freelances: freelances, maxUploadBytes: maxUploadBytes}
}

// List GET /v1/freelances
func (h *FreelanceHandler) List(c *gin.Context) {
	filter := models.FreelanceFilter{
		Category:     c.Query("category"),
		City:         c.Query("city"),
		Availability: c.Query("availability"),
		Search:       c.Query("search"),
	}
	result, err := h.freelances.List(c.Request.Context(), filter, common.ParseIntQuery(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.PerPage, result.Page)
}

// TopRated GET /v1/freelances/top-rated
func (h *FreelanceHandler) TopRated(c *gin.Context) {
	limit := common.ParseIntQuery(c, "limit", defaultTopRated)
	if limit < 1 || limit > maxTopRated {
		limit = defaultTopRated
	}
	cards, err := h.freelances.TopRated(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cards)
}

// Details GET /v1/freelances/:id
func (h *FreelanceHandler) Details(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	details, err := h.freelances.Details(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, details)
}

// UpdateProfile PUT /v1/freelance/profile
func (h *FreelanceHandler) UpdateProfile(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		ProfessionalTitle string  `json:"professional_title"`
		Bio               *string `json:"bio"`
		Category          string  `json:"category"`
		Subcategory       *string `json:"subcategory"`
		YearsExperience   int     `json:"years_experience" binding:"min=0,max=70"`
		RateMin           *int64  `json:"rate_min"`
		RateMax           *int64  `json:"rate_max"`
		Availability      string  `json:"availability"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	profile, err := h.freelances.UpdateProfile(c.Request.Context(), actor, service.ProfileInput{
		ProfessionalTitle: req.ProfessionalTitle,
		Bio:               req.Bio,
		Category:          req.Category,
		Subcategory:       req.Subcategory,
		YearsExperience:   req.YearsExperience,
		RateMin:           req.RateMin,
		RateMax:           req.RateMax,
		Availability:      req.Availability,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "профиль обновлён", profile)
}

// AddCompetence POST /v1/freelance/competences
func (h *FreelanceHandler) AddCompetence(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		Name  string `json:"name" binding:"required"`
		Level string `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	competence, err := h.freelances.AddCompetence(c.Request.Context(), actor, req.Name, req.Level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "навык добавлен", competence)
}

// DeleteCompetence DELETE /v1/freelance/competences/:id
func (h *FreelanceHandler) DeleteCompetence(c *gin.Context) {
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

	if err := h.freelances.DeleteCompetence(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "навык удалён", nil)
}

// AddPortfolio POST /v1/freelance/portfolios (multipart/form-data).
func (h *FreelanceHandler) AddPortfolio(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	in := service.PortfolioInput{
		Title:       c.PostForm("title"),
		Description: optionalForm(c, "description"),
		ExternalURL: optionalForm(c, "external_url"),
	}

	if header, err := c.FormFile("image"); err == nil {
		if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
			response.Error(c, apperror.Field("image", "файл превышает допустимый размер"))
			return
		}
		src, err := header.Open()
		if err != nil {
			response.Error(c, apperror.Field("image", "не удалось прочитать файл"))
			return
		}
		defer src.Close()

		reader, ext, err := sniffImage(src)
		if err != nil {
			response.Error(c, err)
			return
		}
		in.Image = reader
		in.ImageExt = ext
	}

	portfolio, err := h.freelances.AddPortfolio(c.Request.Context(), actor, in)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			err = apperror.Field("image", "файл превышает допустимый размер")
		}
		response.Error(c, err)
		return
	}
	response.Created(c, "работа добавлена в портфолио", portfolio)
}

// DeletePortfolio DELETE /v1/freelance/portfolios/:id
func (h *FreelanceHandler) DeletePortfolio(c *gin.Context) {
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

	if err := h.freelances.DeletePortfolio(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "работа удалена из портфолио", nil)
}

// sniffImage определяет тип по содержимому, а не по имени файла, и возвращает
// reader, который снова отдаёт прочитанный заголовок.
func sniffImage(src io.Reader) (io.Reader, string, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", apperror.Field("image", "не удалось прочитать файл")
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedImageTypes[kind.MIME.Value] {
		return nil, "", apperror.Field("image", "разрешены только изображения jpeg, png, gif, webp")
	}
	return io.MultiReader(bytes.NewReader(head), src), kind.Extension, nil
}

func optionalForm(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return nil
	}
	return &v
}
