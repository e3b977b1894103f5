package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
	"github.com/ignatzorin/freelance-marketplace/internal/validation"
)

const (
	freelancesPerPage = 12
	defaultTopRated   = 8
	maxTopRated       = 50

	maxTitleLength       = 150
	maxBioLength         = 2000
	maxCompetenceLength  = 80
	maxPortfolioTitle    = 200
	maxPortfolioDesc     = 2000
	maxYearsOfExperience = 60
)

type FreelanceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FreelanceProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreelanceProfile, error)
	GetCard(ctx context.Context, id uuid.UUID) (*models.FreelanceCard, error)
	List(ctx context.Context, filter models.FreelanceFilter, limit, offset int) ([]models.FreelanceCard, int, error)
	TopRated(ctx context.Context, limit int) ([]models.FreelanceCard, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, p *models.FreelanceProfile) error
	AddCompetence(ctx context.Context, c *models.Competence) error
	GetCompetence(ctx context.Context, id uuid.UUID) (*models.Competence, error)
	DeleteCompetence(ctx context.Context, id uuid.UUID) error
	ListCompetences(ctx context.Context, freelanceID uuid.UUID) ([]models.Competence, error)
	AddPortfolio(ctx context.Context, p *models.Portfolio) error
	GetPortfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id uuid.UUID) error
	ListPortfolios(ctx context.Context, freelanceID uuid.UUID) ([]models.Portfolio, error)
}

// ImageStore сохраняет и удаляет изображения портфолио.
type ImageStore interface {
	Save(ctx context.Context, owner uuid.UUID, ext string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// ProfileInput редактируемые поля профиля фрилансера.
type ProfileInput struct {
	ProfessionalTitle string
	Bio               *string
	Category          string
	Subcategory       *string
	YearsExperience   int
	RateMin           *int64
	RateMax           *int64
	Availability      string
}

// PortfolioInput новая работа портфолио. Image может быть nil.
type PortfolioInput struct {
	Title       string
	Description *string
	ExternalURL *string
	Image       io.Reader
	ImageExt    string
}

// FreelanceService каталог фрилансеров и управление собственным профилем.
type FreelanceService struct {
	freelances FreelanceStore
	images     ImageStore
}

func NewFreelanceService(freelances FreelanceStore, images ImageStore) *FreelanceService {
	return &FreelanceService{freelances: freelances, images: images}
}

// List публичный каталог: 12 карточек на страницу.
func (s *FreelanceService) List(ctx context.Context, filter models.FreelanceFilter, page int) (*Paged[models.FreelanceCard], error) {
	filter.Category = normalizeCategory(filter.Category)
	p := Page{Number: page, PerPage: freelancesPerPage}.normalize(freelancesPerPage)
	items, total, err := s.freelances.List(ctx, filter, p.PerPage, p.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, p), nil
}

// TopRated лучшие по рейтингу.
func (s *FreelanceService) TopRated(ctx context.Context, limit int) ([]models.FreelanceCard, error) {
	if limit < 1 {
		limit = defaultTopRated
	}
	if limit > maxTopRated {
		limit = maxTopRated
	}
	return s.freelances.TopRated(ctx, limit)
}

// Details полная карточка; просмотр увеличивает счётчик.
func (s *FreelanceService) Details(ctx context.Context, id uuid.UUID) (*models.FreelanceDetails, error) {
	card, err := s.freelances.GetCard(ctx, id)
	if err != nil {
		return nil, mapFreelanceError(err)
	}
	if err := s.freelances.IncrementViews(ctx, id); err != nil {
		logger.Log.WithError(err).WithField("freelance_id", id).Warn("profile views not incremented")
	} else {
		card.ProfileViews++
	}

	competences, err := s.freelances.ListCompetences(ctx, id)
	if err != nil {
		return nil, err
	}
	portfolios, err := s.freelances.ListPortfolios(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.FreelanceDetails{FreelanceCard: *card, Competences: competences, Portfolios: portfolios}, nil
}

// UpdateProfile меняет профиль текущего фрилансера.
func (s *FreelanceService) UpdateProfile(ctx context.Context, actor policy.Actor, in ProfileInput) (*models.FreelanceProfile, error) {
	profile, err := s.own(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateProfile(in); err != nil {
		return nil, err
	}

	profile.ProfessionalTitle = strings.TrimSpace(in.ProfessionalTitle)
	profile.Bio = trimmed(in.Bio)
	profile.Category = strings.TrimSpace(in.Category)
	profile.Subcategory = trimmed(in.Subcategory)
	profile.YearsExperience = in.YearsExperience
	profile.RateMin = in.RateMin
	profile.RateMax = in.RateMax
	if in.Availability != "" {
		profile.Availability = in.Availability
	}
	if err := s.freelances.Update(ctx, profile); err != nil {
		return nil, mapFreelanceError(err)
	}
	return profile, nil
}

// AddCompetence добавляет навык в профиль текущего фрилансера.
func (s *FreelanceService) AddCompetence(ctx context.Context, actor policy.Actor, name, level string) (*models.Competence, error) {
	profile, err := s.own(ctx, actor)
	if err != nil {
		return nil, err
	}

	fields := apperror.FieldErrors{}
	if err := validation.ValidateLength("навык", strings.TrimSpace(name), 1, maxCompetenceLength); err != nil {
		fields.Add("name", err.Error())
	}
	if _, ok := models.ValidLevels[level]; !ok {
		fields.Add("level", "уровень должен быть beginner, intermediate, advanced или expert")
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	c := &models.Competence{FreelanceID: profile.ID, Name: strings.TrimSpace(name), Level: level}
	if err := s.freelances.AddCompetence(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCompetence удаляет свой навык.
func (s *FreelanceService) DeleteCompetence(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	c, err := s.freelances.GetCompetence(ctx, id)
	if err != nil {
		return mapFreelanceError(err)
	}
	if err := s.authorizeProfile(ctx, actor, c.FreelanceID); err != nil {
		return err
	}
	return mapFreelanceError(s.freelances.DeleteCompetence(ctx, id))
}

// AddPortfolio добавляет работу; изображение сохраняется до записи в БД.
func (s *FreelanceService) AddPortfolio(ctx context.Context, actor policy.Actor, in PortfolioInput) (*models.Portfolio, error) {
	profile, err := s.own(ctx, actor)
	if err != nil {
		return nil, err
	}

	fields := apperror.FieldErrors{}
	if err := validation.ValidateLength("название работы", strings.TrimSpace(in.Title), 1, maxPortfolioTitle); err != nil {
		fields.Add("title", err.Error())
	}
	if in.Description != nil {
		if err := validation.ValidateLength("описание работы", *in.Description, 0, maxPortfolioDesc); err != nil {
			fields.Add("description", err.Error())
		}
	}
	if err := validation.ValidateExternalLink(in.ExternalURL); err != nil {
		fields.Add("external_url", err.Error())
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	item := &models.Portfolio{
		FreelanceID: profile.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: trimmed(in.Description),
		ExternalURL: trimmed(in.ExternalURL),
	}
	if in.Image != nil {
		path, err := s.images.Save(ctx, profile.ID, in.ImageExt, in.Image)
		if err != nil {
			return nil, err
		}
		item.ImagePath = &path
	}

	if err := s.freelances.AddPortfolio(ctx, item); err != nil {
		if item.ImagePath != nil {
			s.removeImage(ctx, *item.ImagePath)
		}
		return nil, err
	}
	return item, nil
}

// DeletePortfolio удаляет свою работу вместе с изображением.
func (s *FreelanceService) DeletePortfolio(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	item, err := s.freelances.GetPortfolio(ctx, id)
	if err != nil {
		return mapFreelanceError(err)
	}
	if err := s.authorizeProfile(ctx, actor, item.FreelanceID); err != nil {
		return err
	}
	if err := s.freelances.DeletePortfolio(ctx, id); err != nil {
		return mapFreelanceError(err)
	}
	if item.ImagePath != nil {
		s.removeImage(ctx, *item.ImagePath)
	}
	return nil
}

// own профиль текущего пользователя с проверкой права на изменение.
func (s *FreelanceService) own(ctx context.Context, actor policy.Actor) (*models.FreelanceProfile, error) {
	profile, err := s.freelances.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrFreelanceNotFound) {
			if policy.Allowed(actor, policy.FreelanceUpdate, policy.Owned(actor.ID)) {
				return nil, apperror.NotFound("профиль фрилансера не найден")
			}
			return nil, policy.Authorize(actor, policy.FreelanceUpdate, policy.None)
		}
		return nil, err
	}
	if err := policy.Authorize(actor, policy.FreelanceUpdate, policy.Owned(profile.UserID)); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *FreelanceService) authorizeProfile(ctx context.Context, actor policy.Actor, freelanceID uuid.UUID) error {
	profile, err := s.freelances.GetByID(ctx, freelanceID)
	if err != nil {
		return mapFreelanceError(err)
	}
	return policy.Authorize(actor, policy.FreelanceUpdate, policy.Owned(profile.UserID))
}

func (s *FreelanceService) removeImage(ctx context.Context, path string) {
	if err := s.images.Delete(ctx, path); err != nil {
		logger.Log.WithError(err).WithField("path", path).Warn("portfolio image not removed")
	}
}

func validateProfile(in ProfileInput) error {
	fields := apperror.FieldErrors{}
	if err := validation.ValidateLength("должность", strings.TrimSpace(in.ProfessionalTitle), 1, maxTitleLength); err != nil {
		fields.Add("professional_title", err.Error())
	}
	if err := validation.ValidateNonEmpty("категория", in.Category); err != nil {
		fields.Add("category", err.Error())
	}
	if in.Bio != nil {
		if err := validation.ValidateLength("биография", *in.Bio, 0, maxBioLength); err != nil {
			fields.Add("bio", err.Error())
		}
	}
	if in.YearsExperience < 0 || in.YearsExperience > maxYearsOfExperience {
		fields.Add("years_experience", "некорректный опыт работы")
	}
	if err := validation.ValidateRange("ставка", in.RateMin, in.RateMax); err != nil {
		fields.Add("rate_max", err.Error())
	}
	if in.Availability != "" {
		if _, ok := models.ValidAvailabilities[in.Availability]; !ok {
			fields.Add("availability", "недопустимое значение доступности")
		}
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func mapFreelanceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrFreelanceNotFound):
		return apperror.NotFound("фрилансер не найден")
	case errors.Is(err, repository.ErrCompetenceNotFound):
		return apperror.NotFound("навык не найден")
	case errors.Is(err, repository.ErrPortfolioNotFound):
		return apperror.NotFound("работа не найдена")
	}
	return err
}
