package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
)

const (
	categoryFreelancesLimit = 50

	categoriesCacheTTL = 10 * time.Minute
	statsCacheTTL      = time.Minute
	dashboardCacheTTL  = 30 * time.Second
)

type CategoryStore interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
}

type FreelanceLister interface {
	List(ctx context.Context, filter models.FreelanceFilter, limit, offset int) ([]models.FreelanceCard, int, error)
}

type StatsStore interface {
	Global(ctx context.Context) (*models.GlobalStats, error)
	ByCategory(ctx context.Context) ([]models.CategoryStats, error)
	Dashboard(ctx context.Context, role string, userID uuid.UUID) (*models.Dashboard, error)
}

// CategoryInput новая категория.
type CategoryInput struct {
	Name         string
	Description  *string
	Icon         *string
	DisplayOrder int
}

// CategoryWithFreelances категория и её фрилансеры.
type CategoryWithFreelances struct {
	models.Category
	Freelances []models.FreelanceCard `json:"freelances"`
}

// CatalogService категории и публичная статистика.
type CatalogService struct {
	categories CategoryStore
	freelances FreelanceLister
	stats      StatsStore
	cache      *CacheService
}

// NewCatalogService создаёт сервис. cache может быть nil.
func NewCatalogService(categories CategoryStore, freelances FreelanceLister, stats StatsStore, cache *CacheService) *CatalogService {
	return &CatalogService{categories: categories, freelances: freelances, stats: stats, cache: cache}
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return cached(ctx, s.cache, categoriesCacheKey, categoriesCacheTTL, func() ([]models.Category, error) {
		return s.categories.ListActive(ctx)
	})
}

// Category возвращает категорию с лучшими фрилансерами.
func (s *CatalogService) Category(ctx context.Context, id uuid.UUID) (*CategoryWithFreelances, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.NotFound("категория не найдена")
		}
		return nil, err
	}
	cards, _, err := s.freelances.List(ctx, models.FreelanceFilter{Category: c.Name}, categoryFreelancesLimit, 0)
	if err != nil {
		return nil, err
	}
	return &CategoryWithFreelances{Category: *c, Freelances: cards}, nil
}

// CreateCategory добавляет категорию (только администратор).
func (s *CatalogService) CreateCategory(ctx context.Context, actor policy.Actor, in CategoryInput) (*models.Category, error) {
	if err := policy.Authorize(actor, policy.CategoryCreate, policy.None); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.Field("name", "название обязательно")
	}

	c := &models.Category{
		Name:         name,
		Description:  trimmed(in.Description),
		Icon:         trimmed(in.Icon),
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrCategoryExists) {
			return nil, apperror.Field("name", "категория с таким названием уже существует")
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateByPrefix(ctx, catalogCachePrefix)
	}
	return c, nil
}

// GlobalStats публичные показатели платформы.
func (s *CatalogService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	return cached(ctx, s.cache, statsCacheKey, statsCacheTTL, func() (*models.GlobalStats, error) {
		return s.stats.Global(ctx)
	})
}

// CategoryStats фрилансеры и открытые проекты по категориям.
func (s *CatalogService) CategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	return cached(ctx, s.cache, categoryStatsCacheKey, statsCacheTTL, func() ([]models.CategoryStats, error) {
		return s.stats.ByCategory(ctx)
	})
}

// Dashboard панель текущего пользователя. Состав показателей зависит от роли.
func (s *CatalogService) Dashboard(ctx context.Context, actor policy.Actor) (*models.Dashboard, error) {
	return cached(ctx, s.cache, dashboardCacheKey(actor.ID), dashboardCacheTTL, func() (*models.Dashboard, error) {
		d, err := s.stats.Dashboard(ctx, actor.Role, actor.ID)
		if err != nil {
			if errors.Is(err, repository.ErrFreelanceNotFound) {
				return nil, apperror.NotFound("профиль фрилансера не найден")
			}
			return nil, err
		}
		if d.Stats.Revenue != nil {
			d.Stats.Currency = CurrencyFCFA
		}
		return d, nil
	})
}
