package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

// CategoryRepository справочник категорий.
type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListActive возвращает активные категории в порядке отображения.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	items := []models.Category{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM categories WHERE is_active = TRUE ORDER BY display_order, name
	`); err != nil {
		return nil, fmt.Errorf("category repository: list %w", err)
	}
	return items, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return common.GetByID[models.Category](ctx, r.db, "categories", id, ErrCategoryNotFound)
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO categories (name, description, icon, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Description, c.Icon, c.DisplayOrder, c.IsActive).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "categories_name_key") {
			return ErrCategoryExists
		}
		return fmt.Errorf("category repository: create %w", err)
	}
	return nil
}
