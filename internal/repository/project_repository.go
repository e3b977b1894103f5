package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

var (
	// ErrProjectNotFound возвращается, когда проект не найден.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectStatusChanged возвращается, если статус изменился между чтением и записью.
	ErrProjectStatusChanged = errors.New("project status changed concurrently")
)

// ProjectRepository отвечает за проекты клиентов.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository создаёт экземпляр репозитория.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create сохраняет проект в статусе open.
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	p.Status = models.ProjectStatusOpen
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO projects (client_id, title, description, category, budget_min, budget_max, city, desired_deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, p.ClientID, p.Title, p.Description, p.Category, p.BudgetMin, p.BudgetMax, p.City, p.DesiredDeadline, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("project repository: create %w", err)
	}
	return nil
}

// GetByID возвращает проект.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, r.db, "projects", id, ErrProjectNotFound)
}

// Update сохраняет редактируемые поля.
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE projects
		SET title = $2, description = $3, category = $4, budget_min = $5, budget_max = $6,
		    city = $7, desired_deadline = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, p.ID, p.Title, p.Description, p.Category, p.BudgetMin, p.BudgetMax, p.City, p.DesiredDeadline).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("project repository: update %w", err)
	}
	return nil
}

// Delete удаляет проект.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("project repository: delete %w", err)
	}
	return expectOne(res, ErrProjectNotFound)
}

// TransitionStatus меняет статус, только если текущий равен from.
func (r *ProjectRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, closedAt *time.Time) (*models.Project, error) {
	var p models.Project
	if err := r.db.GetContext(ctx, &p, `
		UPDATE projects SET status = $3, closed_at = COALESCE($4, closed_at), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING *
	`, id, from, to, closedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectStatusChanged
		}
		return nil, fmt.Errorf("project repository: transition %w", err)
	}
	return &p, nil
}

// IncrementViews увеличивает счётчик просмотров.
func (r *ProjectRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE projects SET views = views + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("project repository: increment views %w", err)
	}
	return nil
}

// List возвращает открытые проекты по фильтру.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter, limit, offset int) ([]models.Project, int, error) {
	var where common.Where
	where.AddRaw("status = 'open'")
	if filter.Category != "" {
		where.Add("category = ?", filter.Category)
	}
	if filter.City != "" {
		where.Add("city ILIKE ?", filter.City)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where.Add("(title ILIKE ? OR description ILIKE ?)", "%"+s+"%")
	}
	return r.page(ctx, where, limit, offset)
}

// ListByClient возвращает все проекты клиента.
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, int, error) {
	var where common.Where
	where.Add("client_id = ?", clientID)
	return r.page(ctx, where, limit, offset)
}

func (r *ProjectRepository) page(ctx context.Context, where common.Where, limit, offset int) ([]models.Project, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("project repository: count %w", err)
	}

	page, args := where.Page(limit, offset)
	items := []models.Project{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM projects`+where.SQL()+` ORDER BY created_at DESC`+page, args...); err != nil {
		return nil, 0, fmt.Errorf("project repository: list %w", err)
	}
	return items, total, nil
}
