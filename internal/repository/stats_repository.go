package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
)

// dashboardRecentLimit сколько последних проектов показывает панель.
const dashboardRecentLimit = 5

// StatsRepository агрегаты для публичной статистики и панели пользователя.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Global считает основные показатели одним запросом.
func (r *StatsRepository) Global(ctx context.Context) (*models.GlobalStats, error) {
	var stats models.GlobalStats
	if err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'freelance' AND status = 'actif') AS freelances,
			(SELECT COUNT(*) FROM users WHERE role = 'client' AND status = 'actif') AS clients,
			(SELECT COUNT(*) FROM projects WHERE status = 'open') AS open_projects,
			(SELECT COUNT(*) FROM reviews WHERE status = 'published') AS published_reviews,
			(SELECT COUNT(*) FROM freelance_profiles p
			  WHERE p.is_featured AND (p.featured_until IS NULL OR p.featured_until > NOW())) AS featured_freelances
	`); err != nil {
		return nil, fmt.Errorf("stats repository: global %w", err)
	}
	return &stats, nil
}

type categoryStatsRow struct {
	models.Category
	Freelances   int `db:"freelances_count"`
	OpenProjects int `db:"open_projects_count"`
}

// ByCategory считает активных фрилансеров и открытые проекты по каждой активной категории.
func (r *StatsRepository) ByCategory(ctx context.Context) ([]models.CategoryStats, error) {
	var rows []categoryStatsRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT c.*,
			(SELECT COUNT(*) FROM freelance_profiles p
			   JOIN users u ON u.id = p.user_id
			  WHERE p.category = c.name AND u.status = 'actif') AS freelances_count,
			(SELECT COUNT(*) FROM projects pr
			  WHERE pr.category = c.name AND pr.status = 'open') AS open_projects_count
		FROM categories c
		WHERE c.is_active
		ORDER BY c.display_order, c.name
	`); err != nil {
		return nil, fmt.Errorf("stats repository: by category %w", err)
	}

	stats := make([]models.CategoryStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, models.CategoryStats{
			Category:     row.Category,
			Freelances:   row.Freelances,
			OpenProjects: row.OpenProjects,
		})
	}
	return stats, nil
}

// Dashboard собирает панель для роли. Для фрилансера без профиля ErrFreelanceNotFound.
func (r *StatsRepository) Dashboard(ctx context.Context, role string, userID uuid.UUID) (*models.Dashboard, error) {
	d := &models.Dashboard{Role: role, RecentProjects: []models.Project{}}
	var err error
	switch role {
	case models.RoleFreelance:
		err = r.freelanceDashboard(ctx, userID, d)
	case models.RoleClient:
		err = r.clientDashboard(ctx, userID, d)
	default:
		err = r.adminDashboard(ctx, d)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *StatsRepository) freelanceDashboard(ctx context.Context, userID uuid.UUID, d *models.Dashboard) error {
	var row struct {
		Category     string `db:"category"`
		ProfileViews int    `db:"profile_views"`
		Revenue      int64  `db:"revenue"`
		Projects     int    `db:"projects"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT p.category, p.profile_views,
			(SELECT COALESCE(SUM(amount), 0) FROM payments
			  WHERE user_id = p.user_id AND status = 'validated') AS revenue,
			(SELECT COUNT(*) FROM projects
			  WHERE category = p.category AND status = 'open') AS projects
		FROM freelance_profiles p
		WHERE p.user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFreelanceNotFound
		}
		return fmt.Errorf("stats repository: freelance dashboard %w", err)
	}

	d.Stats = models.DashboardStats{
		Projects:     row.Projects,
		ProfileViews: &row.ProfileViews,
		Revenue:      &row.Revenue,
	}
	return r.recentProjects(ctx, d, `WHERE category = $1 AND status = 'open'`, row.Category)
}

func (r *StatsRepository) clientDashboard(ctx context.Context, userID uuid.UUID, d *models.Dashboard) error {
	if err := r.db.GetContext(ctx, &d.Stats.Projects,
		`SELECT COUNT(*) FROM projects WHERE client_id = $1`, userID); err != nil {
		return fmt.Errorf("stats repository: client dashboard %w", err)
	}
	return r.recentProjects(ctx, d, `WHERE client_id = $1`, userID)
}

func (r *StatsRepository) adminDashboard(ctx context.Context, d *models.Dashboard) error {
	var row struct {
		Projects   int   `db:"projects"`
		Freelances int   `db:"freelances"`
		Clients    int   `db:"clients"`
		Categories int   `db:"categories"`
		Revenue    int64 `db:"revenue"`
	}
	if err := r.db.GetContext(ctx, &row, `
		SELECT
			(SELECT COUNT(*) FROM projects) AS projects,
			(SELECT COUNT(*) FROM freelance_profiles) AS freelances,
			(SELECT COUNT(*) FROM users WHERE role = 'client') AS clients,
			(SELECT COUNT(*) FROM categories) AS categories,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'validated') AS revenue
	`); err != nil {
		return fmt.Errorf("stats repository: admin dashboard %w", err)
	}

	d.Stats = models.DashboardStats{
		Projects:   row.Projects,
		Freelances: &row.Freelances,
		Clients:    &row.Clients,
		Categories: &row.Categories,
		Revenue:    &row.Revenue,
	}
	return r.recentProjects(ctx, d, ``)
}

func (r *StatsRepository) recentProjects(ctx context.Context, d *models.Dashboard, where string, args ...any) error {
	query := fmt.Sprintf(`SELECT * FROM projects %s ORDER BY created_at DESC LIMIT %d`, where, dashboardRecentLimit)
	if err := r.db.SelectContext(ctx, &d.RecentProjects, query, args...); err != nil {
		return fmt.Errorf("stats repository: recent projects %w", err)
	}
	return nil
}
