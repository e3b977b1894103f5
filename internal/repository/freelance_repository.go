package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

var (
	// ErrFreelanceNotFound возвращается, когда профиль фрилансера не найден.
	ErrFreelanceNotFound = errors.New("freelance profile not found")
	// ErrCompetenceNotFound возвращается, когда навык не найден.
	ErrCompetenceNotFound = errors.New("competence not found")
	// ErrPortfolioNotFound возвращается, когда работа портфолио не найдена.
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// featuredActiveSQL истинно, пока окно продвижения действует.
const featuredActiveSQL = `(p.is_featured AND (p.featured_until IS NULL OR p.featured_until > NOW()))`

const freelanceCardSelect = `
	SELECT p.*, u.first_name, u.last_name, u.city, u.avatar_path, ` + featuredActiveSQL + ` AS featured_active
	FROM freelance_profiles p
	JOIN users u ON u.id = p.user_id
`

// FreelanceRepository отвечает за профили фрилансеров, навыки и портфолио.
type FreelanceRepository struct {
	db *sqlx.DB
}

// NewFreelanceRepository создаёт экземпляр репозитория.
func NewFreelanceRepository(db *sqlx.DB) *FreelanceRepository {
	return &FreelanceRepository{db: db}
}

func insertFreelanceProfile(ctx context.Context, tx sqlx.QueryerContext, p *models.FreelanceProfile) error {
	if p.Availability == "" {
		p.Availability = models.AvailabilityAvailable
	}
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO freelance_profiles (user_id, professional_title, bio, category, subcategory, years_experience, rate_min, rate_max, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, p.UserID, p.ProfessionalTitle, p.Bio, p.Category, p.Subcategory, p.YearsExperience, p.RateMin, p.RateMax, p.Availability).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("freelance repository: create %w", err)
	}
	return nil
}

// GetByID возвращает профиль по идентификатору.
func (r *FreelanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FreelanceProfile, error) {
	return common.GetByID[models.FreelanceProfile](ctx, r.db, "freelance_profiles", id, ErrFreelanceNotFound)
}

// GetByUserID возвращает профиль пользователя.
func (r *FreelanceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreelanceProfile, error) {
	var profile models.FreelanceProfile
	if err := r.db.GetContext(ctx, &profile, `SELECT * FROM freelance_profiles WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFreelanceNotFound
		}
		return nil, fmt.Errorf("freelance repository: get by user %w", err)
	}
	return &profile, nil
}

// GetCard возвращает профиль вместе с публичными данными пользователя.
func (r *FreelanceRepository) GetCard(ctx context.Context, id uuid.UUID) (*models.FreelanceCard, error) {
	var card models.FreelanceCard
	if err := r.db.GetContext(ctx, &card, freelanceCardSelect+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFreelanceNotFound
		}
		return nil, fmt.Errorf("freelance repository: get card %w", err)
	}
	return &card, nil
}

// List возвращает страницу каталога: сначала действующие продвижения, затем рейтинг.
func (r *FreelanceRepository) List(ctx context.Context, filter models.FreelanceFilter, limit, offset int) ([]models.FreelanceCard, int, error) {
	var where common.Where
	where.AddRaw("u.status = 'actif'")
	if filter.Category != "" {
		where.Add("p.category = ?", filter.Category)
	}
	if filter.City != "" {
		where.Add("u.city ILIKE ?", filter.City)
	}
	if filter.Availability != "" {
		where.Add("p.availability = ?", filter.Availability)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where.Add("(p.professional_title ILIKE ? OR p.bio ILIKE ? OR u.first_name ILIKE ? OR u.last_name ILIKE ?)", "%"+s+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM freelance_profiles p JOIN users u ON u.id = p.user_id` + where.SQL()
	if err := r.db.GetContext(ctx, &total, countQuery, where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("freelance repository: count %w", err)
	}

	page, args := where.Page(limit, offset)
	cards := []models.FreelanceCard{}
	query := freelanceCardSelect + where.SQL() + `
		ORDER BY featured_active DESC, p.average_rating DESC, p.review_count DESC, p.created_at DESC` + page
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, 0, fmt.Errorf("freelance repository: list %w", err)
	}
	return cards, total, nil
}

// TopRated возвращает лучших по рейтингу фрилансеров с хотя бы одним отзывом.
func (r *FreelanceRepository) TopRated(ctx context.Context, limit int) ([]models.FreelanceCard, error) {
	cards := []models.FreelanceCard{}
	query := freelanceCardSelect + `
		WHERE u.status = 'actif' AND p.review_count > 0
		ORDER BY p.average_rating DESC, p.review_count DESC
		LIMIT $1`
	if err := r.db.SelectContext(ctx, &cards, query, limit); err != nil {
		return nil, fmt.Errorf("freelance repository: top rated %w", err)
	}
	return cards, nil
}

// IncrementViews увеличивает счётчик просмотров профиля.
func (r *FreelanceRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE freelance_profiles SET profile_views = profile_views + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("freelance repository: increment views %w", err)
	}
	return nil
}

// Update сохраняет редактируемые поля профиля.
func (r *FreelanceRepository) Update(ctx context.Context, p *models.FreelanceProfile) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE freelance_profiles
		SET professional_title = $2, bio = $3, category = $4, subcategory = $5, years_experience = $6,
		    rate_min = $7, rate_max = $8, availability = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, p.ID, p.ProfessionalTitle, p.Bio, p.Category, p.Subcategory, p.YearsExperience, p.RateMin, p.RateMax, p.Availability).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFreelanceNotFound
		}
		return fmt.Errorf("freelance repository: update %w", err)
	}
	return nil
}

// ActiveUserIDsByCategory возвращает пользователей-фрилансеров категории для рассылки.
func (r *FreelanceRepository) ActiveUserIDsByCategory(ctx context.Context, category string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, `
		SELECT p.user_id FROM freelance_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.category = $1 AND u.status = 'actif'
	`, category); err != nil {
		return nil, fmt.Errorf("freelance repository: user ids by category %w", err)
	}
	return ids, nil
}

// AddCompetence добавляет навык.
func (r *FreelanceRepository) AddCompetence(ctx context.Context, c *models.Competence) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO competences (freelance_id, name, level) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.FreelanceID, c.Name, c.Level).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("freelance repository: add competence %w", err)
	}
	return nil
}

// GetCompetence возвращает навык по идентификатору.
func (r *FreelanceRepository) GetCompetence(ctx context.Context, id uuid.UUID) (*models.Competence, error) {
	return common.GetByID[models.Competence](ctx, r.db, "competences", id, ErrCompetenceNotFound)
}

// DeleteCompetence удаляет навык.
func (r *FreelanceRepository) DeleteCompetence(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM competences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("freelance repository: delete competence %w", err)
	}
	return expectOne(res, ErrCompetenceNotFound)
}

// ListCompetences возвращает навыки профиля.
func (r *FreelanceRepository) ListCompetences(ctx context.Context, freelanceID uuid.UUID) ([]models.Competence, error) {
	items := []models.Competence{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM competences WHERE freelance_id = $1 ORDER BY created_at`, freelanceID); err != nil {
		return nil, fmt.Errorf("freelance repository: list competences %w", err)
	}
	return items, nil
}

// AddPortfolio добавляет работу в портфолио.
func (r *FreelanceRepository) AddPortfolio(ctx context.Context, p *models.Portfolio) error {
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO portfolios (freelance_id, title, description, image_path, external_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.FreelanceID, p.Title, p.Description, p.ImagePath, p.ExternalURL).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("freelance repository: add portfolio %w", err)
	}
	return nil
}

// GetPortfolio возвращает работу портфолио.
func (r *FreelanceRepository) GetPortfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error) {
	return common.GetByID[models.Portfolio](ctx, r.db, "portfolios", id, ErrPortfolioNotFound)
}

// DeletePortfolio удаляет работу портфолио.
func (r *FreelanceRepository) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("freelance repository: delete portfolio %w", err)
	}
	return expectOne(res, ErrPortfolioNotFound)
}

// ListPortfolios возвращает портфолио профиля.
func (r *FreelanceRepository) ListPortfolios(ctx context.Context, freelanceID uuid.UUID) ([]models.Portfolio, error) {
	items := []models.Portfolio{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM portfolios WHERE freelance_id = $1 ORDER BY created_at DESC`, freelanceID); err != nil {
		return nil, fmt.Errorf("freelance repository: list portfolios %w", err)
	}
	return items, nil
}
