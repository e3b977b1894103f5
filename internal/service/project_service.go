package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
	"github.com/ignatzorin/freelance-marketplace/internal/validation"
)

const (
	defaultProjectsPerPage = 10

	minProjectTitleLength       = 3
	maxProjectTitleLength       = 200
	minProjectDescriptionLength = 10
	maxProjectDescriptionLength = 5000
)

type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, closedAt *time.Time) (*models.Project, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.ProjectFilter, limit, offset int) ([]models.Project, int, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, int, error)
}

type ProjectEvents interface {
	ProjectCreated(ctx context.Context, p *models.Project)
	ProjectStatusChanged(ctx context.Context, p *models.Project, oldStatus string, actorID uuid.UUID)
}

// ProjectInput редактируемые поля проекта.
type ProjectInput struct {
	Title           string
	Description     string
	Category        string
	BudgetMin       *int64
	BudgetMax       *int64
	City            *string
	DesiredDeadline *string
}

// ProjectService публикация и жизненный цикл проектов клиентов.
type ProjectService struct {
	projects ProjectStore
	events   ProjectEvents
	now      func() time.Time
}

func NewProjectService(projects ProjectStore, events ProjectEvents) *ProjectService {
	return &ProjectService{projects: projects, events: events, now: time.Now}
}

// Create публикует проект клиента.
func (s *ProjectService) Create(ctx context.Context, actor policy.Actor, in ProjectInput) (*models.Project, error) {
	if err := policy.Authorize(actor, policy.ProjectCreate, policy.None); err != nil {
		return nil, err
	}
	if err := validateProject(in); err != nil {
		return nil, err
	}

	p := &models.Project{ClientID: actor.ID}
	applyProjectInput(p, in)
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	s.events.ProjectCreated(ctx, p)
	return p, nil
}

// Get возвращает проект и увеличивает счётчик просмотров.
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.projects.IncrementViews(ctx, id); err != nil {
		logger.Log.WithError(err).WithField("project_id", id).Warn("project views not incremented")
	} else {
		p.Views++
	}
	return p, nil
}

// Update меняет поля проекта владельца или администратора.
func (s *ProjectService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, in ProjectInput) (*models.Project, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ProjectUpdate, policy.Owned(p.ClientID)); err != nil {
		return nil, err
	}
	if models.IsProjectFinal(p.Status) {
		return nil, apperror.BadRequest("завершённый проект нельзя изменить")
	}
	if err := validateProject(in); err != nil {
		return nil, err
	}

	applyProjectInput(p, in)
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, mapProjectError(err)
	}
	return p, nil
}

// Delete удаляет проект.
func (s *ProjectService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	p, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ProjectDelete, policy.Owned(p.ClientID)); err != nil {
		return err
	}
	return mapProjectError(s.projects.Delete(ctx, id))
}

// Close переводит проект в completed.
func (s *ProjectService) Close(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Project, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ProjectUpdate, policy.Owned(p.ClientID)); err != nil {
		return nil, err
	}
	if models.IsProjectFinal(p.Status) {
		return nil, apperror.BadRequest("проект уже закрыт")
	}
	return s.transition(ctx, actor, p, models.ProjectStatusCompleted)
}

// ChangeStatus переводит проект в новый статус. Разрешены только переходы вперёд.
func (s *ProjectService) ChangeStatus(ctx context.Context, actor policy.Actor, id uuid.UUID, status string) (*models.Project, error) {
	if _, ok := models.ValidProjectStatuses[status]; !ok {
		return nil, apperror.Field("status", "недопустимый статус")
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ProjectUpdate, policy.Owned(p.ClientID)); err != nil {
		return nil, err
	}
	if !models.CanTransitionProject(p.Status, status) {
		return nil, apperror.Field("status", "переход из "+p.Status+" в "+status+" невозможен")
	}
	return s.transition(ctx, actor, p, status)
}

func (s *ProjectService) transition(ctx context.Context, actor policy.Actor, p *models.Project, to string) (*models.Project, error) {
	var closedAt *time.Time
	if models.IsProjectFinal(to) {
		now := s.now().UTC()
		closedAt = &now
	}

	oldStatus := p.Status
	updated, err := s.projects.TransitionStatus(ctx, p.ID, oldStatus, to, closedAt)
	if err != nil {
		return nil, mapProjectError(err)
	}

	s.events.ProjectStatusChanged(ctx, updated, oldStatus, actor.ID)
	return updated, nil
}

// List возвращает открытые проекты.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter, page Page) (*Paged[models.Project], error) {
	filter.Category = normalizeCategory(filter.Category)
	page = page.normalize(defaultProjectsPerPage)
	items, total, err := s.projects.List(ctx, filter, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

// ListMine возвращает проекты клиента во всех статусах.
func (s *ProjectService) ListMine(ctx context.Context, actor policy.Actor, page Page) (*Paged[models.Project], error) {
	page = page.normalize(defaultProjectsPerPage)
	items, total, err := s.projects.ListByClient(ctx, actor.ID, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

func (s *ProjectService) get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, mapProjectError(err)
	}
	return p, nil
}

func applyProjectInput(p *models.Project, in ProjectInput) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	p.BudgetMin = in.BudgetMin
	p.BudgetMax = in.BudgetMax
	p.City = trimmed(in.City)
	p.DesiredDeadline = trimmed(in.DesiredDeadline)
}

func validateProject(in ProjectInput) error {
	fields := apperror.FieldErrors{}
	if err := validation.ValidateLength("заголовок", strings.TrimSpace(in.Title), minProjectTitleLength, maxProjectTitleLength); err != nil {
		fields.Add("title", err.Error())
	}
	if err := validation.ValidateLength("описание", strings.TrimSpace(in.Description), minProjectDescriptionLength, maxProjectDescriptionLength); err != nil {
		fields.Add("description", err.Error())
	}
	if err := validation.ValidateNonEmpty("категория", in.Category); err != nil {
		fields.Add("category", err.Error())
	}
	if err := validation.ValidateRange("бюджет", in.BudgetMin, in.BudgetMax); err != nil {
		fields.Add("budget_max", err.Error())
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func mapProjectError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrProjectNotFound):
		return apperror.NotFound("проект не найден")
	case errors.Is(err, repository.ErrProjectStatusChanged):
		return apperror.Conflict("статус проекта уже изменён")
	}
	return err
}

// normalizeCategory сбрасывает фильтр «все категории».
func normalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	switch strings.ToLower(c) {
	case "tous", "all":
		return ""
	}
	return c
}
