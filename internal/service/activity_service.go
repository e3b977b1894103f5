package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
)

const defaultActivitiesPerPage = 10

type ActivityStore interface {
	Create(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Activity, int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkUnread(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ActivityInput запись ленты для одного пользователя.
type ActivityInput struct {
	UserID      uuid.UUID
	Type        string
	Title       string
	Description string
	Icon        string
	Color       string
	ProjectID   *uuid.UUID
	Metadata    any
}

// ActivityService ведёт ленту активности.
type ActivityService struct {
	store ActivityStore
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

// Record добавляет запись в ленту пользователя.
func (s *ActivityService) Record(ctx context.Context, in ActivityInput) (*models.Activity, error) {
	a := &models.Activity{
		UserID:      in.UserID,
		Type:        in.Type,
		Title:       in.Title,
		Description: optional(in.Description),
		Icon:        optional(in.Icon),
		Color:       optional(in.Color),
		ProjectID:   in.ProjectID,
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("activity service: marshal metadata %w", err)
		}
		a.Metadata = raw
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ActivityService) List(ctx context.Context, actor policy.Actor, unreadOnly bool, page Page) (*Paged[models.Activity], error) {
	page = page.normalize(defaultActivitiesPerPage)
	items, total, err := s.store.List(ctx, actor.ID, unreadOnly, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

func (s *ActivityService) owned(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return apperror.NotFound("активность не найдена")
		}
		return err
	}
	return policy.Authorize(actor, policy.ActivityAccess, policy.Owned(a.UserID))
}

// MarkRead отмечает запись прочитанной.
func (s *ActivityService) MarkRead(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.store.MarkRead(ctx, id)
}

func (s *ActivityService) MarkUnread(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.store.MarkUnread(ctx, id)
}

func (s *ActivityService) MarkAllRead(ctx context.Context, actor policy.Actor) (int64, error) {
	return s.store.MarkAllRead(ctx, actor.ID)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
