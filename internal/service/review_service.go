package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
	"github.com/ignatzorin/freelance-marketplace/internal/validation"
)

const (
	defaultReviewsPerPage = 10
	maxCommentLength      = 2000
)

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, review *models.Review) error
	SetStatus(ctx context.Context, review *models.Review, status string) error
	RecomputeRating(ctx context.Context, freelanceID uuid.UUID) (*models.RatingSummary, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Review, int, error)
	ListPublishedByFreelance(ctx context.Context, freelanceID uuid.UUID, limit, offset int) ([]models.Review, int, error)
}

// FreelanceProfileGetter читает профиль по идентификатору.
type FreelanceProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FreelanceProfile, error)
}

// ProjectGetter читает проект по идентификатору.
type ProjectGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

type ReviewEvents interface {
	ReviewPublished(ctx context.Context, r *models.Review, freelanceUserID uuid.UUID)
}

// ReviewInput данные отзыва.
type ReviewInput struct {
	FreelanceID uuid.UUID
	ProjectID   *uuid.UUID
	Rating      int
	Comment     *string
}

// ReviewService управляет отзывами и рейтингом фрилансеров.
type ReviewService struct {
	reviews    ReviewStore
	freelances FreelanceProfileGetter
	projects   ProjectGetter
	events     ReviewEvents
}

func NewReviewService(reviews ReviewStore, freelances FreelanceProfileGetter, projects ProjectGetter, events ReviewEvents) *ReviewService {
	return &ReviewService{reviews: reviews, freelances: freelances, projects: projects, events: events}
}

// Create публикует отзыв клиента. Повтор для той же тройки
// (клиент, фрилансер, проект) даёт 409.
func (s *ReviewService) Create(ctx context.Context, actor policy.Actor, in ReviewInput) (*models.Review, error) {
	if err := policy.Authorize(actor, policy.ReviewCreate, policy.None); err != nil {
		return nil, err
	}
	if err := validateReview(in.Rating, in.Comment); err != nil {
		return nil, err
	}

	profile, err := s.freelances.GetByID(ctx, in.FreelanceID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	if profile.UserID == actor.ID {
		return nil, apperror.BadRequest("нельзя оценить самого себя")
	}
	if in.ProjectID != nil {
		if _, err := s.projects.GetByID(ctx, *in.ProjectID); err != nil {
			if errors.Is(err, repository.ErrProjectNotFound) {
				return nil, apperror.Field("project_id", "проект не найден")
			}
			return nil, err
		}
	}

	review := &models.Review{
		ClientID:    actor.ID,
		FreelanceID: in.FreelanceID,
		ProjectID:   in.ProjectID,
		Rating:      in.Rating,
		Comment:     trimmed(in.Comment),
		Status:      models.ReviewStatusPublished,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, mapReviewError(err)
	}

	s.events.ReviewPublished(ctx, review, profile.UserID)
	return review, nil
}

// Update меняет оценку и комментарий автора.
func (s *ReviewService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, rating int, comment *string) (*models.Review, error) {
	review, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ReviewUpdate, policy.Owned(review.ClientID)); err != nil {
		return nil, err
	}
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}

	review.Rating = rating
	review.Comment = trimmed(comment)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

// Delete удаляет отзыв автора или администратора.
func (s *ReviewService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	review, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ReviewDelete, policy.Owned(review.ClientID)); err != nil {
		return err
	}
	return mapReviewError(s.reviews.Delete(ctx, review))
}

// Report снимает отзыв с публикации до модерации.
func (s *ReviewService) Report(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Review, error) {
	review, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if review.Status == models.ReviewStatusReported {
		return review, nil
	}
	if err := s.reviews.SetStatus(ctx, review, models.ReviewStatusReported); err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

// ListMine возвращает отзывы, оставленные actor.
func (s *ReviewService) ListMine(ctx context.Context, actor policy.Actor, page Page) (*Paged[models.Review], error) {
	page = page.normalize(defaultReviewsPerPage)
	items, total, err := s.reviews.ListByClient(ctx, actor.ID, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

// ListForFreelance возвращает опубликованные отзывы о фрилансере.
func (s *ReviewService) ListForFreelance(ctx context.Context, freelanceID uuid.UUID, page Page) (*Paged[models.Review], error) {
	if _, err := s.freelances.GetByID(ctx, freelanceID); err != nil {
		return nil, mapReviewError(err)
	}
	page = page.normalize(defaultReviewsPerPage)
	items, total, err := s.reviews.ListPublishedByFreelance(ctx, freelanceID, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

// RecomputeRating пересчитывает агрегат рейтинга фрилансера.
func (s *ReviewService) RecomputeRating(ctx context.Context, actor policy.Actor, freelanceID uuid.UUID) (*models.RatingSummary, error) {
	if err := policy.Authorize(actor, policy.RatingRecompute, policy.None); err != nil {
		return nil, err
	}
	summary, err := s.reviews.RecomputeRating(ctx, freelanceID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	return summary, nil
}

func (s *ReviewService) get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

func validateReview(rating int, comment *string) error {
	fields := apperror.FieldErrors{}
	if rating < 1 || rating > 5 {
		fields.Add("rating", "оценка должна быть от 1 до 5")
	}
	if comment != nil {
		if err := validation.ValidateLength("комментарий", *comment, 0, maxCommentLength); err != nil {
			fields.Add("comment", err.Error())
		}
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func mapReviewError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrReviewNotFound):
		return apperror.NotFound("отзыв не найден")
	case errors.Is(err, repository.ErrFreelanceNotFound):
		return apperror.NotFound("фрилансер не найден")
	case errors.Is(err, repository.ErrDuplicateReview):
		return apperror.Conflict("вы уже оставили отзыв этому фрилансеру")
	}
	return err
}
