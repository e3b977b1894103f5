package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
)

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil && p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockPaymentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Payment), args.Int(1), args.Error(2)
}

func (m *mockPaymentStore) MarkValidated(ctx context.Context, id uuid.UUID, window models.FeatureWindow) (*models.Payment, error) {
	args := m.Called(ctx, id, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) (*models.Payment, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreelanceProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FreelanceProfile), args.Error(1)
}

func (m *mockProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.FreelanceProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FreelanceProfile), args.Error(1)
}

type mockPaymentEvents struct {
	mock.Mock
}

func (m *mockPaymentEvents) PaymentValidated(ctx context.Context, p *models.Payment, window models.FeatureWindow) {
	m.Called(ctx, p, window)
}

func (m *mockPaymentEvents) PaymentFailed(ctx context.Context, p *models.Payment) {
	m.Called(ctx, p)
}

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) CreateBatch(ctx context.Context, items []models.Notification) error {
	return m.Called(ctx, items).Error(0)
}

func (m *mockNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockNotificationStore) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int, error) {
	args := m.Called(ctx, userID, unreadOnly, limit, offset)
	return args.Get(0).([]models.Notification), args.Int(1), args.Error(2)
}

func (m *mockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationStore) MarkUnread(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationStore) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) PushToUser(userID uuid.UUID, event string, data any) {
	m.Called(userID, event, data)
}

type mockActivityStore struct {
	mock.Mock
}

func (m *mockActivityStore) Create(ctx context.Context, a *models.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockActivityStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *mockActivityStore) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Activity, int, error) {
	args := m.Called(ctx, userID, unreadOnly, limit, offset)
	return args.Get(0).([]models.Activity), args.Int(1), args.Error(2)
}

func (m *mockActivityStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockActivityStore) MarkUnread(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockActivityStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateWithOutbox(ctx context.Context, user *models.User, profile *models.FreelanceProfile, msg *models.OutboxMessage) error {
	args := m.Called(ctx, user, profile, msg)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) ReplaceVerificationToken(ctx context.Context, userID uuid.UUID, token string, msg *models.OutboxMessage) error {
	return m.Called(ctx, userID, token, msg).Error(0)
}

func (m *mockUserStore) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) UpdateContact(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *mockUserStore) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	return m.Called(ctx, userID, status).Error(0)
}

func (m *mockUserStore) List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]models.User, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]models.User), args.Int(1), args.Error(2)
}

func (m *mockUserStore) CreateSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockUserStore) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockUserStore) DeleteSession(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

type mockProjectStore struct {
	mock.Mock
}

func (m *mockProjectStore) Create(ctx context.Context, p *models.Project) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = uuid.New()
		p.Status = models.ProjectStatusOpen
	}
	return args.Error(0)
}

func (m *mockProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectStore) Update(ctx context.Context, p *models.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProjectStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, closedAt *time.Time) (*models.Project, error) {
	args := m.Called(ctx, id, from, to, closedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProjectStore) List(ctx context.Context, filter models.ProjectFilter, limit, offset int) ([]models.Project, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]models.Project), args.Int(1), args.Error(2)
}

func (m *mockProjectStore) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, int, error) {
	args := m.Called(ctx, clientID, limit, offset)
	return args.Get(0).([]models.Project), args.Int(1), args.Error(2)
}

type mockProjectEvents struct {
	mock.Mock
}

func (m *mockProjectEvents) ProjectCreated(ctx context.Context, p *models.Project) {
	m.Called(ctx, p)
}

func (m *mockProjectEvents) ProjectStatusChanged(ctx context.Context, p *models.Project, oldStatus string, actorID uuid.UUID) {
	m.Called(ctx, p, oldStatus, actorID)
}

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewStore) Update(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewStore) Delete(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewStore) SetStatus(ctx context.Context, review *models.Review, status string) error {
	args := m.Called(ctx, review, status)
	if args.Error(0) == nil {
		review.Status = status
	}
	return args.Error(0)
}

func (m *mockReviewStore) RecomputeRating(ctx context.Context, freelanceID uuid.UUID) (*models.RatingSummary, error) {
	args := m.Called(ctx, freelanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingSummary), args.Error(1)
}

func (m *mockReviewStore) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Review, int, error) {
	args := m.Called(ctx, clientID, limit, offset)
	return args.Get(0).([]models.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewStore) ListPublishedByFreelance(ctx context.Context, freelanceID uuid.UUID, limit, offset int) ([]models.Review, int, error) {
	args := m.Called(ctx, freelanceID, limit, offset)
	return args.Get(0).([]models.Review), args.Int(1), args.Error(2)
}

type mockProjectGetter struct {
	mock.Mock
}

func (m *mockProjectGetter) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

type mockReviewEvents struct {
	mock.Mock
}

func (m *mockReviewEvents) ReviewPublished(ctx context.Context, r *models.Review, freelanceUserID uuid.UUID) {
	m.Called(ctx, r, freelanceUserID)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, in NotifyInput) ([]models.Notification, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

type mockActivityRecorder struct {
	mock.Mock
}

func (m *mockActivityRecorder) Record(ctx context.Context, in ActivityInput) (*models.Activity, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

type mockRecipients struct {
	mock.Mock
}

func (m *mockRecipients) ActiveUserIDsByCategory(ctx context.Context, category string) ([]uuid.UUID, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
