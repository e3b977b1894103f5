package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
)

// Типы уведомлений.
const (
	NotificationTypeProject = "project"
	NotificationTypeReview  = "review"
	NotificationTypePayment = "payment"
)

// Типы записей ленты.
const (
	ActivityProjectCreated       = "project_created"
	ActivityProjectStatusChanged = "project_status_changed"
	ActivityReviewReceived       = "review_received"
	ActivityFeatureActivated     = "feature_activated"
	ActivityPaymentFailed        = "payment_failed"
)

var projectStatusLabels = map[string]string{
	models.ProjectStatusOpen:       "открыт",
	models.ProjectStatusInProgress: "в работе",
	models.ProjectStatusCompleted:  "завершён",
	models.ProjectStatusCancelled:  "отменён",
}

// Notifier рассылает уведомления.
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) ([]models.Notification, error)
}

// ActivityRecorder пишет ленту активности.
type ActivityRecorder interface {
	Record(ctx context.Context, in ActivityInput) (*models.Activity, error)
}

// RecipientFinder подбирает получателей рассылки о новом проекте.
type RecipientFinder interface {
	ActiveUserIDsByCategory(ctx context.Context, category string) ([]uuid.UUID, error)
}

// Events реагирует на зафиксированные изменения. Ошибки только логируются:
// исходная операция к этому моменту уже выполнена.
type Events struct {
	notifier   Notifier
	activities ActivityRecorder
	recipients RecipientFinder
	log        *logrus.Entry
}

// NewEvents создаёт обработчик доменных событий.
func NewEvents(notifier Notifier, activities ActivityRecorder, recipients RecipientFinder) *Events {
	return &Events{
		notifier:   notifier,
		activities: activities,
		recipients: recipients,
		log:        logger.Log.WithField("component", "events"),
	}
}

// ProjectCreated уведомляет фрилансеров категории и пишет ленту автора.
func (e *Events) ProjectCreated(ctx context.Context, p *models.Project) {
	ctx = context.WithoutCancel(ctx)
	log := e.log.WithFields(logrus.Fields{"event": "project_created", "project_id": p.ID})

	recipients, err := e.recipients.ActiveUserIDsByCategory(ctx, p.Category)
	if err != nil {
		log.WithError(err).Error("recipients lookup failed")
	} else if _, err := e.notifier.Notify(ctx, NotifyInput{
		Recipients: recipients,
		Exclude:    p.ClientID,
		Title:      "Новый проект в вашей категории",
		Message:    fmt.Sprintf("Опубликован проект «%s»", p.Title),
		Type:       NotificationTypeProject,
		Data:       projectData(p.ID),
	}); err != nil {
		log.WithError(err).Error("notify freelances failed")
	}

	e.record(ctx, log, ActivityInput{
		UserID:      p.ClientID,
		Type:        ActivityProjectCreated,
		Title:       "Проект опубликован",
		Description: p.Title,
		Icon:        "briefcase",
		Color:       "blue",
		ProjectID:   &p.ID,
	})
}

// ProjectStatusChanged уведомляет владельца проекта, если статус сменил не он.
func (e *Events) ProjectStatusChanged(ctx context.Context, p *models.Project, oldStatus string, actorID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	log := e.log.WithFields(logrus.Fields{"event": "project_status_changed", "project_id": p.ID})

	title := fmt.Sprintf("Проект «%s» теперь %s", p.Title, projectStatusLabels[p.Status])
	if _, err := e.notifier.Notify(ctx, NotifyInput{
		Recipients: []uuid.UUID{p.ClientID},
		Exclude:    actorID,
		Title:      title,
		Message:    fmt.Sprintf("Статус изменён: %s → %s", projectStatusLabels[oldStatus], projectStatusLabels[p.Status]),
		Type:       NotificationTypeProject,
		Data:       projectData(p.ID),
	}); err != nil {
		log.WithError(err).Error("notify owner failed")
	}

	e.record(ctx, log, ActivityInput{
		UserID:    p.ClientID,
		Type:      ActivityProjectStatusChanged,
		Title:     title,
		Icon:      "refresh",
		Color:     "orange",
		ProjectID: &p.ID,
		Metadata:  map[string]string{"from": oldStatus, "to": p.Status},
	})
}

// ReviewPublished уведомляет фрилансера о новом отзыве.
func (e *Events) ReviewPublished(ctx context.Context, r *models.Review, freelanceUserID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	log := e.log.WithFields(logrus.Fields{"event": "review_published", "review_id": r.ID})

	if _, err := e.notifier.Notify(ctx, NotifyInput{
		Recipients: []uuid.UUID{freelanceUserID},
		Title:      "Новый отзыв",
		Message:    fmt.Sprintf("Вы получили оценку %d/5", r.Rating),
		Type:       NotificationTypeReview,
		Data:       map[string]any{"review_id": r.ID, "rating": r.Rating},
	}); err != nil {
		log.WithError(err).Error("notify freelance failed")
	}

	e.record(ctx, log, ActivityInput{
		UserID:    freelanceUserID,
		Type:      ActivityReviewReceived,
		Title:     "Получен новый отзыв",
		Icon:      "star",
		Color:     "yellow",
		ProjectID: r.ProjectID,
		Metadata:  map[string]any{"review_id": r.ID, "rating": r.Rating},
	})
}

// PaymentValidated сообщает фрилансеру об активации продвижения.
func (e *Events) PaymentValidated(ctx context.Context, p *models.Payment, window models.FeatureWindow) {
	ctx = context.WithoutCancel(ctx)
	log := e.log.WithFields(logrus.Fields{"event": "payment_validated", "payment_id": p.ID})

	until := window.Until.Format("02.01.2006")
	if _, err := e.notifier.Notify(ctx, NotifyInput{
		Recipients: []uuid.UUID{p.UserID},
		Title:      "Продвижение активировано",
		Message:    fmt.Sprintf("Платёж %s подтверждён, профиль в топе до %s", p.Reference, until),
		Type:       NotificationTypePayment,
		Data:       paymentData(p),
	}); err != nil {
		log.WithError(err).Error("notify freelance failed")
	}

	e.record(ctx, log, ActivityInput{
		UserID:      p.UserID,
		Type:        ActivityFeatureActivated,
		Title:       "Профиль продвигается",
		Description: "до " + until,
		Icon:        "rocket",
		Color:       "green",
		Metadata:    paymentData(p),
	})
}

// PaymentFailed сообщает фрилансеру об отклонённом платеже.
func (e *Events) PaymentFailed(ctx context.Context, p *models.Payment) {
	ctx = context.WithoutCancel(ctx)
	log := e.log.WithFields(logrus.Fields{"event": "payment_failed", "payment_id": p.ID})

	if _, err := e.notifier.Notify(ctx, NotifyInput{
		Recipients: []uuid.UUID{p.UserID},
		Title:      "Платёж отклонён",
		Message:    fmt.Sprintf("Платёж %s не прошёл", p.Reference),
		Type:       NotificationTypePayment,
		Data:       paymentData(p),
	}); err != nil {
		log.WithError(err).Error("notify freelance failed")
	}

	e.record(ctx, log, ActivityInput{
		UserID:   p.UserID,
		Type:     ActivityPaymentFailed,
		Title:    "Платёж отклонён",
		Icon:     "alert",
		Color:    "red",
		Metadata: paymentData(p),
	})
}

func (e *Events) record(ctx context.Context, log *logrus.Entry, in ActivityInput) {
	if _, err := e.activities.Record(ctx, in); err != nil {
		log.WithError(err).Error("record activity failed")
	}
}

func projectData(id uuid.UUID) map[string]any {
	return map[string]any{"project_id": id, "url": "/projects/" + id.String()}
}

func paymentData(p *models.Payment) map[string]any {
	return map[string]any{"payment_id": p.ID, "reference": p.Reference, "plan": p.Plan}
}
