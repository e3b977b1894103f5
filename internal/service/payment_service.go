package service

import (
	"context"
	"errors"
	"fmt"
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

// Статусы, которые присылает платёжный провайдер.
const (
	WebhookStatusSuccess = "success"
	WebhookStatusFailed  = "failed"
)

const maxReferenceAttempts = 5

const defaultPaymentsPerPage = 20

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, int, error)
	MarkValidated(ctx context.Context, id uuid.UUID, window models.FeatureWindow) (*models.Payment, error)
	MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) (*models.Payment, error)
}

// FreelanceProfileLookup находит профиль фрилансера пользователя.
type FreelanceProfileLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreelanceProfile, error)
}

// PaymentEvents реакции на смену статуса платежа.
type PaymentEvents interface {
	PaymentValidated(ctx context.Context, p *models.Payment, window models.FeatureWindow)
	PaymentFailed(ctx context.Context, p *models.Payment)
}

// InitiateInput запрос на оплату продвижения.
type InitiateInput struct {
	Plan   string
	Method string
	Phone  *string
}

// WebhookInput тело уведомления провайдера.
type WebhookInput struct {
	Reference string
	Status    string
}

// WebhookResult итог обработки webhook.
type WebhookResult struct {
	Payment          *models.Payment
	AlreadyProcessed bool
}

// PaymentService ведёт платёж от создания до активации продвижения.
type PaymentService struct {
	payments     PaymentStore
	freelances   FreelanceProfileLookup
	events       PaymentEvents
	autoValidate bool
	now          func() time.Time
}

// NewPaymentService создаёт сервис. autoValidate подтверждает платёж сразу
// после создания и допустим только вне production.
func NewPaymentService(payments PaymentStore, freelances FreelanceProfileLookup, events PaymentEvents, autoValidate bool) *PaymentService {
	return &PaymentService{
		payments:     payments,
		freelances:   freelances,
		events:       events,
		autoValidate: autoValidate,
		now:          time.Now,
	}
}

// Plans возвращает доступные тарифы.
func (s *PaymentService) Plans() []Plan {
	return Plans()
}

// Initiate создаёт платёж в статусе pending с уникальным референсом.
func (s *PaymentService) Initiate(ctx context.Context, actor policy.Actor, in InitiateInput) (*models.Payment, error) {
	if err := policy.Authorize(actor, policy.PaymentCreate, policy.None); err != nil {
		return nil, err
	}

	fields := apperror.FieldErrors{}
	plan, ok := LookupPlan(in.Plan)
	if !ok {
		fields.Add("plan", "неизвестный тариф")
	}
	if _, ok := models.ValidPaymentMethods[in.Method]; !ok {
		fields.Add("method", "неподдерживаемый способ оплаты")
	}
	phone := trimmed(in.Phone)
	if models.IsMobileMoney(in.Method) && phone == nil {
		fields.Add("phone", "номер телефона обязателен для мобильных денег")
	} else if phone != nil {
		if err := validation.ValidatePhone(*phone); err != nil {
			fields.Add("phone", err.Error())
		}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	profile, err := s.freelances.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrFreelanceNotFound) {
			return nil, apperror.NotFound("профиль фрилансера не найден")
		}
		return nil, err
	}

	payment := &models.Payment{
		FreelanceID: profile.ID,
		UserID:      actor.ID,
		Plan:        plan.Code,
		Amount:      plan.Amount,
		Currency:    plan.Currency,
		Method:      in.Method,
		Phone:       phone,
		Status:      models.PaymentStatusPending,
	}
	if err := s.createWithReference(ctx, payment); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"payment_id": payment.ID,
		"reference":  payment.Reference,
		"plan":       payment.Plan,
	}).Info("payment initiated")

	if s.autoValidate {
		return s.Validate(ctx, payment.ID)
	}
	return payment, nil
}

func (s *PaymentService) createWithReference(ctx context.Context, p *models.Payment) error {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := generateReference()
		if err != nil {
			return err
		}
		p.Reference = ref
		err = s.payments.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return err
		}
	}
	return fmt.Errorf("payment service: no unique reference after %d attempts", maxReferenceAttempts)
}

// Validate подтверждает платёж и активирует окно продвижения
// [now, now + длительность тарифа), заменяя предыдущее.
func (s *PaymentService) Validate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsPending() {
		return nil, errNotPending()
	}

	from := s.now().UTC()
	window := models.FeatureWindow{From: from, Until: from.Add(PlanDuration(current.Plan))}

	validated, err := s.payments.MarkValidated(ctx, id, window)
	if err != nil {
		return nil, mapPaymentError(err)
	}

	s.events.PaymentValidated(ctx, validated, window)
	return validated, nil
}

// Fail отклоняет платёж. Профиль не меняется.
func (s *PaymentService) Fail(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	failed, err := s.payments.MarkFailed(ctx, id, s.now().UTC())
	if err != nil {
		return nil, mapPaymentError(err)
	}
	s.events.PaymentFailed(ctx, failed)
	return failed, nil
}

// AdminValidate ручное подтверждение администратором.
func (s *PaymentService) AdminValidate(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Payment, error) {
	if err := policy.Authorize(actor, policy.PaymentModerate, policy.None); err != nil {
		return nil, err
	}
	return s.Validate(ctx, id)
}

// AdminFail ручное отклонение администратором.
func (s *PaymentService) AdminFail(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Payment, error) {
	if err := policy.Authorize(actor, policy.PaymentModerate, policy.None); err != nil {
		return nil, err
	}
	return s.Fail(ctx, id)
}

// HandleWebhook применяет результат оплаты от провайдера. Повторная доставка
// по уже обработанному платежу ничего не меняет.
func (s *PaymentService) HandleWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	if in.Status != WebhookStatusSuccess && in.Status != WebhookStatusFailed {
		return nil, apperror.Field("status", "ожидается success или failed")
	}
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, apperror.Field("reference", "референс обязателен")
	}

	payment, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, mapPaymentError(err)
	}
	if !payment.IsPending() {
		return &WebhookResult{Payment: payment, AlreadyProcessed: true}, nil
	}

	var updated *models.Payment
	if in.Status == WebhookStatusSuccess {
		updated, err = s.Validate(ctx, payment.ID)
	} else {
		updated, err = s.Fail(ctx, payment.ID)
	}
	if err != nil {
		if apperror.IsConflict(err) {
			latest, getErr := s.get(ctx, payment.ID)
			if getErr != nil {
				return nil, getErr
			}
			return &WebhookResult{Payment: latest, AlreadyProcessed: true}, nil
		}
		return nil, err
	}
	return &WebhookResult{Payment: updated}, nil
}

// Get возвращает платёж владельцу или администратору.
func (s *PaymentService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Payment, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.PaymentRead, policy.Owned(p.UserID)); err != nil {
		return nil, err
	}
	return p, nil
}

// List возвращает платежи пользователя.
func (s *PaymentService) List(ctx context.Context, actor policy.Actor, page Page) (*Paged[models.Payment], error) {
	page = page.normalize(defaultPaymentsPerPage)
	items, total, err := s.payments.ListByUser(ctx, actor.ID, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

func (s *PaymentService) get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, mapPaymentError(err)
	}
	return p, nil
}

func errNotPending() error {
	return apperror.Conflict("платёж уже обработан")
}

func mapPaymentError(err error) error {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		return apperror.NotFound("платёж не найден")
	case errors.Is(err, repository.ErrPaymentNotPending):
		return errNotPending()
	case errors.Is(err, repository.ErrFreelanceNotFound):
		return apperror.NotFound("профиль фрилансера не найден")
	}
	return err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
