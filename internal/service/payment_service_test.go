package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type paymentFixture struct {
	store    *mockPaymentStore
	profiles *mockProfiles
	events   *mockPaymentEvents
	svc      *PaymentService
}

func newPaymentFixture(autoValidate bool) *paymentFixture {
	f := &paymentFixture{
		store:    new(mockPaymentStore),
		profiles: new(mockProfiles),
		events:   new(mockPaymentEvents),
	}
	f.svc = NewPaymentService(f.store, f.profiles, f.events, autoValidate)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func pendingPayment(plan string) *models.Payment {
	return &models.Payment{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Plan:      plan,
		Reference: "BJ-ABCDE12345",
		Status:    models.PaymentStatusPending,
	}
}

func freelanceActor() policy.Actor {
	return policy.Actor{ID: uuid.New(), Role: models.RoleFreelance}
}

func TestPaymentService_InitiateCreatesPendingWithReference(t *testing.T) {
	f := newPaymentFixture(false)
	actor := freelanceActor()
	profile := &models.FreelanceProfile{ID: uuid.New(), UserID: actor.ID}
	phone := " 97 00 00 00 "

	f.profiles.On("GetByUserID", mock.Anything, actor.ID).Return(profile, nil)
	f.store.On("Create", mock.Anything, mock.AnythingOfType("*models.Payment")).Return(nil)

	p, err := f.svc.Initiate(context.Background(), actor, InitiateInput{
		Plan:   PlanFeatured15d,
		Method: models.PaymentMethodMTNMoney,
		Phone:  &phone,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, int64(4000), p.Amount)
	assert.Equal(t, CurrencyFCFA, p.Currency)
	assert.Equal(t, profile.ID, p.FreelanceID)
	assert.Equal(t, "97 00 00 00", *p.Phone)
	assert.Regexp(t, regexp.MustCompile(`^BJ-[A-Z0-9]{10}$`), p.Reference)
	f.events.AssertNotCalled(t, "PaymentValidated", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_InitiateValidation(t *testing.T) {
	f := newPaymentFixture(false)

	_, err := f.svc.Initiate(context.Background(), freelanceActor(), InitiateInput{
		Plan:   "featured_90d",
		Method: models.PaymentMethodAirtelMoney,
	})
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "plan")
	assert.Contains(t, appErr.Fields, "phone")
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_InitiateBankTransferNeedsNoPhone(t *testing.T) {
	f := newPaymentFixture(false)
	actor := freelanceActor()
	f.profiles.On("GetByUserID", mock.Anything, actor.ID).Return(&models.FreelanceProfile{ID: uuid.New()}, nil)
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil)

	p, err := f.svc.Initiate(context.Background(), actor, InitiateInput{Plan: PlanFeatured7d, Method: models.PaymentMethodBankTransfer})
	require.NoError(t, err)
	assert.Nil(t, p.Phone)
}

func TestPaymentService_InitiateRejectsClient(t *testing.T) {
	f := newPaymentFixture(false)
	client := policy.Actor{ID: uuid.New(), Role: models.RoleClient}

	_, err := f.svc.Initiate(context.Background(), client, InitiateInput{Plan: PlanFeatured7d, Method: models.PaymentMethodOther})
	assert.True(t, apperror.IsForbidden(err))
}

func TestPaymentService_InitiateRetriesDuplicateReference(t *testing.T) {
	f := newPaymentFixture(false)
	actor := freelanceActor()
	f.profiles.On("GetByUserID", mock.Anything, actor.ID).Return(&models.FreelanceProfile{ID: uuid.New()}, nil)
	f.store.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateReference).Once()
	f.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.Initiate(context.Background(), actor, InitiateInput{Plan: PlanFeatured7d, Method: models.PaymentMethodOther})
	require.NoError(t, err)
	f.store.AssertNumberOfCalls(t, "Create", 2)
}

func TestPaymentService_InitiateAutoValidates(t *testing.T) {
	f := newPaymentFixture(true)
	actor := freelanceActor()
	f.profiles.On("GetByUserID", mock.Anything, actor.ID).Return(&models.FreelanceProfile{ID: uuid.New()}, nil)

	f.store.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.store.On("GetByID", mock.Anything, mock.Anything).Return(pendingPayment(PlanFeatured30d), nil)

	validated := &models.Payment{Status: models.PaymentStatusValidated}
	f.store.On("MarkValidated", mock.Anything, mock.Anything, mock.Anything).Return(validated, nil)
	f.events.On("PaymentValidated", mock.Anything, validated, mock.Anything).Return()

	p, err := f.svc.Initiate(context.Background(), actor, InitiateInput{Plan: PlanFeatured30d, Method: models.PaymentMethodOther})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusValidated, p.Status)
	f.events.AssertExpectations(t)
}

func TestPaymentService_ValidateWindowPerPlan(t *testing.T) {
	tests := []struct {
		plan string
		days int
	}{
		{PlanFeatured7d, 7},
		{PlanFeatured15d, 15},
		{PlanFeatured30d, 30},
		{"legacy_plan", 30},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			f := newPaymentFixture(false)
			p := pendingPayment(tt.plan)
			want := models.FeatureWindow{From: fixedNow, Until: fixedNow.AddDate(0, 0, tt.days)}
			validated := *p
			validated.Status = models.PaymentStatusValidated

			f.store.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			f.store.On("MarkValidated", mock.Anything, p.ID, want).Return(&validated, nil)
			f.events.On("PaymentValidated", mock.Anything, &validated, want).Return()

			got, err := f.svc.Validate(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, models.PaymentStatusValidated, got.Status)
			f.store.AssertExpectations(t)
			f.events.AssertExpectations(t)
		})
	}
}

func TestPaymentService_ValidateNotPending(t *testing.T) {
	f := newPaymentFixture(false)
	p := pendingPayment(PlanFeatured7d)
	p.Status = models.PaymentStatusFailed
	f.store.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := f.svc.Validate(context.Background(), p.ID)
	assert.True(t, apperror.IsConflict(err))
	f.store.AssertNotCalled(t, "MarkValidated", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ValidateUnknown(t *testing.T) {
	f := newPaymentFixture(false)
	id := uuid.New()
	f.store.On("GetByID", mock.Anything, id).Return(nil, repository.ErrPaymentNotFound)

	_, err := f.svc.Validate(context.Background(), id)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPaymentService_AdminOnlyModeration(t *testing.T) {
	f := newPaymentFixture(false)

	_, err := f.svc.AdminValidate(context.Background(), freelanceActor(), uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.AdminFail(context.Background(), freelanceActor(), uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}

func TestPaymentService_WebhookSuccess(t *testing.T) {
	f := newPaymentFixture(false)
	p := pendingPayment(PlanFeatured7d)
	validated := *p
	validated.Status = models.PaymentStatusValidated

	f.store.On("GetByReference", mock.Anything, p.Reference).Return(p, nil)
	f.store.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	f.store.On("MarkValidated", mock.Anything, p.ID, mock.Anything).Return(&validated, nil)
	f.events.On("PaymentValidated", mock.Anything, &validated, mock.Anything).Return()

	res, err := f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: " " + p.Reference + " ", Status: WebhookStatusSuccess})
	require.NoError(t, err)
	assert.False(t, res.AlreadyProcessed)
	assert.Equal(t, models.PaymentStatusValidated, res.Payment.Status)
}

func TestPaymentService_WebhookFailed(t *testing.T) {
	f := newPaymentFixture(false)
	p := pendingPayment(PlanFeatured7d)
	failed := *p
	failed.Status = models.PaymentStatusFailed

	f.store.On("GetByReference", mock.Anything, p.Reference).Return(p, nil)
	f.store.On("MarkFailed", mock.Anything, p.ID, fixedNow).Return(&failed, nil)
	f.events.On("PaymentFailed", mock.Anything, &failed).Return()

	res, err := f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: p.Reference, Status: WebhookStatusFailed})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, res.Payment.Status)
	f.events.AssertExpectations(t)
}

func TestPaymentService_WebhookReplayIsNoop(t *testing.T) {
	f := newPaymentFixture(false)
	p := pendingPayment(PlanFeatured7d)
	p.Status = models.PaymentStatusValidated
	f.store.On("GetByReference", mock.Anything, p.Reference).Return(p, nil)

	res, err := f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: p.Reference, Status: WebhookStatusSuccess})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	f.store.AssertNotCalled(t, "MarkValidated", mock.Anything, mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PaymentValidated", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_WebhookConcurrentValidation(t *testing.T) {
	f := newPaymentFixture(false)
	p := pendingPayment(PlanFeatured7d)
	done := *p
	done.Status = models.PaymentStatusValidated

	f.store.On("GetByReference", mock.Anything, p.Reference).Return(p, nil)
	f.store.On("GetByID", mock.Anything, p.ID).Return(p, nil).Once()
	f.store.On("MarkValidated", mock.Anything, p.ID, mock.Anything).Return(nil, repository.ErrPaymentNotPending)
	f.store.On("GetByID", mock.Anything, p.ID).Return(&done, nil).Once()

	res, err := f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: p.Reference, Status: WebhookStatusSuccess})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, models.PaymentStatusValidated, res.Payment.Status)
	f.events.AssertNotCalled(t, "PaymentValidated", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_WebhookInputErrors(t *testing.T) {
	f := newPaymentFixture(false)

	_, err := f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: "BJ-X", Status: "paid"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: "  ", Status: WebhookStatusSuccess})
	assert.True(t, apperror.IsValidation(err))

	f.store.On("GetByReference", mock.Anything, "BJ-UNKNOWN00").Return(nil, repository.ErrPaymentNotFound)
	_, err = f.svc.HandleWebhook(context.Background(), WebhookInput{Reference: "BJ-UNKNOWN00", Status: WebhookStatusSuccess})
	assert.True(t, apperror.IsNotFound(err))
}

func TestPaymentService_GetChecksExistenceBeforeOwnership(t *testing.T) {
	f := newPaymentFixture(false)
	p := pendingPayment(PlanFeatured7d)
	missing := uuid.New()
	f.store.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	f.store.On("GetByID", mock.Anything, missing).Return(nil, repository.ErrPaymentNotFound)

	stranger := freelanceActor()
	_, err := f.svc.Get(context.Background(), stranger, missing)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Get(context.Background(), stranger, p.ID)
	assert.True(t, apperror.IsForbidden(err))

	owner := policy.Actor{ID: p.UserID, Role: models.RoleFreelance}
	got, err := f.svc.Get(context.Background(), owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	admin := policy.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	_, err = f.svc.Get(context.Background(), admin, p.ID)
	assert.NoError(t, err)
}

func TestPlans(t *testing.T) {
	all := Plans()
	require.Len(t, all, 3)
	all[0].Amount = 1
	assert.Equal(t, int64(2500), Plans()[0].Amount)

	assert.Equal(t, 7*24*time.Hour, PlanDuration(PlanFeatured7d))
	assert.Equal(t, 30*24*time.Hour, PlanDuration("unknown"))

	_, ok := LookupPlan("featured_1d")
	assert.False(t, ok)
}

func TestGenerateReference(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		ref, err := generateReference()
		require.NoError(t, err)
		assert.Regexp(t, `^BJ-[A-Z0-9]{10}$`, ref)
		seen[ref] = struct{}{}
	}
	assert.Len(t, seen, 50)
}
