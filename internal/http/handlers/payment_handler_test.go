package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-marketplace/internal/http/middleware"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
	"github.com/ignatzorin/freelance-marketplace/internal/security"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
)

const testWebhookSecret = "test-webhook-secret"

// memoryPayments хранит платежи в памяти с той же защитой перехода статуса, что и БД.
type memoryPayments struct {
	byID map[uuid.UUID]*models.Payment
}

func newMemoryPayments(items ...*models.Payment) *memoryPayments {
	m := &memoryPayments{byID: map[uuid.UUID]*models.Payment{}}
	for _, p := range items {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memoryPayments) Create(_ context.Context, p *models.Payment) error {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	return nil
}

func (m *memoryPayments) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPayments) GetByReference(_ context.Context, reference string) (*models.Payment, error) {
	for _, p := range m.byID {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (m *memoryPayments) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]models.Payment, int, error) {
	out := []models.Payment{}
	for _, p := range m.byID {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *memoryPayments) MarkValidated(_ context.Context, id uuid.UUID, window models.FeatureWindow) (*models.Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if p.Status != models.PaymentStatusPending {
		return nil, repository.ErrPaymentNotPending
	}
	p.Status = models.PaymentStatusValidated
	p.ValidatedAt = &window.From
	cp := *p
	return &cp, nil
}

func (m *memoryPayments) MarkFailed(_ context.Context, id uuid.UUID, at time.Time) (*models.Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if p.Status != models.PaymentStatusPending {
		return nil, repository.ErrPaymentNotPending
	}
	p.Status = models.PaymentStatusFailed
	p.FailedAt = &at
	cp := *p
	return &cp, nil
}

type noProfiles struct{}

func (noProfiles) GetByUserID(context.Context, uuid.UUID) (*models.FreelanceProfile, error) {
	return nil, repository.ErrFreelanceNotFound
}

type countingEvents struct {
	validated int
	failed    int
}

func (e *countingEvents) PaymentValidated(context.Context, *models.Payment, models.FeatureWindow) {
	e.validated++
}

func (e *countingEvents) PaymentFailed(context.Context, *models.Payment) {
	e.failed++
}

func webhookRouter(store *memoryPayments, events *countingEvents) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPaymentHandler(service.NewPaymentService(store, noProfiles{}, events, false))
	verifier := security.NewWebhookVerifier(testWebhookSecret, 5*time.Minute)
	r.POST("/v1/payments/webhook", middleware.WebhookSignature(verifier), h.Webhook)
	return r
}

func signedWebhook(t *testing.T, r *gin.Engine, payload any) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, _ := http.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(security.HeaderWebhookTimestamp, ts)
	req.Header.Set(security.HeaderWebhookSignature, security.ComputeWebhookSignature([]byte(testWebhookSecret), ts, body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestPaymentHandler_Webhook_ValidatesOnceThenReportsReplay(t *testing.T) {
	payment := &models.Payment{ID: uuid.New(), Reference: "BJ-ABCDE12345", Plan: service.PlanFeatured7d, Status: models.PaymentStatusPending}
	store := newMemoryPayments(payment)
	events := &countingEvents{}
	r := webhookRouter(store, events)

	code, body := signedWebhook(t, r, map[string]string{"reference": payment.Reference, "status": "success"})
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["already_processed"])
	assert.Equal(t, models.PaymentStatusValidated, data["status"])

	code, body = signedWebhook(t, r, map[string]string{"reference": payment.Reference, "status": "success"})
	assert.Equal(t, http.StatusOK, code)
	data = body["data"].(map[string]any)
	assert.Equal(t, true, data["already_processed"])

	assert.Equal(t, 1, events.validated)
}

func TestPaymentHandler_Webhook_UnknownReference(t *testing.T) {
	r := webhookRouter(newMemoryPayments(), &countingEvents{})

	code, body := signedWebhook(t, r, map[string]string{"reference": "BJ-NOPE000000", "status": "failed"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
}

func TestPaymentHandler_Webhook_BadStatus(t *testing.T) {
	r := webhookRouter(newMemoryPayments(), &countingEvents{})

	code, body := signedWebhook(t, r, map[string]string{"reference": "BJ-ABCDE12345", "status": "maybe"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["errors"], "status")
}

func TestPaymentHandler_Webhook_UnsignedRejected(t *testing.T) {
	payment := &models.Payment{ID: uuid.New(), Reference: "BJ-ABCDE12345", Status: models.PaymentStatusPending}
	store := newMemoryPayments(payment)
	events := &countingEvents{}
	r := webhookRouter(store, events)

	req, _ := http.NewRequest(http.MethodPost, "/v1/payments/webhook",
		bytes.NewReader([]byte(`{"reference":"BJ-ABCDE12345","status":"success"}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.PaymentStatusPending, store.byID[payment.ID].Status)
	assert.Zero(t, events.validated)
}

func TestPaymentHandler_Plans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPaymentHandler(service.NewPaymentService(newMemoryPayments(), noProfiles{}, &countingEvents{}, false))
	r.GET("/plans", h.Plans)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/plans", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []service.Plan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 3)
}

func TestPaymentHandler_Initiate_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &PaymentHandler{payments: nil}
	r.POST("/payments", h.Initiate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte(`{}`)))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, models.RoleFreelance)
		c.Next()
	})
	h := &PaymentHandler{payments: nil}
	r.GET("/payments/:id", h.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/payments/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Get_NotFoundBeforeForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, models.RoleFreelance)
		c.Next()
	})
	other := &models.Payment{ID: uuid.New(), UserID: uuid.New(), Status: models.PaymentStatusPending}
	h := NewPaymentHandler(service.NewPaymentService(newMemoryPayments(other), noProfiles{}, &countingEvents{}, false))
	r.GET("/payments/:id", h.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/payments/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/payments/"+other.ID.String(), nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
