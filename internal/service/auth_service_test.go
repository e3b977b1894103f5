package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
)

type authFixture struct {
	users    *mockUserStore
	profiles *mockProfiles
	tokens   *TokenManager
	svc      *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(mockUserStore),
		profiles: new(mockProfiles),
		tokens:   NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour),
	}
	f.svc = NewAuthService(f.users, f.profiles, f.tokens, "https://app.example.com/")
	return f
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName:            "Jean",
		LastName:             "Dupont",
		Email:                "  Jean.Dupont@Example.com ",
		Phone:                "+229 97 00 00 00",
		Password:             "Secret123",
		PasswordConfirmation: "Secret123",
		Role:                 models.RoleFreelance,
		ProfessionalTitle:    "Développeur Go",
		Category:             "Développement",
	}
}

func storedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		FirstName:    "Awa",
		LastName:     "Kone",
		Email:        "awa@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleClient,
		Status:       models.UserStatusActive,
	}
}

func TestAuthService_RegisterFreelance(t *testing.T) {
	f := newAuthFixture()
	f.users.On("GetByEmail", mock.Anything, "jean.dupont@example.com").Return(nil, repository.ErrUserNotFound)

	var outbox *models.OutboxMessage
	f.users.On("CreateWithOutbox", mock.Anything, mock.Anything, mock.AnythingOfType("*models.FreelanceProfile"), mock.Anything).
		Run(func(args mock.Arguments) { outbox = args.Get(3).(*models.OutboxMessage) }).
		Return(nil)
	f.users.On("CreateSession", mock.Anything, mock.AnythingOfType("*models.Session")).Return(nil)

	res, err := f.svc.Register(context.Background(), validRegistration(), SessionMeta{UserAgent: "test", IP: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "jean.dupont@example.com", res.User.Email)
	assert.NotEqual(t, "Secret123", res.User.PasswordHash)
	require.NotNil(t, res.Profile)
	assert.Equal(t, models.AvailabilityAvailable, res.Profile.Availability)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.Equal(t, "Bearer", res.Tokens.TokenType)

	require.NotNil(t, outbox)
	assert.Equal(t, models.OutboxKindVerifyEmail, outbox.Kind)
	var payload models.VerificationEmail
	require.NoError(t, json.Unmarshal(outbox.Payload, &payload))
	assert.Equal(t, "jean.dupont@example.com", payload.Email)
	assert.True(t, strings.HasPrefix(payload.URL, "https://app.example.com/verify-email?token="))
	assert.Contains(t, payload.URL, *res.User.VerificationToken)
	assert.Len(t, *res.User.VerificationToken, 64)
}

func TestAuthService_RegisterClientHasNoProfile(t *testing.T) {
	f := newAuthFixture()
	in := validRegistration()
	in.Role = models.RoleClient
	in.ProfessionalTitle = ""

	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrUserNotFound)
	f.users.On("CreateWithOutbox", mock.Anything, mock.Anything, (*models.FreelanceProfile)(nil), mock.Anything).Return(nil)
	f.users.On("CreateSession", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Register(context.Background(), in, SessionMeta{})
	require.NoError(t, err)
	assert.Nil(t, res.Profile)
}

func TestAuthService_RegisterEmailTaken(t *testing.T) {
	f := newAuthFixture()
	f.users.On("GetByEmail", mock.Anything, "jean.dupont@example.com").Return(&models.User{}, nil)

	_, err := f.svc.Register(context.Background(), validRegistration(), SessionMeta{})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "email")
	f.users.AssertNotCalled(t, "CreateWithOutbox", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RegisterEmailTakenConcurrently(t *testing.T) {
	f := newAuthFixture()
	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrUserNotFound)
	f.users.On("CreateWithOutbox", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrEmailTaken)

	_, err := f.svc.Register(context.Background(), validRegistration(), SessionMeta{})
	assert.True(t, apperror.IsValidation(err))
	f.users.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture()
	in := validRegistration()
	in.Password = "weak"
	in.PasswordConfirmation = "other"
	in.Role = models.RoleAdmin

	_, err := f.svc.Register(context.Background(), in, SessionMeta{})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "password")
	assert.Contains(t, appErr.Fields, "password_confirmation")
	assert.Contains(t, appErr.Fields, "role")
	f.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("UpdateLastLogin", mock.Anything, user.ID).Return(errors.New("db down"))
	f.users.On("CreateSession", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Login(context.Background(), user.Email, "Secret123", SessionMeta{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	actor, err := f.tokens.ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, policy.Actor{ID: user.ID, Role: models.RoleClient}, actor)
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	banned := storedUser(t, "Secret123")
	banned.Email = "banned@example.com"
	banned.Status = models.UserStatusBanned

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("GetByEmail", mock.Anything, banned.Email).Return(banned, nil)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	_, wrongPassword := f.svc.Login(context.Background(), user.Email, "Wrong123", SessionMeta{})
	_, unknown := f.svc.Login(context.Background(), "ghost@example.com", "Secret123", SessionMeta{})
	assert.True(t, apperror.IsUnauthorized(wrongPassword))
	assert.Equal(t, wrongPassword.Error(), unknown.Error())

	_, err := f.svc.Login(context.Background(), banned.Email, "Secret123", SessionMeta{})
	assert.True(t, apperror.IsForbidden(err))
	f.users.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestAuthService_VerifyEmail(t *testing.T) {
	f := newAuthFixture()
	token := strings.Repeat("ab", 32)
	user := storedUser(t, "Secret123")
	user.VerificationToken = &token
	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("MarkEmailVerified", mock.Anything, user.ID).Return(nil)

	_, err := f.svc.VerifyEmail(context.Background(), user.Email, "bad-token")
	assert.True(t, apperror.IsBadRequest(err))

	already, err := f.svc.VerifyEmail(context.Background(), user.Email, token)
	require.NoError(t, err)
	assert.False(t, already)
	f.users.AssertCalled(t, "MarkEmailVerified", mock.Anything, user.ID)
}

func TestAuthService_VerifyEmailAlreadyVerified(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	verifiedAt := time.Now()
	user.EmailVerifiedAt = &verifiedAt
	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	already, err := f.svc.VerifyEmail(context.Background(), user.Email, "whatever")
	require.NoError(t, err)
	assert.True(t, already)
	f.users.AssertNotCalled(t, "MarkEmailVerified", mock.Anything, mock.Anything)

	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrUserNotFound)
	_, err = f.svc.VerifyEmail(context.Background(), "ghost@example.com", "x")
	assert.True(t, apperror.IsNotFound(err))
}

func TestAuthService_VerifyEmailRace(t *testing.T) {
	f := newAuthFixture()
	token := "t"
	user := storedUser(t, "Secret123")
	user.VerificationToken = &token
	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("MarkEmailVerified", mock.Anything, user.ID).Return(repository.ErrAlreadyVerified)

	already, err := f.svc.VerifyEmail(context.Background(), user.Email, token)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestAuthService_ResendVerification(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("ReplaceVerificationToken", mock.Anything, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("*models.OutboxMessage")).Return(nil)

	require.NoError(t, f.svc.ResendVerification(context.Background(), user.Email))

	verifiedAt := time.Now()
	user.EmailVerifiedAt = &verifiedAt
	assert.True(t, apperror.IsBadRequest(f.svc.ResendVerification(context.Background(), user.Email)))
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	pair, _, err := f.tokens.GeneratePair(user)
	require.NoError(t, err)

	f.users.On("GetSession", mock.Anything, pair.RefreshToken).Return(&models.Session{UserID: user.ID}, nil)
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("DeleteSession", mock.Anything, pair.RefreshToken).Return(nil)
	f.users.On("CreateSession", mock.Anything, mock.Anything).Return(nil)

	next, err := f.svc.Refresh(context.Background(), pair.RefreshToken, SessionMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	f.users.AssertCalled(t, "DeleteSession", mock.Anything, pair.RefreshToken)

	_, err = f.svc.Refresh(context.Background(), "garbage", SessionMeta{})
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestAuthService_RefreshUnknownSession(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	pair, _, err := f.tokens.GeneratePair(user)
	require.NoError(t, err)
	f.users.On("GetSession", mock.Anything, pair.RefreshToken).Return(nil, repository.ErrSessionNotFound)

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken, SessionMeta{})
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestAuthService_LogoutIgnoresUnknownSession(t *testing.T) {
	f := newAuthFixture()
	f.users.On("DeleteSession", mock.Anything, "gone").Return(repository.ErrSessionNotFound)
	assert.NoError(t, f.svc.Logout(context.Background(), "gone"))
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture()
	user := storedUser(t, "Secret123")
	actor := policy.Actor{ID: user.ID, Role: user.Role}
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string")).Return(nil)

	err := f.svc.ChangePassword(context.Background(), actor, "Wrong123", "NewSecret1", "NewSecret1")
	assert.True(t, apperror.IsForbidden(err))

	err = f.svc.ChangePassword(context.Background(), actor, "Secret123", "short", "short")
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, f.svc.ChangePassword(context.Background(), actor, "Secret123", "NewSecret1", "NewSecret1"))
	f.users.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestAuthService_UpdateUserStatus(t *testing.T) {
	f := newAuthFixture()
	admin := policy.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	target := storedUser(t, "Secret123")
	f.users.On("UpdateStatus", mock.Anything, target.ID, models.UserStatusSuspended).Return(nil)
	f.users.On("GetByID", mock.Anything, target.ID).Return(target, nil)

	_, err := f.svc.UpdateUserStatus(context.Background(), policy.Actor{ID: uuid.New(), Role: models.RoleClient}, target.ID, models.UserStatusSuspended)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.UpdateUserStatus(context.Background(), admin, target.ID, "deleted")
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.UpdateUserStatus(context.Background(), admin, admin.ID, models.UserStatusBanned)
	assert.True(t, apperror.IsBadRequest(err))

	_, err = f.svc.UpdateUserStatus(context.Background(), admin, target.ID, models.UserStatusSuspended)
	require.NoError(t, err)
}
