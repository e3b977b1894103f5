package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
	"github.com/ignatzorin/freelance-marketplace/internal/validation"
)

const defaultUsersPerPage = 20

// UserStore описывает зависимости AuthService от хранилища пользователей.
type UserStore interface {
	CreateWithOutbox(ctx context.Context, user *models.User, profile *models.FreelanceProfile, msg *models.OutboxMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
	ReplaceVerificationToken(ctx context.Context, userID uuid.UUID, token string, msg *models.OutboxMessage) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdateContact(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error
	List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]models.User, int, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
}

// RegisterInput данные регистрации.
type RegisterInput struct {
	FirstName            string
	LastName             string
	Email                string
	Phone                string
	WhatsApp             *string
	Password             string
	PasswordConfirmation string
	Role                 string
	City                 *string
	Address              *string
	ProfessionalTitle    string
	Category             string
	Bio                  *string
}

// ContactInput редактируемые поля учётной записи.
type ContactInput struct {
	FirstName string
	LastName  string
	Phone     string
	WhatsApp  *string
	City      *string
	Address   *string
}

// SessionMeta сведения о клиенте для refresh сессии.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// AuthResult итог регистрации или входа.
type AuthResult struct {
	User    *models.User             `json:"user"`
	Profile *models.FreelanceProfile `json:"freelance_profile,omitempty"`
	Tokens  *TokenPair               `json:"tokens"`
}

// AuthService регистрация, вход и управление учётными записями.
type AuthService struct {
	users       UserStore
	profiles    FreelanceProfileLookup
	tokens      *TokenManager
	frontendURL string
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserStore, profiles FreelanceProfileLookup, tokens *TokenManager, frontendURL string) *AuthService {
	return &AuthService{
		users:       users,
		profiles:    profiles,
		tokens:      tokens,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Register создаёт пользователя, профиль фрилансера и письмо подтверждения
// одной транзакцией, затем выдаёт токены.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta SessionMeta) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password %w", err)
	}
	token, err := verificationToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Email:             in.Email,
		Phone:             strings.TrimSpace(in.Phone),
		WhatsApp:          trimmed(in.WhatsApp),
		PasswordHash:      string(hash),
		Role:              in.Role,
		City:              trimmed(in.City),
		Address:           trimmed(in.Address),
		Status:            models.UserStatusActive,
		VerificationToken: &token,
	}

	var profile *models.FreelanceProfile
	if in.Role == models.RoleFreelance {
		profile = &models.FreelanceProfile{
			ProfessionalTitle: strings.TrimSpace(in.ProfessionalTitle),
			Category:          strings.TrimSpace(in.Category),
			Bio:               trimmed(in.Bio),
			Availability:      models.AvailabilityAvailable,
		}
	}

	msg, err := s.verificationMessage(user, token)
	if err != nil {
		return nil, err
	}

	if err := s.users.CreateWithOutbox(ctx, user, profile, msg); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailTaken()
		}
		return nil, err
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Profile: profile, Tokens: tokens}, nil
}

// Login проверяет учётные данные. Неверная пара всегда даёт одну и ту же 401.
func (s *AuthService) Login(ctx context.Context, email, password string, meta SessionMeta) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, apperror.Forbidden("учётная запись заблокирована")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	profile, err := s.freelanceProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Profile: profile, Tokens: tokens}, nil
}

// VerifyEmail подтверждает email. Повторное подтверждение возвращает alreadyVerified=true.
func (s *AuthService) VerifyEmail(ctx context.Context, email, token string) (alreadyVerified bool, err error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user.IsEmailVerified() {
		return true, nil
	}
	if user.VerificationToken == nil || subtle.ConstantTimeCompare([]byte(*user.VerificationToken), []byte(token)) != 1 {
		return false, apperror.BadRequest("неверная ссылка подтверждения")
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyVerified) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// ResendVerification выпускает новый токен и ставит письмо в очередь.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified() {
		return apperror.BadRequest("email уже подтверждён")
	}

	token, err := verificationToken()
	if err != nil {
		return err
	}
	msg, err := s.verificationMessage(user, token)
	if err != nil {
		return err
	}
	if err := s.users.ReplaceVerificationToken(ctx, user.ID, token, msg); err != nil {
		if errors.Is(err, repository.ErrAlreadyVerified) {
			return apperror.BadRequest("email уже подтверждён")
		}
		return err
	}
	return nil
}

// Refresh меняет refresh токен на новую пару.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenPair, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("refresh токен недействителен")
	}
	if _, err := s.users.GetSession(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.Unauthorized("сессия не найдена")
		}
		return nil, err
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, apperror.Forbidden("учётная запись заблокирована")
	}

	if err := s.users.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, err
	}
	return s.issueSession(ctx, user, meta)
}

// Logout завершает сессию. Неизвестный токен не считается ошибкой.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.users.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Me возвращает текущего пользователя с профилем фрилансера.
func (s *AuthService) Me(ctx context.Context, actor policy.Actor) (*models.User, *models.FreelanceProfile, error) {
	user, err := s.user(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.freelanceProfile(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// UpdateContact обновляет контактные данные.
func (s *AuthService) UpdateContact(ctx context.Context, actor policy.Actor, in ContactInput) (*models.User, error) {
	fields := apperror.FieldErrors{}
	if err := validation.ValidateNonEmpty("имя", in.FirstName); err != nil {
		fields.Add("first_name", err.Error())
	}
	if err := validation.ValidateNonEmpty("фамилия", in.LastName); err != nil {
		fields.Add("last_name", err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		fields.Add("phone", err.Error())
	}
	if len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	user, err := s.user(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Phone = strings.TrimSpace(in.Phone)
	user.WhatsApp = trimmed(in.WhatsApp)
	user.City = trimmed(in.City)
	user.Address = trimmed(in.Address)
	if err := s.users.UpdateContact(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, actor policy.Actor, current, next, confirmation string) error {
	user, err := s.user(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.Forbidden("текущий пароль неверен")
	}

	fields := apperror.FieldErrors{}
	if err := validation.ValidatePassword(next); err != nil {
		fields.Add("password", err.Error())
	}
	if next != confirmation {
		fields.Add("password_confirmation", "пароли не совпадают")
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth service: hash password %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

// ListUsers административный список пользователей.
func (s *AuthService) ListUsers(ctx context.Context, actor policy.Actor, filter models.UserFilter, page Page) (*Paged[models.User], error) {
	if err := policy.Authorize(actor, policy.UserManage, policy.None); err != nil {
		return nil, err
	}
	page = page.normalize(defaultUsersPerPage)
	items, total, err := s.users.List(ctx, filter, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

// UpdateUserStatus блокирует или разблокирует учётную запись.
func (s *AuthService) UpdateUserStatus(ctx context.Context, actor policy.Actor, userID uuid.UUID, status string) (*models.User, error) {
	if err := policy.Authorize(actor, policy.UserManage, policy.None); err != nil {
		return nil, err
	}
	if _, ok := models.ValidUserStatuses[status]; !ok {
		return nil, apperror.Field("status", "недопустимый статус")
	}
	if userID == actor.ID {
		return nil, apperror.BadRequest("нельзя изменить статус своей учётной записи")
	}

	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, err
	}
	return s.user(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta SessionMeta) (*TokenPair, error) {
	tokens, refreshExp, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate tokens %w", err)
	}
	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokens.RefreshToken,
		UserAgent:    optional(meta.UserAgent),
		IPAddress:    optional(meta.IP),
		ExpiresAt:    refreshExp,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *AuthService) verificationMessage(user *models.User, token string) (*models.OutboxMessage, error) {
	link := fmt.Sprintf("%s/verify-email?token=%s&email=%s", s.frontendURL, url.QueryEscape(token), url.QueryEscape(user.Email))
	payload, err := json.Marshal(models.VerificationEmail{Email: user.Email, Name: user.FullName(), URL: link})
	if err != nil {
		return nil, fmt.Errorf("auth service: marshal verification email %w", err)
	}
	return &models.OutboxMessage{Kind: models.OutboxKindVerifyEmail, Payload: payload}, nil
}

func (s *AuthService) freelanceProfile(ctx context.Context, user *models.User) (*models.FreelanceProfile, error) {
	if user.Role != models.RoleFreelance {
		return nil, nil
	}
	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrFreelanceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) user(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("пользователь не найден")
		}
		return nil, err
	}
	return user, nil
}

func validateRegistration(in RegisterInput) error {
	fields := apperror.FieldErrors{}
	if err := validation.ValidateNonEmpty("имя", in.FirstName); err != nil {
		fields.Add("first_name", err.Error())
	}
	if err := validation.ValidateNonEmpty("фамилия", in.LastName); err != nil {
		fields.Add("last_name", err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		fields.Add("email", err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		fields.Add("phone", err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields.Add("password", err.Error())
	}
	if in.Password != in.PasswordConfirmation {
		fields.Add("password_confirmation", "пароли не совпадают")
	}
	switch in.Role {
	case models.RoleClient:
	case models.RoleFreelance:
		if err := validation.ValidateNonEmpty("должность", in.ProfessionalTitle); err != nil {
			fields.Add("professional_title", err.Error())
		}
		if err := validation.ValidateNonEmpty("категория", in.Category); err != nil {
			fields.Add("category", err.Error())
		}
	default:
		fields.Add("role", "роль должна быть client или freelance")
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func emailTaken() error {
	return apperror.Field("email", "email уже зарегистрирован")
}

// verificationToken 64 hex символа из crypto/rand.
func verificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth service: verification token %w", err)
	}
	return hex.EncodeToString(buf), nil
}
