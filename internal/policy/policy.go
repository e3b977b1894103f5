// Package policy централизует проверки прав: кто (Actor) может выполнить
// действие (Action) над ресурсом (Resource). Сервисы не сравнивают роли сами.
package policy

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
)

// Action название проверяемой операции.
type Action string

const (
	PaymentCreate      Action = "payment.create"
	PaymentRead        Action = "payment.read"
	PaymentModerate    Action = "payment.moderate"
	ReviewCreate       Action = "review.create"
	ReviewUpdate       Action = "review.update"
	ReviewDelete       Action = "review.delete"
	ProjectCreate      Action = "project.create"
	ProjectUpdate      Action = "project.update"
	ProjectDelete      Action = "project.delete"
	FreelanceUpdate    Action = "freelance.update"
	NotificationAccess Action = "notification.access"
	ActivityAccess     Action = "activity.access"
	UserManage         Action = "user.manage"
	CategoryCreate     Action = "category.create"
	RatingRecompute    Action = "rating.recompute"
)

// Actor пользователь, выполняющий запрос.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// Resource объект действия. OwnerID равен uuid.Nil, если владельца нет.
type Resource struct {
	OwnerID uuid.UUID
}

// Owned ресурс с владельцем.
func Owned(ownerID uuid.UUID) Resource {
	return Resource{OwnerID: ownerID}
}

// None действие без конкретного ресурса.
var None = Resource{}

type rule func(actor Actor, res Resource) bool

func role(roles ...string) rule {
	return func(actor Actor, _ Resource) bool {
		for _, r := range roles {
			if actor.Role == r {
				return true
			}
		}
		return false
	}
}

func owner(actor Actor, res Resource) bool {
	return res.OwnerID != uuid.Nil && res.OwnerID == actor.ID
}

func ownerOrAdmin(actor Actor, res Resource) bool {
	return actor.Role == models.RoleAdmin || owner(actor, res)
}

func ownerWithRole(r string) rule {
	return func(actor Actor, res Resource) bool {
		return actor.Role == r && owner(actor, res)
	}
}

var rules = map[Action]rule{
	PaymentCreate:      role(models.RoleFreelance),
	PaymentRead:        ownerOrAdmin,
	PaymentModerate:    role(models.RoleAdmin),
	ReviewCreate:       role(models.RoleClient),
	ReviewUpdate:       ownerWithRole(models.RoleClient),
	ReviewDelete:       ownerOrAdmin,
	ProjectCreate:      role(models.RoleClient),
	ProjectUpdate:      ownerOrAdmin,
	ProjectDelete:      ownerOrAdmin,
	FreelanceUpdate:    ownerWithRole(models.RoleFreelance),
	NotificationAccess: owner,
	ActivityAccess:     owner,
	UserManage:         role(models.RoleAdmin),
	CategoryCreate:     role(models.RoleAdmin),
	RatingRecompute:    role(models.RoleAdmin),
}

var messages = map[Action]string{
	PaymentCreate:      "только фрилансер может оплатить продвижение",
	ReviewCreate:       "только клиент может оставить отзыв",
	ProjectCreate:      "только клиент может публиковать проекты",
	NotificationAccess: "это уведомление адресовано другому пользователю",
	ActivityAccess:     "эта активность принадлежит другому пользователю",
}

// Allowed возвращает true, если действие разрешено. Неизвестные действия запрещены.
func Allowed(actor Actor, action Action, res Resource) bool {
	if actor.ID == uuid.Nil {
		return false
	}
	check, ok := rules[action]
	if !ok {
		return false
	}
	return check(actor, res)
}

// Authorize возвращает ошибку FORBIDDEN, если действие запрещено.
func Authorize(actor Actor, action Action, res Resource) error {
	if Allowed(actor, action, res) {
		return nil
	}
	if msg, ok := messages[action]; ok {
		return apperror.Forbidden(msg)
	}
	return apperror.ErrForbidden
}
