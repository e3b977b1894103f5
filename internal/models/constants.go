package models

// Роли пользователей.
const (
	RoleClient    = "client"
	RoleFreelance = "freelance"
	RoleAdmin     = "admin"
)

// Статусы учётной записи.
const (
	UserStatusActive    = "actif"
	UserStatusSuspended = "suspendu"
	UserStatusBanned    = "banni"
)

// Доступность фрилансера.
const (
	AvailabilityAvailable   = "available"
	AvailabilityBusy        = "busy"
	AvailabilityUnavailable = "unavailable"
)

// Уровни владения навыком.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

// Статусы проекта. Переходы только вперёд.
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Статусы отзыва.
const (
	ReviewStatusPublished = "published"
	ReviewStatusReported  = "reported"
)

// Статусы платежа.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusValidated = "validated"
	PaymentStatusFailed    = "failed"
)

// Способы оплаты.
const (
	PaymentMethodAirtelMoney  = "airtel_money"
	PaymentMethodMTNMoney     = "mtn_money"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOther        = "other"
)

// Статусы сообщений outbox.
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// Виды сообщений outbox.
const (
	OutboxKindVerifyEmail = "verify_email"
)

var ValidUserStatuses = map[string]struct{}{
	UserStatusActive:    {},
	UserStatusSuspended: {},
	UserStatusBanned:    {},
}

var ValidAvailabilities = map[string]struct{}{
	AvailabilityAvailable:   {},
	AvailabilityBusy:        {},
	AvailabilityUnavailable: {},
}

var ValidLevels = map[string]struct{}{
	LevelBeginner:     {},
	LevelIntermediate: {},
	LevelAdvanced:     {},
	LevelExpert:       {},
}

var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusOpen:       {},
	ProjectStatusInProgress: {},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
}

// IsMobileMoney сообщает, требует ли способ оплаты номер телефона.
func IsMobileMoney(method string) bool {
	return method == PaymentMethodAirtelMoney || method == PaymentMethodMTNMoney
}

// ValidPaymentMethods список поддерживаемых способов оплаты.
var ValidPaymentMethods = map[string]struct{}{
	PaymentMethodAirtelMoney:  {},
	PaymentMethodMTNMoney:     {},
	PaymentMethodBankTransfer: {},
	PaymentMethodOther:        {},
}
