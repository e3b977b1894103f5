package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Коды тарифов продвижения.
const (
	PlanFeatured7d  = "featured_7d"
	PlanFeatured15d = "featured_15d"
	PlanFeatured30d = "featured_30d"
)

// CurrencyFCFA валюта всех платежей.
const CurrencyFCFA = "FCFA"

// fallbackPlanDays длительность для тарифа, которого нет в таблице.
const fallbackPlanDays = 30

const (
	referencePrefix   = "BJ-"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 10
)

// Plan тариф продвижения профиля.
type Plan struct {
	Code     string `json:"code"`
	Days     int    `json:"days"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

var plans = []Plan{
	{Code: PlanFeatured7d, Days: 7, Amount: 2500, Currency: CurrencyFCFA},
	{Code: PlanFeatured15d, Days: 15, Amount: 4000, Currency: CurrencyFCFA},
	{Code: PlanFeatured30d, Days: 30, Amount: 5000, Currency: CurrencyFCFA},
}

// Plans возвращает копию таблицы тарифов.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// LookupPlan ищет тариф по коду.
func LookupPlan(code string) (Plan, bool) {
	for _, p := range plans {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanDuration длительность продвижения по тарифу; неизвестный тариф даёт 30 дней.
func PlanDuration(code string) time.Duration {
	days := fallbackPlanDays
	if p, ok := LookupPlan(code); ok {
		days = p.Days
	}
	return time.Duration(days) * 24 * time.Hour
}

// generateReference формирует референс вида BJ-XXXXXXXXXX.
func generateReference() (string, error) {
	buf := make([]byte, referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + string(buf), nil
}
