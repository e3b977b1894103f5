package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

// passwordRule одно требование к паролю и его описание для сообщения.
type passwordRule struct {
	label string
	check func(rune) bool
}

var passwordRules = []passwordRule{
	{"заглавную букву", unicode.IsUpper},
	{"строчную букву", unicode.IsLower},
	{"цифру", unicode.IsNumber},
}

// ValidatePassword требует минимум 8 символов, заглавную и строчную букву и цифру.
// Сообщение перечисляет все невыполненные требования сразу.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}

	var missing []string
	for _, rule := range passwordRules {
		if !strings.ContainsFunc(password, rule.check) {
			missing = append(missing, rule.label)
		}
	}
	if len(missing) > 0 {
		return errors.New("пароль должен содержать " + strings.Join(missing, ", "))
	}
	return nil
}
