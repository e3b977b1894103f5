package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secret123", false},
		{"too short", "Ab1", true},
		{"no upper", "secret123", true},
		{"no lower", "SECRET123", true},
		{"no digit", "SecretPass", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword_ListsAllMissing(t *testing.T) {
	err := ValidatePassword("lowercase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "заглавную букву")
	assert.Contains(t, err.Error(), "цифру")
	assert.NotContains(t, err.Error(), "строчную")
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("Jean.Dupont@Example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("a@b"))
	assert.Error(t, ValidateEmail("a@@b.com"))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+229 97 00 00 00"))
	assert.NoError(t, ValidatePhone("97000000"))
	assert.Error(t, ValidatePhone(""))
	assert.Error(t, ValidatePhone("12ab"))
	assert.Error(t, ValidatePhone("123"))
}

func TestValidateRange(t *testing.T) {
	lo, hi, neg := int64(100), int64(50), int64(-1)
	assert.NoError(t, ValidateRange("бюджет", nil, nil))
	assert.NoError(t, ValidateRange("бюджет", &hi, &lo))
	assert.Error(t, ValidateRange("бюджет", &lo, &hi))
	assert.Error(t, ValidateRange("бюджет", &neg, nil))
}

func TestValidateExternalLink(t *testing.T) {
	ok := "https://example.com/work"
	bad := "ftp://example.com"
	noHost := "https://"
	assert.NoError(t, ValidateExternalLink(nil))
	assert.NoError(t, ValidateExternalLink(&ok))
	assert.Error(t, ValidateExternalLink(&bad))
	assert.Error(t, ValidateExternalLink(&noHost))
}

func TestBindingErrors_UsesJSONNames(t *testing.T) {
	type request struct {
		Email  string `json:"email" validate:"required,email"`
		Rating int    `json:"rating" validate:"min=1,max=5"`
	}
	v := validator.New()
	v.SetTagName("validate")
	v.RegisterTagNameFunc(jsonTagName)

	err := v.Struct(request{Email: "bad", Rating: 9})
	require.Error(t, err)

	fields := BindingErrors(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "rating")
	assert.Equal(t, []string{"некорректный email"}, fields["email"])
}
