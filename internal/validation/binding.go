package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
)

// RegisterJSONTagNames заставляет валидатор gin называть поля по json тегам,
// чтобы ключи ошибок совпадали с полями запроса.
func RegisterJSONTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonTagName)
}

func jsonTagName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// BindingErrors переводит ошибку привязки запроса в ошибки по полям.
func BindingErrors(err error) apperror.FieldErrors {
	fields := apperror.FieldErrors{}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields.Add(fe.Field(), message(fe))
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields.Add(typeErr.Field, "неверный тип значения")
		return fields
	}

	fields.Add("body", "некорректное тело запроса")
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "поле обязательно"
	case "email":
		return "некорректный email"
	case "min":
		return fmt.Sprintf("минимальное значение: %s", fe.Param())
	case "max":
		return fmt.Sprintf("максимальное значение: %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("допустимые значения: %s", fe.Param())
	case "uuid", "uuid4":
		return "некорректный идентификатор"
	case "eqfield":
		return "значения не совпадают"
	case "gtefield":
		return fmt.Sprintf("должно быть не меньше %s", fe.Param())
	}
	return "некорректное значение"
}
