package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/rozklad/domain"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for errors instead of Go struct names.
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return instance
}

// Struct checks v against its validate tags and returns an INVALID domain error
// wrapping the validator errors.
func Struct(v interface{}) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	fields := Fields(err)
	msg := "invalid payload"
	if len(fields) > 0 {
		msg = "invalid " + fields[0].Field + ": " + fields[0].Message
	}
	return domain.WrapError(domain.ErrCodeInvalid, msg, err)
}

// Fields converts validator errors into field errors; other errors yield nil.
func Fields(err error) []domain.FieldError {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil
	}
	out := make([]domain.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		out = append(out, domain.FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "datetime":
		return "must match layout " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// Var checks a single value against tag, reporting failures under name.
func Var(name string, v interface{}, tag string) error {
	err := get().Var(v, tag)
	if err == nil {
		return nil
	}
	msg := "invalid " + name
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		msg += ": " + describe(vErrs[0])
	}
	return domain.WrapError(domain.ErrCodeInvalid, msg, err)
}
