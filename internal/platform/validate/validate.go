package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/gtd-backend/internal/platform/apperr"
)

const (
	PasswordMinLength = 8
	// bcrypt ignores everything past 72 bytes.
	PasswordMaxLength = 72
)

var (
	lowerRe = regexp.MustCompile(`[a-z]`)
	upperRe = regexp.MustCompile(`[A-Z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
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
		})
	})
	return v
}

// RegisterType validates fields of the given wrapper types through the value fn returns.
func RegisterType(fn validator.CustomTypeFunc, types ...any) {
	instance().RegisterCustomTypeFunc(fn, types...)
}

// Fields runs `validate` tags and returns one error per failing field.
func Fields(s any) apperr.List {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.List{apperr.Internal(err)}
	}
	list := make(apperr.List, 0, len(verrs))
	for _, fe := range verrs {
		list = append(list, apperr.Validation(fe.Field(), message(fe)))
	}
	return list
}

// Struct is Fields as a single error, nil when every field passes.
func Struct(s any) error {
	return Fields(s).Err()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return "Must be a valid id"
	default:
		return "Is invalid"
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Password enforces the complexity rules and returns one error per broken rule.
func Password(field, password string) apperr.List {
	var list apperr.List
	if len(password) < PasswordMinLength {
		list = append(list, apperr.Validation(field, fmt.Sprintf("Must be at least %d characters", PasswordMinLength)))
	}
	if len(password) > PasswordMaxLength {
		list = append(list, apperr.Validation(field, fmt.Sprintf("Must be at most %d characters", PasswordMaxLength)))
	}
	if !lowerRe.MatchString(password) {
		list = append(list, apperr.Validation(field, "Must contain a lowercase letter"))
	}
	if !upperRe.MatchString(password) {
		list = append(list, apperr.Validation(field, "Must contain an uppercase letter"))
	}
	if !digitRe.MatchString(password) {
		list = append(list, apperr.Validation(field, "Must contain a number"))
	}
	return list
}
