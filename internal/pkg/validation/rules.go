package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Phone accepts digits with common separators and an optional leading plus,
	// e.g. "+55 11 99999-1111" or "(11) 99999-1111".
	PhonePattern = `^\+?[0-9(][0-9 ().\-]{5,19}$`

	// Field length limits
	NameMaxLength        = 120
	EmailMaxLength       = 120
	PhoneMaxLength       = 20
	TitleMaxLength       = 120
	DescriptionMaxLength = 500
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Phone *regexp.Regexp
}{
	Phone: regexp.MustCompile(PhonePattern),
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so violations line up with request payloads
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Phone.MatchString(fl.Field().String())
	})

	return v
}

// Struct runs the struct tag rules of obj and converts failures to violations.
func Struct(obj interface{}) Violations {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Violations{{Message: err.Error(), Rule: "invalid"}}
	}

	var out Violations
	for _, fe := range fieldErrs {
		out = out.Add(fe.Field(), fe.Tag(), formatValidationError(fe))
	}
	return out
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "phone":
		return e.Field() + " must be a valid phone number"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
