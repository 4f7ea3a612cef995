package dto

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/media"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// RegisterValidations adds the custom tags used by the request types.
func RegisterValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String()) && fl.Field().String() != "me"
		},
		"slug": func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		},
		"base64image": func(fl validator.FieldLevel) bool {
			return media.IsDataURI(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

var messages = map[string]string{
	"required":    "This field is required.",
	"email":       "Enter a valid email address.",
	"username":    "Enter a valid username. Letters, digits and @/./+/-/_ only; \"me\" is reserved.",
	"slug":        "Enter a valid slug of letters, numbers, underscores or hyphens.",
	"base64image": "Upload a valid base64 encoded image.",
}

// FieldErrors converts validator errors into field -> messages keyed by JSON name.
func FieldErrors(errs validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, fe := range errs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			switch fe.Tag() {
			case "max":
				msg = "Ensure this field has no more than " + fe.Param() + " characters."
			case "min":
				msg = "Ensure this field has at least " + fe.Param() + " characters."
			default:
				msg = "Invalid value."
			}
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}

// UseJSONFieldNames makes validation errors report json tag names.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonTagName)
}

func jsonTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
