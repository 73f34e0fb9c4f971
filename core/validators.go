package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	hexColorTag   = "hexcolor_"
	hexColorText  = "must be a color like #047D7D"
	hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

	phoneTag   = "phone_"
	phoneText  = "must be a valid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

	clockTag   = "clock_"
	clockText  = "must be a time like 09:30"
	clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	oneOfCITag = "oneof_ci"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
	oneOfTag        = "oneof"
	oneOfText       = "invalid choice"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, regexValidation(alphaNumUnderRegex))
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)
	_ = validate.RegisterValidation(hexColorTag, regexValidation(hexColorRegex))
	RegisterCustomTranslation(validate, translator, hexColorTag, hexColorText)
	_ = validate.RegisterValidation(phoneTag, regexValidation(phoneRegex))
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)
	_ = validate.RegisterValidation(clockTag, regexValidation(clockRegex))
	RegisterCustomTranslation(validate, translator, clockTag, clockText)
	_ = validate.RegisterValidation(oneOfCITag, oneOfCIValidation)
	RegisterCustomTranslation(validate, translator, oneOfCITag, oneOfText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, oneOfTag, oneOfText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// regexValidation matches string fields against `re`. Empty strings are left to `required`.
func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || re.MatchString(s)
	}
}

// oneOfCIValidation is a case-insensitive `oneof`. Empty strings are left to `required`.
func oneOfCIValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	for _, opt := range strings.Fields(fl.Param()) {
		if strings.EqualFold(s, opt) {
			return true
		}
	}
	return false
}
