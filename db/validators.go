package db

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	phoneTag     = "phone"
	phoneText    = "{0} must contain between 10 and 15 digits"
	nonDigits    = regexp.MustCompile(`\D`)
	notBlankTag  = "notblank"
	notBlankText = "{0} must not be blank"
)

// Validator checks students and mentors and renders english messages keyed by JSON field name.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator instantiates a validator with the custom tags registered.
func NewValidator() *Validator {
	v := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	val := &Validator{validate: v, translator: trans}

	// register custom validators
	_ = v.RegisterValidation(phoneTag, phoneValidation)
	val.registerTranslation(phoneTag, phoneText)
	_ = v.RegisterValidation(notBlankTag, validators.NotBlank)
	val.registerTranslation(notBlankTag, notBlankText)

	return val
}

func (val *Validator) registerTranslation(tag, text string) {
	_ = val.validate.RegisterTranslation(
		tag, val.translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. Field failures come back as *ValidationError tagged with row.
func (val *Validator) Struct(s interface{}, row int) error {
	err := val.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate")
	}

	verr := &ValidationError{Row: row, Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Error: fe.Translate(val.translator)})
	}
	return verr
}

// phoneValidation accepts any punctuation as long as 10 to 15 digits remain.
func phoneValidation(fl validator.FieldLevel) bool {
	digits := nonDigits.ReplaceAllString(fl.Field().String(), "")
	return len(digits) >= 10 && len(digits) <= 15
}
