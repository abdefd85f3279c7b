package web

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/JonMunkholm/academia/internal/core"
)

const (
	notBlankTag   = "notblank"
	importKindTag = "import_kind"
)

// requestValidator checks decoded request payloads. Field errors are keyed
// by the JSON name of the field.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(s) != ""
	})
	_ = v.RegisterValidation(importKindTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := core.ParseImportKind(s)
		return err == nil
	})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, importKindTag} {
		_ = v.RegisterTranslation(tag, trans, registerFn, translateCustom)
	}

	return &requestValidator{validate: v, translator: trans}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case importKindTag:
		return fe.Field() + " must be one of: users, subjects, groups, schedules"
	}
	return ""
}

// RequestError is a request payload that failed validation.
type RequestError struct {
	Fields map[string]string
}

func (e *RequestError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	sort.Strings(parts)
	return "invalid request: " + strings.Join(parts, "; ")
}

// Struct validates v and returns a *RequestError listing every bad field.
func (rv *requestValidator) Struct(v any) error {
	err := rv.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(rv.translator)
	}
	return &RequestError{Fields: fields}
}
