package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
	once       sync.Once
)

// Engine returns the shared validator with English messages, JSON field
// names and the custom tags registered.
func Engine() *validator.Validate {
	once.Do(setup)
	return validate
}

func setup() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Same tag gin reads so request DTOs only declare rules once
	validate.SetTagName("binding")

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(mobileTag, patternRule(CompiledPatterns.Mobile))
	_ = validate.RegisterValidation(hashtagTag, patternRule(CompiledPatterns.Hashtag))
	_ = validate.RegisterValidation(voucherCodeTag, patternRule(CompiledPatterns.VoucherCode))

	registerTranslation(notBlankTag, notBlankText)
	registerTranslation(mobileTag, mobileText)
	registerTranslation(hashtagTag, hashtagText)
	registerTranslation(voucherCodeTag, voucherCodeText)
	registerTranslation("required", requiredText)
}

func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s with the shared engine
func Struct(s any) error {
	return Engine().Struct(s)
}

// FieldErrors converts validator errors into messages keyed by JSON field
// path. ok is false when err is not a validation error.
func FieldErrors(err error) (fields map[string][]string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	Engine()

	fields = make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldPath(fe.Namespace())
		fields[key] = append(fields[key], fe.Translate(translator))
	}
	return fields, true
}

// fieldPath drops the top level struct name: "Req.items[0].muid" -> "items[0].muid"
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// ginValidator plugs the shared engine into gin's binding
type ginValidator struct{}

// ValidateStruct implements binding.StructValidator
func (ginValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	switch value.Kind() {
	case reflect.Ptr:
		if value.IsNil() {
			return nil
		}
		return ginValidator{}.ValidateStruct(value.Elem().Interface())
	case reflect.Struct:
		return Engine().Struct(obj)
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := (ginValidator{}).ValidateStruct(value.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Engine implements binding.StructValidator
func (ginValidator) Engine() any {
	return Engine()
}

// RegisterWithGin makes ShouldBind* use the shared engine
func RegisterWithGin() {
	binding.Validator = ginValidator{}
}
