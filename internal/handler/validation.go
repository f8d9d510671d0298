package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/music"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator. Field errors are reported
// by JSON name and the "musickey" tag accepts keys like "Bb" or "F#m".
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("musickey", func(fl validator.FieldLevel) bool {
			return music.IsKey(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// crossFieldValidator is implemented by requests with rules that struct tags
// cannot express.
type crossFieldValidator interface {
	Validate() []model.FieldError
}

// ValidateStruct runs tag validation and then any cross-field rules.
func ValidateStruct(v interface{}) []model.FieldError {
	var fieldErrors []model.FieldError

	if err := validatorInstance().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []model.FieldError{{Field: "body", Message: err.Error()}}
		}
		for _, fe := range verrs {
			fieldErrors = append(fieldErrors, model.FieldError{
				Field:   fieldPath(fe),
				Message: fieldMessage(fe),
			})
		}
		return fieldErrors
	}

	if cv, ok := v.(crossFieldValidator); ok {
		fieldErrors = append(fieldErrors, cv.Validate()...)
	}
	return fieldErrors
}

// decodeAndValidate reads a JSON body into v. It writes the problem response
// and returns false when the body is malformed (400) or invalid (422).
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(w, r, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, model.NewPayloadTooLargeError(tooLarge.Limit))
			return false
		}
		WriteError(w, model.NewBadRequestError("invalid request body: "+err.Error()))
		return false
	}
	if errs := ValidateStruct(v); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return false
	}
	return true
}

// fieldPath drops the root struct name: "CreateSongRequest.tags[2]" → "tags[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a UUID"
	case "musickey":
		return "must be a musical key such as G, Bb or F#m"
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		if fe.Param() == model.DateLayout {
			return "must be a date in YYYY-MM-DD format"
		}
		return "must be a time in HH:MM format"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
