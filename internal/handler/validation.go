package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storycanvas/internal/models"
)

var tagNamesOnce sync.Once

// registerValidatorTagNames makes validation errors report json field names.
func registerValidatorTagNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// fieldErrors converts a binding error into per-field errors. It returns nil
// when err is not about a particular field (malformed JSON).
func fieldErrors(err error) []models.FieldError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		out := make([]models.FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			out = append(out, models.FieldError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: validationMessage(fe),
			})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []models.FieldError{{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type.String(), typeErr.Value),
		}}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

// abortInvalidData answers 400 with the field errors of a failed bind.
func abortInvalidData(c *gin.Context, message string, err error) {
	resp := models.ErrorResponse{Message: message, Errors: fieldErrors(err)}
	if resp.Errors == nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
