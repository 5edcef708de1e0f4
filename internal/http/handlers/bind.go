package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON binds and validates a request body, responding with a
// structured 400 on failure. Returns false when the caller should stop.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)
	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))
		return false
	}

	return true
}

func parseBindError(err error) interface{} {
	// validator errors (struct bind tags)
	var validatorError validator.ValidationErrors
	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   fieldError.Field(),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}

		return gin.H{"fields": fields}
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		return gin.H{
			"json":  "invalid_json_type",
			"field": strings.TrimSpace(typeError.Field),
		}
	}

	// fallback if the error could not be deciphered
	return gin.H{"reason": err.Error()}
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return "failed " + rule + " validation (" + param + ")"
		}
		return "failed " + rule + " validation"
	}
}
