package api

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BindError turns a gin binding failure into an ErrorResponse, naming the
// first offending field when the validator reported one.
func BindError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return ErrorResponse{
			Error: fieldMessage(fe),
			Kind:  "MALFORMED_PAYLOAD",
			Field: lowerFirst(fe.Field()),
		}
	}
	return ErrorResponse{Error: "invalid JSON body: " + err.Error(), Kind: "MALFORMED_PAYLOAD"}
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
