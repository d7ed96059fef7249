package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationErrorDetail represents the structure of a single validation error.
type ValidationErrorDetail struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Expected string      `json:"expected"`
	Received interface{} `json:"received"`
}

// ValidationErrorData represents the data field in the validation error response.
type ValidationErrorData struct {
	Errors []ValidationErrorDetail `json:"errors"`
}

// BindAndValidate binds the request body to obj and runs its binding tags.
// On failure it writes a 400 describing every problem and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	c.JSON(http.StatusBadRequest, Response{
		Status:  http.StatusBadRequest,
		Message: "Invalid request parameters",
		Data:    ValidationErrorData{Errors: describeBindError(err)},
	})
	return false
}

func describeBindError(err error) []ValidationErrorDetail {
	var details []ValidationErrorDetail

	var errs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &errs):
		for _, e := range errs {
			detail := ValidationErrorDetail{
				Field:    e.Field(),
				Message:  fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", e.Field(), e.Tag()),
				Expected: e.Param(),
				Received: e.Value(),
			}
			if detail.Expected == "" {
				detail.Expected = e.Tag()
			}

			switch e.Tag() {
			case "required":
				detail.Message = fmt.Sprintf("Field '%s' is required", e.Field())
				detail.Expected = "not null"
			case "min":
				detail.Message = fmt.Sprintf("Field '%s' must be at least %s characters long", e.Field(), e.Param())
				detail.Expected = fmt.Sprintf("min length %s", e.Param())
			case "max":
				detail.Message = fmt.Sprintf("Field '%s' must be at most %s characters long", e.Field(), e.Param())
				detail.Expected = fmt.Sprintf("max length %s", e.Param())
			}

			details = append(details, detail)
		}
	case errors.As(err, &typeErr):
		details = append(details, ValidationErrorDetail{
			Field:    typeErr.Field,
			Message:  fmt.Sprintf("Field '%s' has invalid type", typeErr.Field),
			Expected: typeErr.Type.String(),
			Received: typeErr.Value,
		})
	default:
		details = append(details, ValidationErrorDetail{
			Field:    "body",
			Message:  "Malformed JSON or invalid request body",
			Expected: "valid JSON",
			Received: "invalid",
		})
	}

	return details
}
