package shared

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidationDetails flattens ozzo field errors into field -> message.
func ValidationDetails(err error) map[string]string {
	details := make(map[string]string)
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fe := range errs {
			details[field] = fe.Error()
		}
		return details
	}
	details["_"] = err.Error()
	return details
}

// FromValidation wraps an ozzo error into a 400 AppError. Internal ozzo
// errors (rule misconfiguration) are reported as 500.
func FromValidation(message string, err error) *AppError {
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return NewInternalError(err)
	}
	appErr := NewValidationError(message, ValidationDetails(err))
	appErr.Err = err
	return appErr
}
