package serrors

import "fmt"

// Base is a structured error carrying a stable machine-readable code
// alongside the human-readable message.
type Base struct {
	Code    string
	Message string
	Details string
}

func NewError(code, message, details string) *Base {
	return &Base{Code: code, Message: message, Details: details}
}

func (e *Base) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// FieldError is a validation failure attached to a single input field.
// Callers collect these and re-render forms instead of treating them as
// hard failures.
type FieldError struct {
	Base
	Field string
}

func NewFieldError(code, field, message string) *FieldError {
	return &FieldError{
		Base:  Base{Code: code, Message: message},
		Field: field,
	}
}

func NewFieldRequiredError(field, message string) *FieldError {
	return &FieldError{
		Base:  Base{Code: "FIELD_REQUIRED", Message: message},
		Field: field,
	}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}
