package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one violated constraint. Field is empty for cross-field
// business rules.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// IsRule reports whether the error comes from a cross-field business rule
// rather than a single field.
func (e FieldError) IsRule() bool {
	return e.Field == ""
}

// Error is returned when a product payload fails validation. It lists every
// violation found.
type Error struct {
	Errors []FieldError `json:"errors"`
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Field returns the first error reported for field, if any.
func (e *Error) Field(field string) (FieldError, bool) {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Rule returns the first error reported for rule, if any.
func (e *Error) Rule(rule string) (FieldError, bool) {
	for _, fe := range e.Errors {
		if fe.Rule == rule {
			return fe, true
		}
	}
	return FieldError{}, false
}

func message(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isCollection(e) {
			return fmt.Sprintf("%s must have at least %s item(s)", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		if isCollection(e) {
			return fmt.Sprintf("%s must have at most %s item(s)", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	case "eq":
		return fmt.Sprintf("%s must be %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid", "uuid_any":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "sku_hyphen":
		return "sku must contain a '-'"
	case "sku_suffix":
		return "sku must end with a 3-digit sequence like -012"
	case "seller_domain":
		return fmt.Sprintf("Seller email domain not allowed: %s", EmailDomain(fmt.Sprint(e.Value())))
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag())
}

func isCollection(e validator.FieldError) bool {
	switch e.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}
