// Package validation turns untyped product input into a Product that
// satisfies every field constraint and business rule of the catalog.
//
// Field constraints are declared as struct tags on models.ProductInput and
// enforced by go-playground/validator. Cross-field rules run only once every
// field is valid.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Rule names reported for cross-field business rules.
const (
	RuleStockActive    = "stock_active"
	RuleDiscountRating = "discount_rating"
)

// allowedSellerDomains is the fixed set of vendor domains a seller email may
// belong to.
var allowedSellerDomains = map[string]struct{}{
	"mistore.in":         {},
	"hpworld.in":         {},
	"realmeofficial.in":  {},
	"samsungindia.in":    {},
	"lenovostore.in":     {},
	"applestoreindia.in": {},
	"dellexclusive.in":   {},
	"sonycenter.in":      {},
	"oneplusstore.in":    {},
	"asusexlusive.in":    {},
}

// Validator validates product payloads.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the catalog's custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(jsonName)

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("sku_hyphen", func(fl validator.FieldLevel) bool {
		return strings.Contains(fl.Field().String(), "-")
	})
	_ = v.RegisterValidation("sku_suffix", func(fl validator.FieldLevel) bool {
		return HasNumericSuffix(fl.Field().String())
	})
	// Any form uuid.Parse accepts, including upper case.
	_ = v.RegisterValidation("uuid_any", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("seller_domain", func(fl validator.FieldLevel) bool {
		return IsAllowedSellerDomain(fl.Field().String())
	})

	return &Validator{validate: v}
}

// HasNumericSuffix reports whether the segment after the last '-' in sku is
// exactly three ASCII digits.
func HasNumericSuffix(sku string) bool {
	i := strings.LastIndex(sku, "-")
	if i < 0 {
		return false
	}
	last := sku[i+1:]
	if len(last) != 3 {
		return false
	}
	for _, r := range last {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EmailDomain returns the lower-cased part of email after the last '@'.
func EmailDomain(email string) string {
	return strings.ToLower(email[strings.LastIndex(email, "@")+1:])
}

// IsAllowedSellerDomain reports whether email belongs to an allowed vendor domain.
func IsAllowedSellerDomain(email string) bool {
	_, ok := allowedSellerDomains[EmailDomain(email)]
	return ok
}

// Parse decodes a JSON body and validates it.
func (v *Validator) Parse(body []byte) (*models.Product, error) {
	var input models.ProductInput
	typeErrs, err := decode(body, &input)
	if err != nil {
		return nil, err
	}
	return v.validateInput(&input, typeErrs)
}

// Validate validates a field-name to value mapping, as produced by decoding
// arbitrary JSON.
func (v *Validator) Validate(input map[string]any) (*models.Product, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, &Error{Errors: []FieldError{{
			Field:   "body",
			Rule:    "json",
			Message: fmt.Sprintf("input cannot be encoded: %v", err),
		}}}
	}
	return v.Parse(body)
}

// ValidateInput validates an already decoded input.
func (v *Validator) ValidateInput(input *models.ProductInput) (*models.Product, error) {
	return v.validateInput(input, nil)
}

func (v *Validator) validateInput(input *models.ProductInput, typeErrs []FieldError) (*models.Product, error) {
	fieldErrs := v.fieldErrors(input, typeErrs)
	if len(fieldErrs) > 0 {
		return nil, &Error{Errors: fieldErrs}
	}

	product := input.ToProduct()
	if ruleErrs := checkBusinessRules(product); len(ruleErrs) > 0 {
		return nil, &Error{Errors: ruleErrs}
	}
	return product, nil
}

// fieldErrors merges decode type errors with tag violations. A field that
// failed to decode reports its type error instead of "required".
func (v *Validator) fieldErrors(input *models.ProductInput, typeErrs []FieldError) []FieldError {
	errs := append([]FieldError(nil), typeErrs...)
	seen := make(map[string]bool, len(typeErrs))
	for _, e := range typeErrs {
		seen[e.Field] = true
	}

	err := v.validate.Struct(input)
	if err == nil {
		return errs
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return append(errs, FieldError{Field: "body", Rule: "invalid", Message: err.Error()})
	}
	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		if seen[field] {
			continue
		}
		errs = append(errs, FieldError{
			Field:   field,
			Rule:    e.Tag(),
			Message: message(field, e),
		})
	}
	return errs
}

func checkBusinessRules(p *models.Product) []FieldError {
	var errs []FieldError
	if p.Stock == 0 && p.IsActive {
		errs = append(errs, FieldError{
			Rule:    RuleStockActive,
			Message: "If stock is 0, then is_active must be false",
		})
	}
	if p.DiscountPercent > 0 && p.Rating == 0 {
		errs = append(errs, FieldError{
			Rule:    RuleDiscountRating,
			Message: "Discounted price must have a few ratings. (ie rating != 0)",
		})
	}
	return errs
}

// decode unmarshals body into input one field at a time, so every type
// mismatch is returned as a field error and validation can still report the
// remaining fields. Malformed JSON or a non-object body fails outright.
func decode(body []byte, input *models.ProductInput) ([]FieldError, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &Error{Errors: []FieldError{{Field: "body", Rule: "required", Message: "request body is required"}}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &Error{Errors: []FieldError{{
				Field:   "body",
				Rule:    "type",
				Message: fmt.Sprintf("body must be a JSON object, got %s", typeErr.Value),
			}}}
		}
		return nil, &Error{Errors: []FieldError{{
			Field:   "body",
			Rule:    "json",
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}}}
	}
	return decodeFields(fields, reflect.ValueOf(input).Elem(), ""), nil
}

// decodeFields fills the fields of the struct v from their raw JSON values.
// Pointers to structs are decoded recursively; a field that fails to decode
// is left at its zero value.
func decodeFields(fields map[string]json.RawMessage, v reflect.Value, prefix string) []FieldError {
	var errs []FieldError
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := jsonName(sf)
		raw, ok := fields[name]
		if name == "" || !ok {
			continue
		}
		path := prefix + name
		fv := v.Field(i)

		if sf.Type.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.Struct {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(raw, &nested); err != nil {
				errs = append(errs, typeError(path, "object", err))
				continue
			}
			if nested == nil {
				continue
			}
			fv.Set(reflect.New(sf.Type.Elem()))
			errs = append(errs, decodeFields(nested, fv.Elem(), path+".")...)
			continue
		}

		if err := json.Unmarshal(raw, fv.Addr().Interface()); err != nil {
			fv.Set(reflect.Zero(sf.Type))
			errs = append(errs, typeError(path, "", err))
		}
	}
	return errs
}

// typeError reports a value at path that does not fit its field. want
// overrides the expected type derived from err.
func typeError(path, want string, err error) FieldError {
	got := "invalid value"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		got = typeErr.Value
		if want == "" {
			want = typeName(typeErr.Type)
		}
	}
	if want == "" {
		want = "unknown"
	}
	return FieldError{
		Field:   path,
		Rule:    "type",
		Message: fmt.Sprintf("%s must be of type %s, got %s", path, want, got),
	}
}

func jsonName(sf reflect.StructField) string {
	name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Int32:
		return "integer"
	case reflect.Float64, reflect.Float32:
		return "number"
	case reflect.Slice:
		return "array"
	case reflect.Struct:
		return "object"
	}
	return t.String()
}
