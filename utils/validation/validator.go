package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

var (
	shared     *Validator
	sharedOnce sync.Once
)

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// Default returns a process-wide validator; struct metadata is cached per
// instance, so sharing one avoids re-parsing tags.
func Default() *Validator {
	sharedOnce.Do(func() {
		shared = NewValidator()
	})
	return shared
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// Check validates s and folds any failures into a single readable error.
func (v *Validator) Check(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	msgs := FormatValidationErrors(err)
	if len(msgs) == 0 {
		return err
	}
	fields := make([]string, 0, len(msgs))
	for f := range msgs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, msgs[f])
	}
	return errors.New(strings.Join(parts, "; "))
}

// RowError describes a row rejected by Filter.
type RowError struct {
	Index int
	Err   error
}

// Filter splits rows into those passing struct validation and the
// rejections, preserving order.
func Filter[T any](v *Validator, rows []T) ([]T, []RowError) {
	valid := make([]T, 0, len(rows))
	var rejected []RowError
	for i := range rows {
		if err := v.Check(&rows[i]); err != nil {
			rejected = append(rejected, RowError{Index: i, Err: err})
			continue
		}
		valid = append(valid, rows[i])
	}
	return valid, rejected
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errs[field] = fmt.Sprintf("%s is required", e.Field())
			case "url":
				errs[field] = fmt.Sprintf("%s must be a valid URL", e.Field())
			case "min":
				errs[field] = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
			case "max":
				errs[field] = fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
			case "gte":
				errs[field] = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
			case "lte":
				errs[field] = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
			case "oneof":
				errs[field] = fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
			default:
				errs[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errs
}
