package common

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// ValidationError is one failed rule for one field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Message, fmt.Sprint(e.Value))
}

// ValidationRule returns nil when value passes.
type ValidationRule func(field string, value any) *ValidationError

// Validator collects failures across fields so a request reports all of them at once.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs every rule against value.
func (v *Validator) Field(field string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(field, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []ValidationError { return v.errors }

// Error returns a VALIDATION_ERROR AppError wrapping ErrValidation, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError("VALIDATION_ERROR", v.ErrorMessage(), ErrValidation)
}

func (v *Validator) ErrorMessage() string {
	msgs := make([]string, len(v.errors))
	for i, err := range v.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func invalid(field string, value any, msg string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: msg}
}

// Required rejects nil and blank strings.
func Required(field string, value any) *ValidationError {
	switch s := value.(type) {
	case nil:
		return invalid(field, value, "is required")
	case string:
		if strings.TrimSpace(s) == "" {
			return invalid(field, value, "is required")
		}
	case *string:
		if s == nil || strings.TrimSpace(*s) == "" {
			return invalid(field, value, "is required")
		}
	}
	return nil
}

func UUID(field string, value any) *ValidationError {
	s, ok := value.(string)
	if !ok {
		return invalid(field, value, "must be a string")
	}
	if _, err := uuid.Parse(s); err != nil {
		return invalid(field, value, "must be a valid UUID")
	}
	return nil
}

// OneOf accepts empty strings or one of allowed.
func OneOf(allowed ...string) ValidationRule {
	return func(field string, value any) *ValidationError {
		s, _ := value.(string)
		if s == "" || slices.Contains(allowed, s) {
			return nil
		}
		return invalid(field, value, "must be one of "+strings.Join(allowed, ", "))
	}
}

// Extension accepts file names whose extension is a key of allowed.
func Extension(allowed map[string]struct{}) ValidationRule {
	return func(field string, value any) *ValidationError {
		name, _ := value.(string)
		ext := constants.NormalizeExt(filepath.Ext(name))
		if _, ok := allowed[ext]; ok && ext != "" {
			return nil
		}
		return invalid(field, value, fmt.Sprintf("unsupported file type %q", ext))
	}
}

// DateLayout accepts empty strings or values that parse with layout.
func DateLayout(layout string) ValidationRule {
	return func(field string, value any) *ValidationError {
		s, _ := value.(string)
		if s = strings.TrimSpace(s); s == "" {
			return nil
		}
		if _, err := time.Parse(layout, s); err != nil {
			return invalid(field, value, "must be a date like "+layout)
		}
		return nil
	}
}
