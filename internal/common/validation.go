package common

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s=%q %s", e.Field, fmt.Sprint(e.Value), e.Message)
}

// Rule checks a single value and returns a message when it fails.
type Rule func(value any) (message string, ok bool)

// Validator collects field errors; Error folds them into one VALIDATION AppError.
type Validator struct {
	errs []FieldError
}

func NewValidator() *Validator { return &Validator{} }

// Field applies rules to value in order and records every failure.
func (v *Validator) Field(name string, value any, rules ...Rule) *Validator {
	for _, rule := range rules {
		if msg, ok := rule(value); !ok {
			v.errs = append(v.errs, FieldError{Field: name, Value: value, Message: msg})
		}
	}
	return v
}

// Check records message against name unless cond holds.
func (v *Validator) Check(name string, value any, cond bool, message string) *Validator {
	if !cond {
		v.errs = append(v.errs, FieldError{Field: name, Value: value, Message: message})
	}
	return v
}

func (v *Validator) Errors() []FieldError { return v.errs }

func (v *Validator) Error() error {
	if len(v.errs) == 0 {
		return nil
	}
	msgs := make([]string, len(v.errs))
	for i, e := range v.errs {
		msgs[i] = e.Error()
	}
	return NewAppError(CodeValidation, "invalid configuration: "+strings.Join(msgs, "; "), nil)
}

func Required(value any) (string, bool) {
	switch t := value.(type) {
	case nil:
		return "is required", false
	case string:
		return "is required", strings.TrimSpace(t) != ""
	case *string:
		return "is required", t != nil && strings.TrimSpace(*t) != ""
	}
	return "", true
}

// OneOf accepts a string equal, ignoring case, to one of allowed.
func OneOf(allowed ...string) Rule {
	return func(value any) (string, bool) {
		s, _ := value.(string)
		for _, a := range allowed {
			if strings.EqualFold(s, a) {
				return "", true
			}
		}
		return "must be one of " + strings.Join(allowed, ", "), false
	}
}

func NonNegative(value any) (string, bool) {
	var n int64
	switch t := value.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float32:
		return "must not be negative", t >= 0
	case float64:
		return "must not be negative", t >= 0
	}
	return "must not be negative", n >= 0
}

// URL accepts an empty string or an absolute http(s) URL.
func URL(value any) (string, bool) {
	s, _ := value.(string)
	if s == "" {
		return "", true
	}
	u, err := url.Parse(s)
	ok := err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
	return "must be an absolute http(s) URL", ok
}
