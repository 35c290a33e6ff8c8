package models

import (
	"errors"
	"fmt"
)

// Error categories. Every rule violation wraps exactly one of these.
var (
	// ErrConstraint marks data-level violations that must block persistence.
	ErrConstraint = errors.New("constraint violation")
	// ErrBusinessRule marks operation-level violations that abort an action
	// and leave the prior state unchanged.
	ErrBusinessRule = errors.New("business rule violation")
)

// ConstraintError is a data-level validation failure.
type ConstraintError struct {
	Field   string
	Message string
}

func (e *ConstraintError) Error() string {
	return e.Message
}

// Is lets callers match with errors.Is(err, ErrConstraint).
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

// BusinessRuleError is a failed precondition of a domain action.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// Is lets callers match with errors.Is(err, ErrBusinessRule).
func (e *BusinessRuleError) Is(target error) bool {
	return target == ErrBusinessRule
}

func constraintf(field, format string, args ...interface{}) error {
	return &ConstraintError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func businessRule(msg string) error {
	return &BusinessRuleError{Message: msg}
}
