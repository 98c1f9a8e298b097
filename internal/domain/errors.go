package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error kinds surfaced by the equity core.
// Callers match them with errors.Is; the typed errors below carry the context.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBusinessRule = errors.New("business rule violation")
	ErrValidation   = errors.New("validation failed")
)

// NotFoundError reports a missing (or cross-tenant) entity
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError for an entity identified by a UUID
func NewNotFoundError(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// ConflictError reports a uniqueness violation on create/update
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(entity, field, value string) *ConflictError {
	return &ConflictError{Entity: entity, Field: field, Value: value}
}

// BusinessRuleError reports an operation that is well-formed but not allowed
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Is(target error) bool {
	return target == ErrBusinessRule
}

// NewBusinessRuleError creates a new BusinessRuleError
func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// InsufficientBalanceError is the BusinessRuleViolation raised when a transfer
// or cancellation asks for more shares than the holder owns in a class.
type InsufficientBalanceError struct {
	ShareholderID uuid.UUID
	ShareClassID  uuid.UUID
	Available     decimal.Decimal
	Requested     decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for shareholder %s in share class %s: available %s, requested %s",
		e.ShareholderID, e.ShareClassID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrBusinessRule
}

// ValidationError reports a malformed input value
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
