package inventory

import (
	"fmt"
	"strings"
)

// ValidationError reports input that failed field validation.
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError is returned when an operation references an unknown id.
type NotFoundError struct {
	Kind string // "equipment" or "booking"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// CycleError is returned when a parent assignment would make an item its own
// ancestor.
type CycleError struct {
	ItemID   string
	ParentID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("equipment %q cannot be placed under %q: would create a cycle", e.ItemID, e.ParentID)
}

// ConflictError is returned when a booking asks for equipment that already has
// an active booking on the same date.
type ConflictError struct {
	Date         string
	EquipmentIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("equipment already booked on %s: %s", e.Date, strings.Join(e.EquipmentIDs, ", "))
}

// PersistenceError wraps a failed collection write. The mutation that caused
// it has already been applied in memory and is not rolled back.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
