package utils

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrorRecordNotFound      = errors.New("record not found")
	ErrInvoiceNumberConflict = errors.New("invoice number already used in this organization")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrOrganizationRequired  = errors.New("organization id is required")
	ErrOrganizationBusy      = errors.New("could not obtain lock for organization, try again")
)

// FieldError is one field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found in one input.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError returns nil for an empty list so callers can return it directly.
func NewValidationError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func FieldValidationError(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError means the record does not exist within the caller's organization.
type NotFoundError struct {
	Resource string
	Key      any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrorRecordNotFound
}

// ProtectedReferenceError blocks deleting a record that ledger history points at.
type ProtectedReferenceError struct {
	Resource     string
	Key          any
	ReferencedBy []string
}

func (e *ProtectedReferenceError) Error() string {
	return fmt.Sprintf("%s %v cannot be deleted: referenced by %s", e.Resource, e.Key, strings.Join(e.ReferencedBy, ", "))
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}

func IsProtectedReference(err error) bool {
	var p *ProtectedReferenceError
	return errors.As(err, &p)
}
