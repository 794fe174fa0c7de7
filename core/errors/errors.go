// Package errors provides standardized error types and helpers for the playfair codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrKeyMaterial indicates the key material cannot build a cipher matrix
	ErrKeyMaterial = errors.New("invalid key material")
	// ErrEmptyInput indicates a source text without a single letter
	ErrEmptyInput = errors.New("empty input")
	// ErrLetterNotInMatrix indicates a letter outside the cipher alphabet reached the codec
	ErrLetterNotInMatrix = errors.New("letter not in cipher matrix")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "run", "file")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing error
type ParseError struct {
	Format  string // Format being parsed (e.g., "key file", "XML")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// KeyMaterialError reports key material that cannot produce a cipher matrix:
// a wrong alphabet size, duplicate letters, or a missing or foreign
// replacement/filler letter.
type KeyMaterialError struct {
	Field   string // "alphabet", "replacement", "filler", "key" or "" for the whole file
	Message string
	Err     error
}

func (e *KeyMaterialError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid key material: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid key material: %s", e.Message)
}

func (e *KeyMaterialError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrKeyMaterial
}

// Is lets a KeyMaterialError wrapping a parse failure still match ErrKeyMaterial.
func (e *KeyMaterialError) Is(target error) bool {
	return target == ErrKeyMaterial
}

// EmptyInputError reports a source that contains no letters at all.
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("no letters to process in %s", e.Path)
	}
	return "no letters to process"
}

func (e *EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}

// LetterError reports a letter that has no cell in the cipher matrix.
// Reaching it means normalization let a foreign letter through; the
// current file must be abandoned.
type LetterError struct {
	Letter byte
}

func (e *LetterError) Error() string {
	return fmt.Sprintf("letter %q not in cipher matrix", rune(e.Letter))
}

func (e *LetterError) Unwrap() error {
	return ErrLetterNotInMatrix
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewKeyMaterial creates a KeyMaterialError
func NewKeyMaterial(field, message string) *KeyMaterialError {
	return &KeyMaterialError{
		Field:   field,
		Message: message,
	}
}

// NewEmptyInput creates an EmptyInputError
func NewEmptyInput(path string) *EmptyInputError {
	return &EmptyInputError{Path: path}
}

// NewLetter creates a LetterError
func NewLetter(letter byte) *LetterError {
	return &LetterError{Letter: letter}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
