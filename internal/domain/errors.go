package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"

	// Material specific errors
	ErrMaterialNotFound    ErrorCode = "MATERIAL_NOT_FOUND"
	ErrNoFile              ErrorCode = "NO_FILE"
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"
	ErrSigningFailed       ErrorCode = "SIGNING_FAILED"
	ErrUnsupportedFileType ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge        ErrorCode = "FILE_TOO_LARGE"

	// Catalog and quiz errors
	ErrUnitNotFound        ErrorCode = "UNIT_NOT_FOUND"
	ErrQuestionSetNotFound ErrorCode = "QUESTION_SET_NOT_FOUND"
)

// ErrRecordNotFound is returned by repositories when a lookup matches no row.
var ErrRecordNotFound = errors.New("record not found")

// ErrBlobNotFound is returned by a BlobStore when the key is absent from storage.
var ErrBlobNotFound = errors.New("blob not found")

// ErrURLSigning is returned by a BlobStore when no signer could produce a download URL.
var ErrURLSigning = errors.New("url signing failed")

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"detail"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}{
		Code:   string(e.Code),
		Detail: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(ErrUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(ErrForbidden, message, nil)
}

func NewMaterialNotFoundError(materialID int64) *DomainError {
	return NewError(ErrMaterialNotFound, "Material not found.", fmt.Errorf("material id %d", materialID))
}

func NewNoFileError() *DomainError {
	return NewError(ErrNoFile, "Material has no file attached.", nil)
}

func NewFileNotFoundError(key string) *DomainError {
	return NewError(ErrFileNotFound, "File not found in storage.", fmt.Errorf("%w: %s", ErrBlobNotFound, key))
}

func NewSigningFailedError(err error) *DomainError {
	return NewError(ErrSigningFailed, "Could not generate download link.", err)
}

func NewUnsupportedFileTypeError(allowed []string) *DomainError {
	return NewError(ErrUnsupportedFileType, fmt.Sprintf("Only %s files are allowed.", strings.Join(allowed, ", ")), nil)
}

func NewFileTooLargeError(maxBytes int64) *DomainError {
	return NewError(ErrFileTooLarge, fmt.Sprintf("Max size %dMB.", maxBytes/(1024*1024)), nil)
}

func NewUnitNotFoundError(unitID int64) *DomainError {
	return NewError(ErrUnitNotFound, fmt.Sprintf("Unit %d does not exist.", unitID), nil)
}

func NewQuestionSetNotFoundError(questionSetID int64) *DomainError {
	return NewError(ErrQuestionSetNotFound, "Question set not found.", fmt.Errorf("question set id %d", questionSetID))
}
