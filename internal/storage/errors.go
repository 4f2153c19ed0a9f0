package storage

import "fmt"

// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.
const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
	codeNotFound = "not_found"
)

// StorageError represents a storage-specific error with a code and message.
type StorageError struct {
	Code    string
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *StorageError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *StorageError) ErrorMessage() string {
	return e.Message
}

func newStorageError(code, message string) *StorageError {
	return &StorageError{Code: code, Message: message}
}

var (
	// ErrNotFound is returned by Load when no document exists.
	ErrNotFound = newStorageError(codeNotFound, "state not found")

	// ErrInvalidSessionID is returned for session IDs outside [A-Za-z0-9_-].
	ErrInvalidSessionID = newStorageError(codeInvalid, "invalid session id")

	// ErrInvalidKey is returned for document keys outside [A-Za-z0-9_-].
	ErrInvalidKey = newStorageError(codeInvalid, "invalid state key")

	// ErrR2AccountIDRequired is returned when R2 account ID is missing.
	ErrR2AccountIDRequired = newStorageError(codeInvalid, "R2 account ID is required")

	// ErrR2CredentialsRequired is returned when R2 credentials are missing.
	ErrR2CredentialsRequired = newStorageError(codeInvalid, "R2 credentials are required")

	// ErrR2BucketRequired is returned when R2 bucket name is missing.
	ErrR2BucketRequired = newStorageError(codeInvalid, "R2 bucket name is required")
)

// ErrUnknownBackend creates an error for unknown state backends.
func ErrUnknownBackend(backend string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown state backend: %s", backend),
	}
}

// ErrBackend wraps an I/O failure from a backend.
func ErrBackend(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", newStorageError(codeInternal, "state backend failure"), op, err)
}
