// File: internal/domain/errors.go
package domain

import "fmt"

type ErrorType string

const (
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeForbidden         ErrorType = "FORBIDDEN"
	ErrTypeImportFormat      ErrorType = "IMPORT_FORMAT"
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeValidation        ErrorType = "VALIDATION"
)

// NoteError is the error taxonomy shared by the store and both services.
type NoteError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    uint
	MessageID uint
	Cause     error
}

func (e *NoteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *NoteError) Unwrap() error { return e.Cause }

// Is matches any NoteError of the same type, so errors.Is(err, ErrNotFound) works
// regardless of the operation that produced it.
func (e *NoteError) Is(target error) bool {
	t, ok := target.(*NoteError)
	return ok && t.Type == e.Type
}

var (
	ErrNotFound          = &NoteError{Type: ErrTypeNotFound, Message: "not found"}
	ErrForbidden         = &NoteError{Type: ErrTypeForbidden, Message: "forbidden"}
	ErrImportFormat      = &NoteError{Type: ErrTypeImportFormat, Message: "invalid import payload"}
	ErrUnsupportedFormat = &NoteError{Type: ErrTypeUnsupportedFormat, Message: "unsupported format"}
	ErrValidation        = &NoteError{Type: ErrTypeValidation, Message: "validation failed"}
)

func NewNotFoundError(operation, msg string) *NoteError {
	return &NoteError{Type: ErrTypeNotFound, Operation: operation, Message: msg}
}

func NewChatNotFoundError(operation string, chatID uint) *NoteError {
	return &NoteError{Type: ErrTypeNotFound, Operation: operation, Message: "chat not found", ChatID: chatID}
}

func NewMessageNotFoundError(operation string, chatID, messageID uint) *NoteError {
	return &NoteError{Type: ErrTypeNotFound, Operation: operation, Message: "message not found", ChatID: chatID, MessageID: messageID}
}

// NewSystemChatError rejects a mutation of a read-only system chat.
func NewSystemChatError(operation string, chatID uint) *NoteError {
	return &NoteError{Type: ErrTypeForbidden, Operation: operation, Message: "system chats are read-only", ChatID: chatID}
}

func NewImportFormatError(operation, msg string, cause error) *NoteError {
	return &NoteError{Type: ErrTypeImportFormat, Operation: operation, Message: msg, Cause: cause}
}

func NewUnsupportedFormatError(operation, format string) *NoteError {
	return &NoteError{Type: ErrTypeUnsupportedFormat, Operation: operation, Message: fmt.Sprintf("unsupported format %q", format)}
}

func NewValidationError(operation, msg string) *NoteError {
	return &NoteError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}
