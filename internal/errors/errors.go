package errors

import "fmt"

// ErrorCode represents a Mira hook error code.
type ErrorCode string

const (
	ErrParse             ErrorCode = "PARSE_ERROR"        // malformed transcript line (non-fatal)
	ErrTranscriptMissing ErrorCode = "TRANSCRIPT_MISSING" // transcript file absent (non-fatal)
	ErrNetwork           ErrorCode = "NETWORK_ERROR"      // endpoint unreachable or timed out
	ErrProtocol          ErrorCode = "PROTOCOL_ERROR"     // malformed/missing SSE or JSON-RPC payload
	ErrStorage           ErrorCode = "STORAGE_ERROR"      // local SQLite write failure
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // bad CLI/hook input
	ErrInternal          ErrorCode = "INTERNAL"           // unexpected failure
)

// MiraError represents a structured error with a code and optional details.
type MiraError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MiraError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewTranscriptMissing creates an error for an absent transcript file.
func NewTranscriptMissing(path string) *MiraError {
	return &MiraError{
		Code:    ErrTranscriptMissing,
		Message: fmt.Sprintf("transcript not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNetwork creates an error for an unreachable or timed-out endpoint.
func NewNetwork(step string, err error) *MiraError {
	return &MiraError{
		Code:    ErrNetwork,
		Message: fmt.Sprintf("%s: %v", step, err),
		Details: map[string]any{"step": step},
	}
}

// NewProtocol creates an error for a malformed response from an endpoint
// that was reachable (missing data frame, JSON-RPC error, bad payload).
func NewProtocol(step, msg string) *MiraError {
	return &MiraError{
		Code:    ErrProtocol,
		Message: fmt.Sprintf("%s: %s", step, msg),
		Details: map[string]any{"step": step},
	}
}

// NewStorage creates an error for a failed local store transaction.
func NewStorage(err error) *MiraError {
	return &MiraError{
		Code:    ErrStorage,
		Message: err.Error(),
	}
}

// NewInvalidRequest creates an error for invalid hook or CLI input.
func NewInvalidRequest(msg string) *MiraError {
	return &MiraError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *MiraError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MiraError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a MiraError with the given code.
func Is(err error, code ErrorCode) bool {
	if mErr, ok := err.(*MiraError); ok {
		return mErr.Code == code
	}
	return false
}
