// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// LedgerError carries the offending control numbers alongside the message so
// the UI can re-render an accurate correction screen. ControlNumbers uses the
// compact range notation ("1-3,7").
type LedgerError struct {
	Detail         string `json:"detail"`
	Code           string `json:"code"`
	ControlNumbers string `json:"control_numbers,omitempty"`
}

func NewLedger(code, msg, controlNumbers string) *LedgerError {
	return &LedgerError{Detail: msg, Code: code, ControlNumbers: controlNumbers}
}
