package models

// Error codes surfaced to the caller. Every failure is fatal from the
// caller's point of view: the module either needs reconfiguration or the
// upstream service is down.
const (
	CodeInvalidPayload     = "invalid payload received"
	CodeAccessDenied       = "access denied"
	CodeTooManyRequests    = "too many requests"
	CodeServiceUnavailable = "service unavailable"
	CodeSSLVerification    = "ssl certificate verification failed"
	CodeOops               = "oops"
)

// APIError is the error object placed into the response envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message, Type: "fatal"}
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
