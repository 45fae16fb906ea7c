// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

// RequestIDHeader is echoed back so client logs can be correlated.
const RequestIDHeader = "X-Request-ID"
