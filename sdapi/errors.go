package sdapi

import "fmt"

// ErrorKind classifies a failed backend call. Downstream code switches on
// the kind and never inspects transport-specific fields.
type ErrorKind string

const (
	// KindBackendMessage: the backend returned a structured error body;
	// its message is surfaced verbatim.
	KindBackendMessage ErrorKind = "backend_message"

	// KindUnauthorized: the backend answered HTTP 402.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindBackendStatus: any other non-2xx HTTP status.
	KindBackendStatus ErrorKind = "backend_status"

	// KindTimeout: the connection or read timed out.
	KindTimeout ErrorKind = "timeout"

	// KindTransport: a network-layer failure other than a timeout.
	KindTransport ErrorKind = "transport"

	// KindUnknown: anything uncategorized.
	KindUnknown ErrorKind = "unknown"
)

// localeKeys maps each kind to the message key used at the command boundary.
var localeKeys = map[ErrorKind]string{
	KindBackendMessage: "backend-message",
	KindUnauthorized:   "unauthorized",
	KindBackendStatus:  "backend-status",
	KindTimeout:        "request-timeout",
	KindTransport:      "request-failed",
	KindUnknown:        "unknown-error",
}

// Error is the classified outcome of a failed backend call.
type Error struct {
	// Kind is the classification; always set.
	Kind ErrorKind

	// Status is the HTTP status code for KindBackendStatus and
	// KindUnauthorized; zero otherwise.
	Status int

	// Message is the backend's verbatim message for KindBackendMessage.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("sdapi: %s: %s", e.Kind, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("sdapi: %s: status %d", e.Kind, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("sdapi: %s: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("sdapi: %s", e.Kind)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// LocaleKey returns the message key for the command boundary.
func (e *Error) LocaleKey() string {
	if key, ok := localeKeys[e.Kind]; ok {
		return key
	}
	return localeKeys[KindUnknown]
}

func newError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}
