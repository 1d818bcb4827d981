package common

import "fmt"

// ErrorKind is the closed taxonomy of protocol-level failures. Handlers
// classify every rejection with a kind so callers can branch on it instead
// of matching message strings; the message still travels on the wire as the
// <Op>Error payload.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindUnauthenticated
	KindNotFound
	KindConflict
	KindPermissionDenied
	KindValidation
	KindIOFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation"
	case KindIOFailure:
		return "io_failure"
	default:
		return "internal"
	}
}

// ProtocolError pairs an ErrorKind with the human-readable message sent to
// the client.
type ProtocolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// Errf builds a ProtocolError with a formatted message.
func Errf(kind ErrorKind, format string, args ...any) *ProtocolError {
	return &ProtocolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
