// Package xcmperr defines the error taxonomy shared by the xcmp, xnl
// and client packages (spec section 7 of the protocol notes).
package xcmperr

import "fmt"

// Kind identifies one of the fixed error categories the stack reports.
type Kind string

const (
	FramingError        Kind = "framing-error"
	UnexpectedReplyType Kind = "unexpected-reply-type"
	OpcodeMismatch      Kind = "opcode-mismatch"
	ResultFailure       Kind = "result-failure"
	AuthFailure         Kind = "auth-failure"
	AckMismatch         Kind = "ack-mismatch"
	EncodingError       Kind = "encoding-error"
	UnsupportedWidth    Kind = "unsupported-width"
	Timeout             Kind = "timeout"
	NotConnected        Kind = "not-connected"
	TransportError      Kind = "transport-error"
)

// Error is the concrete error type returned by every operation in the
// stack. Callers compare kinds with errors.Is against the Err* sentinels
// below rather than string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Result  byte // populated only when Kind == ResultFailure
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, xcmperr.ErrTimeout) match on Kind alone,
// ignoring Message/Err/Result.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithResult builds a ResultFailure error carrying the device's
// enumerated result code.
func WithResult(result byte, format string, args ...any) *Error {
	return &Error{Kind: ResultFailure, Message: fmt.Sprintf(format, args...), Result: result}
}

// Sentinels for errors.Is comparisons against a specific kind.
var (
	ErrFramingError        = &Error{Kind: FramingError}
	ErrUnexpectedReplyType = &Error{Kind: UnexpectedReplyType}
	ErrOpcodeMismatch      = &Error{Kind: OpcodeMismatch}
	ErrResultFailure       = &Error{Kind: ResultFailure}
	ErrAuthFailure         = &Error{Kind: AuthFailure}
	ErrAckMismatch         = &Error{Kind: AckMismatch}
	ErrEncodingError       = &Error{Kind: EncodingError}
	ErrUnsupportedWidth    = &Error{Kind: UnsupportedWidth}
	ErrTimeout             = &Error{Kind: Timeout}
	ErrNotConnected        = &Error{Kind: NotConnected}
	ErrTransportError      = &Error{Kind: TransportError}
)
