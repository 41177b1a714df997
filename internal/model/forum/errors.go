package forum

import "errors"

// Kind classifies a user-visible failure.
type Kind int

const (
	// KindValidation is bad input caught before any request is sent.
	KindValidation Kind = iota + 1
	// KindTransport means the request could not be sent or completed.
	KindTransport
	// KindServer is a non-success response from the backend.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Messages shown to the user when nothing more specific is available.
const (
	MsgNetworkError       = "Network error."
	MsgBlankQuestion      = "Question cannot be blank."
	MsgBlankReply         = "Reply cannot be blank."
	MsgLoadFailed         = "Failed to load questions."
	MsgSubmitFailed       = "Failed to submit question."
	MsgReplyFailed        = "Failed to submit reply."
	MsgStatusFailed       = "Failed to update status."
	MsgConnectionLost     = "Connection lost. Please refresh the page."
	MsgUnreadableResponse = "Error processing response."
)

// Error is a failure carrying the text that goes into the error slot.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation failure.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Transport wraps a network failure.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: MsgNetworkError, Err: err}
}

// Server builds a backend rejection with the response text.
func Server(msg string) *Error {
	return &Error{Kind: KindServer, Message: msg}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error, fallback string) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return fallback
}
