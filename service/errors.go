package service

import "net/http"

// ErrorKind classifies a failed recognition attempt. Every failure is
// terminal for the current attempt; nothing is retried inside the pipeline.
type ErrorKind int

const (
	KindInvalidMode ErrorKind = iota
	KindMissingInput
	KindConfiguration
	KindUpstream
	KindEmptyReply
	KindParse
	KindQuotaExceeded
)

// Error is a classified pipeline failure with a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the classification to the status surfaced to callers:
// 400 for malformed input, 429 for quota denial, 500 for everything the
// caller cannot fix by changing the request.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidMode, KindMissingInput:
		return http.StatusBadRequest
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}
