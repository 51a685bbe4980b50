package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionInvalid is returned when a 401 could not be recovered by the
// refresh protocol. The local credential has already been cleared by the
// time callers see this error.
var ErrSessionInvalid = errors.New("session invalid")

// Kind classifies a failed request. Network failures (no response received)
// are a distinct kind from every server-returned status class.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuth
	KindPermission
	KindValidation
	KindNotFound
	KindServer
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error carries the classification of a failed request together with
// whatever the backend put in its response envelope. Status is zero for
// network failures.
type Error struct {
	Kind    Kind
	Status  int
	Message string              // backend top-level message, if any
	Fields  map[string][]string // backend field-level validation errors
	err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("api: network failure: %v", e.err)
	case e.Message != "":
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("api: %s (%d)", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.err }

// AsError unwraps err into an *Error when the chain contains one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NewStatusError builds the error the client would produce for a response
// with the given status and envelope contents. Exported for consumers that
// fake the backend in their own tests.
func NewStatusError(status int, message string, fields map[string][]string) *Error {
	return &Error{Kind: kindForStatus(status), Status: status, Message: message, Fields: fields}
}

// NewNetworkError builds the error the client would produce when no
// response was received at all.
func NewNetworkError(err error) *Error {
	return networkError(err)
}

// kindForStatus maps a response status to its error kind. The client only
// classifies; user-facing copy is derived elsewhere.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, err: err}
}

func statusError(status int, env *Envelope) *Error {
	apiErr := &Error{Kind: kindForStatus(status), Status: status}
	if env != nil {
		if env.Message != nil {
			apiErr.Message = *env.Message
		}
		apiErr.Fields = env.Errors
	}
	return apiErr
}
