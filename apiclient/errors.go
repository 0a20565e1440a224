package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork: no response reached the client.
	KindNetwork
	// KindAuth: 401 from a business endpoint that could not be recovered by a refresh.
	KindAuth
	// KindRefresh: the refresh endpoint itself rejected the refresh token.
	KindRefresh
	KindForbidden
	KindNotFound
	KindServer
	// KindValidation: any other 4xx.
	KindValidation
)

const (
	networkErrorMessage = "Network error"
	genericErrorMessage = "Something went wrong. Please try again."
)

// Sentinels matched by (*Error).Is, one per Kind.
var (
	ErrNetwork       = errors.New("network error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRefreshFailed = errors.New("token refresh failed")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrServer        = errors.New("server error")
	ErrValidation    = errors.New("validation error")
)

var kindSentinels = map[Kind]error{
	KindNetwork:    ErrNetwork,
	KindAuth:       ErrUnauthorized,
	KindRefresh:    ErrRefreshFailed,
	KindForbidden:  ErrForbidden,
	KindNotFound:   ErrNotFound,
	KindServer:     ErrServer,
	KindValidation: ErrValidation,
}

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindRefresh:
		return "refresh"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is returned for every failed request. Message holds the server's "message"
// field when it sent one, otherwise a generic text.
type Error struct {
	Kind          Kind
	Status        int
	Message       string
	ServerMessage bool
	Method        string
	Path          string
	Err           error
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

func newNetworkError(method, path string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: networkErrorMessage,
		Method:  method,
		Path:    path,
		Err:     err,
	}
}

func newStatusError(method, path string, status int, payload []byte) *Error {
	e := &Error{
		Kind:    classify(status),
		Status:  status,
		Message: genericErrorMessage,
		Method:  method,
		Path:    path,
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(payload, &body) == nil && body.Message != "" {
		e.Message = body.Message
		e.ServerMessage = true
	}
	return e
}

// newSessionEndedError reports a refresh whose session was cleared or replaced while it ran.
func newSessionEndedError(path string) *Error {
	return &Error{
		Kind:    KindRefresh,
		Status:  http.StatusUnauthorized,
		Message: "session ended",
		Method:  http.MethodPost,
		Path:    path,
	}
}
