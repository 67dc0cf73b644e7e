package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a failure before it reaches the HTTP boundary.
type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindAlreadyExists    Kind = "already_exists"
	KindUnauthenticated  Kind = "unauthenticated"
	KindPermissionDenied Kind = "permission_denied"
	KindNotFound         Kind = "not_found"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike.
	ErrInvalidCredentials = New(KindUnauthenticated, "invalid email or password")
	// ErrTokenRequired is returned when the Authorization header is missing or not a bearer token.
	ErrTokenRequired = New(KindUnauthenticated, "authorization token required")
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = New(KindUnauthenticated, "invalid or expired token")
	// ErrUserAlreadyExists is returned when registering an email that is taken.
	ErrUserAlreadyExists = New(KindAlreadyExists, "email already registered")
	// ErrUserNotFound is returned when the authenticated user no longer exists.
	ErrUserNotFound = New(KindNotFound, "user not found")
	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = New(KindNotFound, "task not found")
	// ErrTaskForbidden is returned when a task belongs to another user.
	ErrTaskForbidden = New(KindPermissionDenied, "task belongs to another user")
	// ErrRateLimited is returned when a client exceeds the request budget.
	ErrRateLimited = New(KindRateLimited, "rate limit exceeded")
)

// Error is a classified failure. Message is safe to show to callers; Err is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err, keeping it as the internal cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidArgument reports bad caller input.
func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, message)
}

// Internal reports a storage or codec failure the caller did not cause.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// StatusCode returns the HTTP status for a kind.
func StatusCode(kind Kind) int {
	switch kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. The internal cause never
// appears in the result.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
	}
	return NewHTTPError(StatusCode(e.Kind), e.Message, string(e.Kind))
}

// ToEchoError converts err into an echo error carrying an ErrorResponse body.
func ToEchoError(err error) *echo.HTTPError {
	httpErr := MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// FromEcho renders an error raised by echo itself (routing, binding, middleware)
// in the same shape as domain errors.
func FromEcho(he *echo.HTTPError) *HTTPError {
	if resp, ok := he.Message.(ErrorResponse); ok {
		return NewHTTPError(he.Code, resp.Error, resp.Code)
	}
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	}
	var kind Kind
	switch he.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		kind = KindInvalidArgument
	case http.StatusUnauthorized:
		kind = KindUnauthenticated
	case http.StatusForbidden:
		kind = KindPermissionDenied
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusMethodNotAllowed:
		kind = KindMethodNotAllowed
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", string(KindInternal))
	}
	return NewHTTPError(he.Code, message, string(kind))
}
