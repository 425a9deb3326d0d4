package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AuthKind distinguishes the ways an authenticated call can fail.
type AuthKind int

const (
	KindNoRefreshToken AuthKind = iota + 1
	KindRefreshRejected
	KindSessionExpired
	KindUnauthorized
)

func (k AuthKind) String() string {
	switch k {
	case KindNoRefreshToken:
		return "no refresh token"
	case KindRefreshRejected:
		return "refresh rejected"
	case KindSessionExpired:
		return "session expired"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "auth error"
	}
}

// AuthError is matched by kind: errors.Is(err, ErrSessionExpired) holds for
// any *AuthError of kind KindSessionExpired, whatever its cause.
type AuthError struct {
	Kind  AuthKind
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error { return e.Cause }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoRefreshToken  = &AuthError{Kind: KindNoRefreshToken}
	ErrRefreshRejected = &AuthError{Kind: KindRefreshRejected}
	ErrSessionExpired  = &AuthError{Kind: KindSessionExpired}
	ErrUnauthorized    = &AuthError{Kind: KindUnauthorized}
)

// SessionExpired wraps the refresh failure that ended the session.
func SessionExpired(cause error) error {
	return &AuthError{Kind: KindSessionExpired, Cause: cause}
}

// RefreshRejected records the status the refresh endpoint answered with.
func RefreshRejected(status int, msg string) error {
	if msg == "" {
		return &AuthError{Kind: KindRefreshRejected, Cause: fmt.Errorf("http %d", status)}
	}
	return &AuthError{Kind: KindRefreshRejected, Cause: fmt.Errorf("http %d: %s", status, msg)}
}

// NetworkError is a transport failure: the request never got an HTTP answer.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": network: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is any non-2xx answer other than the 401 handled by the client.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// System reports whether the error is worth an alert: 5xx and 429.
func (e *ServerError) System() bool {
	return e.Status >= 500 || e.Status == 429
}

// FromResponse builds a ServerError, taking the message from the first of
// error, message or detail found in a JSON body.
func FromResponse(status int, body []byte) *ServerError {
	se := &ServerError{Status: status}
	var m map[string]any
	if len(body) == 0 || json.Unmarshal(body, &m) != nil {
		return se
	}
	for _, k := range []string{"error", "message", "detail"} {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case string:
				se.Message = t
			default:
				b, _ := json.Marshal(t)
				se.Message = string(b)
			}
			return se
		}
	}
	return se
}

type FieldError struct {
	Field string
	Error string
}

// ValidationError blocks a submission before anything goes on the wire.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(flds ...FieldError) error {
	return &ValidationError{Fields: flds}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsSystem is true for errors that should reach Sentry.
func IsSystem(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.System()
	}
	return false
}

// UserMessage is the banner text shown in place of content.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrNoRefreshToken):
		return "Session expired. Please log in again."
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized access. Please log in again."
	case errors.As(err, &ve):
		return ve.Error()
	}
	var se *ServerError
	if errors.As(err, &se) {
		switch {
		case strings.Contains(se.Message, "Parent profile not found"):
			return "No parent profile associated with your account. Please contact support."
		case strings.Contains(se.Message, "No students"):
			return "No students linked to your account."
		}
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return "Network request failed. Check your connection or server."
	}
	return "Failed to load data. Please try again."
}
