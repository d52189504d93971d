package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/sony/gobreaker/v2"
)

// ErrUnauthenticated marks a 401: the stored credential is missing or no
// longer accepted.
var ErrUnauthenticated = errors.New("not authenticated")

// Error is the structured failure surfaced by the backend. Callers branch
// on Code / Transient, never on message text.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ErrorCode exposes the backend business-rule code (e.g. PROFILE_INCOMPLETE).
func (e *Error) ErrorCode() string { return e.Code }

// Transient reports whether a retry may succeed.
func (e *Error) Transient() bool { return e.Status >= 500 }

// IsCode reports whether err carries the given business-rule code.
func IsCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsTransient classifies network failures, 5xx responses and an open
// circuit breaker as retryable.
func IsTransient(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// newAPIError decodes the backend's error body. The shape varies between
// {code, message}, {error} and plain text; all collapse to one type here.
func newAPIError(status int, body []byte) *Error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		msg := payload.Message
		if msg == "" {
			msg = payload.Err
		}
		if msg != "" || payload.Code != "" {
			return &Error{Status: status, Code: payload.Code, Message: msg}
		}
	}
	return &Error{Status: status, Message: string(body)}
}
