// Package apierror classifies failed calls against the contacts backend into
// "the server answered with an error" and "no response was received".
package apierror

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
)

// ServerError is returned when the backend responded with a 4xx/5xx status.
type ServerError struct {
	StatusCode int

	// Message extracted from the response body, empty if the body carried none
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Message)
}

// MessageOr returns the server message, or fallback when the body had none.
func (e *ServerError) MessageOr(fallback string) string {
	if e.Message == "" {
		return fallback
	}
	return e.Message
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("no response received: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FromResponse builds a *ServerError from a non-2xx response.
// The body is read but not closed.
func FromResponse(resp *http.Response) *ServerError {
	body, _ := ioutil.ReadAll(resp.Body)
	return &ServerError{StatusCode: resp.StatusCode, Message: MessageFromBody(body)}
}

// MessageFromBody extracts "message" from a JSON error body. Array-valued
// messages are joined with ", ".
func MessageFromBody(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(payload.Message, &single); err == nil {
		return single
	}

	var many []string
	if err := json.Unmarshal(payload.Message, &many); err == nil {
		return strings.Join(many, ", ")
	}

	return ""
}

// IsSuccess reports whether the status code is 2xx
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
