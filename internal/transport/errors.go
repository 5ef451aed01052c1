package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ssc/internal/cli"
)

// ErrNetwork tags an error as a connectivity failure. Any error that wraps it
// is retried like a request that got no response.
var ErrNetwork = errors.New("network error")

// NoResponseError means the request was sent but no response was received.
type NoResponseError struct {
	Method     string
	URL        string
	Connection *cli.ConnectionError
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("%s %s: no response: %v", e.Method, e.URL, e.Connection)
}

// Unwrap exposes the classified connection failure.
func (e *NoResponseError) Unwrap() error {
	return e.Connection
}

// Is makes every NoResponseError match ErrNetwork.
func (e *NoResponseError) Is(target error) bool {
	return target == ErrNetwork
}

// ResponseError means the server answered with an error status.
type ResponseError struct {
	Method   string
	URL      string
	Response *Response
}

func (e *ResponseError) Error() string {
	if field := e.ErrorField(); field != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Response.Status, field)
	}
	return fmt.Sprintf("%s %s: status %d %s", e.Method, e.URL, e.Response.Status, http.StatusText(e.Response.Status))
}

// StatusCode returns the HTTP status of the response.
func (e *ResponseError) StatusCode() int {
	return e.Response.Status
}

// ErrorField returns the "error" member of a JSON error body, or "" when the
// body has none.
func (e *ResponseError) ErrorField() string {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(e.Response.Body, &body); err != nil {
		return ""
	}
	return body.Error
}

// StatusOf returns the status of a wrapped ResponseError, or 0.
func StatusOf(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode()
	}
	return 0
}
