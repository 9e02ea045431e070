package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned when the billing API answers with a non-success status.
// Message holds the `message` field of the body when the API supplied one.
type APIError struct {
	Operation string
	Status    int
	Message   string
	Body      string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Operation, e.Status)
}

// UserMessage is the text shown to the user: the server message, else the raw body.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Body
}

// TransportError wraps failures that happened before any response was read.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EncodeError means the request payload could not be marshalled; nothing was sent.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s payload: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// isCreated reports the statuses the billing API uses for a successful create.
func isCreated(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}

func newAPIError(operation string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Operation: operation,
		Status:    status,
		Body:      strings.TrimSpace(string(body)),
	}
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Message) > 0 {
		var msg string
		if err := json.Unmarshal(payload.Message, &msg); err == nil {
			apiErr.Message = strings.TrimSpace(msg)
		} else if string(payload.Message) != "null" {
			apiErr.Message = string(payload.Message)
		}
	}
	return apiErr
}
