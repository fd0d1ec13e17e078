package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// APIError is a non-2xx answer from an upstream API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// asAPIError converts SDK errors carrying an HTTP status into APIError.
// Transport failures pass through unchanged.
func asAPIError(err error) error {
	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return err
	}

	message := sdkErr.Message
	if message == "" {
		message = http.StatusText(sdkErr.StatusCode)
	}
	return &APIError{StatusCode: sdkErr.StatusCode, Message: message}
}

// ollamaAPIError converts Ollama status errors into APIError. Other errors
// pass through unchanged.
func ollamaAPIError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		message := statusErr.ErrorMessage
		if message == "" {
			message = http.StatusText(statusErr.StatusCode)
		}
		return &APIError{StatusCode: statusErr.StatusCode, Message: message}
	}

	var authErr api.AuthorizationError
	if errors.As(err, &authErr) {
		return &APIError{StatusCode: authErr.StatusCode, Message: http.StatusText(authErr.StatusCode)}
	}

	return err
}
