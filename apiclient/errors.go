package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError captures a non-2xx API response.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Raw     map[string]any
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}

	scope := "api"
	if e.Method != "" && e.Path != "" {
		scope = fmt.Sprintf("%s %s", e.Method, e.Path)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s failed: %d %s", scope, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %d %s", scope, e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status
func (e *APIError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// ServerMessage returns the message sent by the API, if any
func (e *APIError) ServerMessage() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Metadata returns a loggable description of the response
func (e *APIError) Metadata() map[string]any {
	if e == nil {
		return nil
	}
	meta := map[string]any{
		"method": e.Method,
		"path":   e.Path,
		"status": e.Status,
	}
	if e.Message != "" {
		meta["message"] = e.Message
	}
	return meta
}

// IsUnauthorized reports a 401 response
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports a 404 response
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type apiErrorBody struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

// parseAPIError reads the message out of the common error body shapes:
// {"msg"}, {"message"}, {"error"} and {"errors":[{"msg"}]}.
func parseAPIError(body []byte) (string, map[string]any) {
	if len(body) == 0 {
		return "", nil
	}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	switch {
	case strings.TrimSpace(parsed.Msg) != "":
		return strings.TrimSpace(parsed.Msg), raw
	case strings.TrimSpace(parsed.Message) != "":
		return strings.TrimSpace(parsed.Message), raw
	case strings.TrimSpace(parsed.Error) != "":
		return strings.TrimSpace(parsed.Error), raw
	}

	for _, e := range parsed.Errors {
		if msg := strings.TrimSpace(e.Msg); msg != "" {
			return msg, raw
		}
	}

	return "", raw
}
