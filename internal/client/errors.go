package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// ErrMalformedError is wrapped when a non-success response carries no
// readable detail field (plain text, empty body, or JSON without detail).
var ErrMalformedError = errors.New("error response has no detail")

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Detail     string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// AsAPIError reports whether err is or wraps an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// decodeError reads the detail field from a non-success response.
//
// A string detail is returned verbatim. Any other JSON value (validation
// errors arrive as a list) is kept as its compact JSON text.
func decodeError(resp *http.Response, reqID string) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read %d response: %w", resp.StatusCode, err)
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: status %d: %s", ErrMalformedError, resp.StatusCode, snippet(body))
	}
	if len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return fmt.Errorf("%w: status %d: %s", ErrMalformedError, resp.StatusCode, snippet(body))
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		var buf bytes.Buffer
		if err := json.Compact(&buf, payload.Detail); err != nil {
			return fmt.Errorf("%w: status %d: %s", ErrMalformedError, resp.StatusCode, snippet(body))
		}
		detail = buf.String()
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Detail:     detail,
		RequestID:  reqID,
	}
}

// snippet shortens a response body for inclusion in an error message.
func snippet(body []byte) string {
	const limit = 200
	if len(body) == 0 {
		return "<empty body>"
	}
	if len(body) > limit {
		return fmt.Sprintf("%q...", body[:limit])
	}
	return fmt.Sprintf("%q", body)
}
