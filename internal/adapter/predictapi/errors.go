package predictapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the prediction API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// readAPIError builds an APIError from resp. The message is the JSON body's
// "detail" or "message" field when present, otherwise a generic status line.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("API Error: %s (%d)", http.StatusText(resp.StatusCode), resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return apiErr
	}
	if msg := messageFrom(payload.Detail); msg != "" {
		apiErr.Message = msg
	} else if msg := messageFrom(payload.Message); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}

// messageFrom renders a detail/message field. Strings are returned as-is;
// structured values (such as validation error lists) are compacted JSON.
// Empty, null and false values yield "".
func messageFrom(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch string(raw) {
	case "null", "false", `""`, "0":
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) != nil {
		return ""
	}
	return buf.String()
}
