package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized is wrapped into errors for 401/403 responses so callers
// can branch on authentication failure without inspecting status codes.
var ErrUnauthorized = errors.New("not authenticated")

// Error is a normalized backend error response. Message carries the
// server-provided text when one was found (error, detail, message, or
// non_field_errors), falling back to the HTTP status. Fields holds
// field-level validation errors keyed by field name.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", e.Status)
	}
	if len(e.Fields) == 0 {
		return msg
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// newError builds an *Error from a non-2xx response, consuming the body.
func newError(resp *http.Response) error {
	defer resp.Body.Close()

	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		apiErr.Message = resp.Status
		return apiErr
	}

	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) != nil {
		// Non-JSON error body: surface the text, or the status line.
		apiErr.Message = "server error: " + firstLine(body, resp.Status)
		return apiErr
	}

	for _, key := range []string{"error", "detail", "message"} {
		if raw, ok := payload[key]; ok {
			apiErr.Message = rawToString(raw)
			delete(payload, key)
			break
		}
	}

	if raw, ok := payload["non_field_errors"]; ok {
		if s := rawToString(raw); s != "" {
			apiErr.Message = s
		}
		delete(payload, "non_field_errors")
	}

	// Whatever remains is treated as field-level validation errors.
	for field, raw := range payload {
		if s := rawToString(raw); s != "" {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string]string)
			}
			apiErr.Fields[field] = s
		}
	}

	if apiErr.Message == "" && len(apiErr.Fields) == 0 {
		apiErr.Message = resp.Status
	}
	return apiErr
}

// rawToString renders a JSON fragment as display text: strings verbatim,
// arrays joined with commas, everything else compacted JSON.
func rawToString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if p := rawToString(item); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	}

	return strings.TrimSpace(string(raw))
}
