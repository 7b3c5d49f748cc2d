package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Headers maps canonical header names to a single value. Decoding walks the
// JSON object in document order, so a later key that differs only in case
// replaces the earlier one.
type Headers map[string]string

// UnmarshalJSON implements json.Unmarshaler for Headers
func (h *Headers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("headers: %w", err)
	}
	if tok == nil {
		*h = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("headers must be a JSON object")
	}

	out := make(Headers)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("header %q must be a string: %w", key, err)
		}
		out[http.CanonicalHeaderKey(key)] = value
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("headers: %w", err)
	}

	*h = out
	return nil
}

// RequestSpec describes one outbound HTTP call. It is treated as immutable
// once handed to the relay or a probe run.
type RequestSpec struct {
	Method  string          `json:"method"`
	URL     string          `json:"url"`
	Headers Headers         `json:"headers,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// HasBody reports whether the spec carries a JSON body. A literal null counts
// as no body.
func (s RequestSpec) HasBody() bool {
	trimmed := bytes.TrimSpace(s.Body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// FailureKind classifies why a call produced no usable response
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureConnect         FailureKind = "connect_error"
	FailureTLS             FailureKind = "tls_error"
	FailureInvalidResponse FailureKind = "invalid_response"
)

// Failure describes a call that did not yield a response
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Result is the outcome of a single relayed call. Exactly one of a response
// (StatusCode, Header, Body) or Failure is set.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
	Failure    *Failure
}

// OK reports whether a response was received
func (r Result) OK() bool {
	return r.Failure == nil
}

// LatencyMs returns the latency in whole milliseconds
func (r Result) LatencyMs() int64 {
	return r.Latency.Milliseconds()
}

// FlatHeaders joins multi-value response headers with ", ".
func (r Result) FlatHeaders() map[string]string {
	out := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		out[name] = strings.Join(values, ", ")
	}
	return out
}
