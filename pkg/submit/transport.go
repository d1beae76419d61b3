package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a verdict body is read.
const maxResponseBytes = 1 << 20

// Verdict is the intake endpoint's answer.
type Verdict struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Transport delivers one attempt. Implementations classify failures as
// *TransientError or *TerminalError; any other error is treated as
// transient.
type Transport interface {
	Send(ctx context.Context, payload Payload) (Verdict, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, payload Payload) (Verdict, error)

// Send implements Transport.
func (fn TransportFunc) Send(ctx context.Context, payload Payload) (Verdict, error) {
	return fn(ctx, payload)
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout bounds each attempt. Zero leaves the client unbounded.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		t.timeout = d
	}
}

// WithHeader adds a static request header.
func WithHeader(name, value string) TransportOption {
	return func(t *HTTPTransport) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if t.headers == nil {
			t.headers = make(http.Header)
		}
		t.headers.Set(name, value)
	}
}

// HTTPTransport posts payloads as JSON.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	headers  http.Header
}

// NewHTTPTransport validates endpoint and builds a transport.
func NewHTTPTransport(endpoint string, opts ...TransportOption) (*HTTPTransport, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("submit: invalid endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("submit: endpoint must be an absolute http(s) URL, got %q", endpoint)
	}
	t := &HTTPTransport{endpoint: endpoint, client: http.DefaultClient}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Endpoint returns the target URL.
func (t *HTTPTransport) Endpoint() string { return t.endpoint }

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, payload Payload) (Verdict, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Verdict{}, &TerminalError{Message: "encode payload", Err: err}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, &TerminalError{Message: "build request", Err: err}
	}
	for name, values := range t.headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if payload.SubmissionID != "" {
		req.Header.Set("Idempotency-Key", payload.SubmissionID)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Verdict{}, &TransientError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Verdict{}, &TransientError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := verdictMessage(raw)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if retryableStatus(resp.StatusCode) {
			return Verdict{}, &TransientError{StatusCode: resp.StatusCode, Message: msg}
		}
		return Verdict{}, &TerminalError{StatusCode: resp.StatusCode, Message: msg}
	}

	return decodeVerdict(resp.StatusCode, raw)
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

type rawVerdict struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func decodeVerdict(status int, raw []byte) (Verdict, error) {
	var v rawVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return Verdict{}, &TransientError{StatusCode: status, Message: "malformed response", Err: err}
	}
	if v.Success == nil {
		return Verdict{}, &TransientError{StatusCode: status, Message: "response has no success indicator"}
	}
	if !*v.Success {
		msg := strings.TrimSpace(v.Message)
		if msg == "" {
			msg = "server reported failure"
		}
		return Verdict{}, &TransientError{StatusCode: status, Message: msg, Err: errors.New("failure verdict")}
	}
	return Verdict{Success: true, Message: strings.TrimSpace(v.Message)}, nil
}

func verdictMessage(raw []byte) string {
	var v rawVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return strings.TrimSpace(v.Message)
}
