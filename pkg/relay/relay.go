package relay

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single call when the caller passes none
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBodyBytes caps how much of a response body is kept
	DefaultMaxBodyBytes = 10 << 20
)

// Relay sends single HTTP calls to arbitrary upstreams. It keeps no state
// between calls apart from the connection pool and is safe for concurrent use.
type Relay struct {
	httpClient   *http.Client
	maxBodyBytes int64
}

// Option configures a Relay
type Option func(*Relay)

// WithTransport replaces the pooled transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Relay) {
		r.httpClient.Transport = rt
	}
}

// WithMaxBodyBytes changes how much of each response body is retained.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Relay) {
		r.maxBodyBytes = n
	}
}

// New creates a relay backed by a keep-alive connection pool
func New(opts ...Option) *Relay {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     0, // probes may exceed the idle pool briefly
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   false,
	}

	r := &Relay{
		httpClient: &http.Client{
			Transport: transport,
			// The upstream's own status is what gets reported, so redirects
			// are returned as-is.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send performs one call described by spec. Every failure is returned inside
// the Result, never as a panic or error, so one bad target cannot abort a run.
func (r *Relay) Send(ctx context.Context, spec RequestSpec, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()

	req, err := newHTTPRequest(ctx, spec)
	if err != nil {
		return failed(startTime, FailureConnect, fmt.Errorf("build request: %w", err))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return failed(startTime, classify(ctx, err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodyBytes))
	if err != nil {
		kind := FailureInvalidResponse
		if ctx.Err() != nil {
			kind = FailureTimeout
		}
		return failed(startTime, kind, fmt.Errorf("read body: %w", err))
	}
	// Drain whatever exceeded the cap so the connection returns to the pool
	_, _ = io.Copy(io.Discard, resp.Body)

	return Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Latency:    time.Since(startTime),
	}
}

// newHTTPRequest builds the outbound request verbatim from spec. Only the
// caller's headers are sent; Go's default User-Agent is suppressed.
func newHTTPRequest(ctx context.Context, spec RequestSpec) (*http.Request, error) {
	var body io.Reader
	if spec.HasBody() && spec.Method != http.MethodGet && spec.Method != http.MethodHead {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		return nil, err
	}

	for name, value := range spec.Headers {
		if strings.EqualFold(name, "Host") {
			req.Host = value
			continue
		}
		req.Header.Set(name, value)
	}
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header["User-Agent"] = []string{""}
	}

	return req, nil
}

func failed(startTime time.Time, kind FailureKind, err error) Result {
	return Result{
		Latency: time.Since(startTime),
		Failure: &Failure{Kind: kind, Message: err.Error()},
	}
}

// classify maps a transport error to a failure kind
func classify(ctx context.Context, err error) FailureKind {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	if isTLSError(err) {
		return FailureTLS
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return FailureConnect
	}

	return FailureInvalidResponse
}

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
		authErr     x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &authErr),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr):
		return true
	}
	return strings.Contains(err.Error(), "tls: ")
}
