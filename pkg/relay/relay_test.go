package relay

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"apiprobe/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_SendsSpecVerbatim(t *testing.T) {
	var gotHeader http.Header
	var gotBody []byte
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	spec := RequestSpec{
		Method:  http.MethodPost,
		URL:     server.URL + "/items",
		Headers: Headers{"X-Api-Key": "secret"},
		Body:    json.RawMessage(`{"name":"widget"}`),
	}

	result := New().Send(context.Background(), spec, time.Second)

	require.True(t, result.OK(), "unexpected failure: %+v", result.Failure)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(result.Body))
	assert.Equal(t, "yes", result.FlatHeaders()["X-Upstream"])
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"name":"widget"}`, string(gotBody))
	assert.Equal(t, "secret", gotHeader.Get("X-Api-Key"))
	assert.Empty(t, gotHeader.Get("User-Agent"), "no default user agent expected")
	assert.Empty(t, gotHeader.Get("Content-Type"), "no header may be added")
}

func TestSend_GetCarriesNoBody(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	spec := RequestSpec{Method: http.MethodGet, URL: server.URL, Body: json.RawMessage(`{"a":1}`)}
	result := New().Send(context.Background(), spec, time.Second)

	require.True(t, result.OK())
	assert.Empty(t, gotBody)
}

func TestSend_RedirectIsNotFollowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	result := New().Send(context.Background(), RequestSpec{Method: http.MethodGet, URL: server.URL}, time.Second)

	require.True(t, result.OK())
	assert.Equal(t, http.StatusFound, result.StatusCode)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	result := New().Send(context.Background(), RequestSpec{Method: http.MethodGet, URL: server.URL}, 100*time.Millisecond)

	require.False(t, result.OK())
	assert.Equal(t, FailureTimeout, result.Failure.Kind)
	assert.GreaterOrEqual(t, result.Latency, 100*time.Millisecond)
}

func TestSend_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	result := New().Send(context.Background(), RequestSpec{Method: http.MethodGet, URL: "http://" + addr}, time.Second)

	require.False(t, result.OK())
	assert.Equal(t, FailureConnect, result.Failure.Kind)
}

func TestSend_UnresolvableHost(t *testing.T) {
	// .invalid never resolves; a bare transport keeps environment proxies out of the way
	relay := New(WithTransport(&http.Transport{}))

	result := relay.Send(context.Background(), RequestSpec{Method: http.MethodGet, URL: "http://upstream.invalid/"}, 10*time.Second)

	require.False(t, result.OK())
	assert.Equal(t, FailureConnect, result.Failure.Kind, result.Failure.Message)
}

func TestClassify_DNSError(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "upstream.invalid", IsNotFound: true}
	err := &url.Error{
		Op:  "Get",
		URL: "http://upstream.invalid/",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: dnsErr},
	}

	assert.Equal(t, FailureConnect, classify(context.Background(), err))
	assert.Equal(t, FailureConnect, classify(context.Background(), dnsErr))
}

func TestSend_UnknownAuthorityIsTLSError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	result := New().Send(context.Background(), RequestSpec{Method: http.MethodGet, URL: server.URL}, time.Second)

	require.False(t, result.OK())
	assert.Equal(t, FailureTLS, result.Failure.Kind)
}

func TestSend_MalformedResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 1024)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("this is not http\r\n\r\n"))
			_ = conn.Close()
		}
	}()

	result := New().Send(context.Background(), RequestSpec{Method: http.MethodGet, URL: "http://" + ln.Addr().String()}, time.Second)

	require.False(t, result.OK())
	assert.Equal(t, FailureInvalidResponse, result.Failure.Kind)
}

func TestHeaders_LastWriteWinsCaseInsensitive(t *testing.T) {
	var spec RequestSpec
	err := json.Unmarshal([]byte(`{"method":"get","url":"http://x","headers":{"x-token":"a","X-TOKEN":"b","accept":"*/*"}}`), &spec)
	require.NoError(t, err)

	assert.Equal(t, Headers{"X-Token": "b", "Accept": "*/*"}, spec.Headers)
}

func TestHeaders_RejectsNonStringValues(t *testing.T) {
	var spec RequestSpec
	err := json.Unmarshal([]byte(`{"headers":{"x-count":3}}`), &spec)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := RequestSpec{Method: "post", URL: " https://api.example.com/v1 ", Body: json.RawMessage(`{"a":1}`)}
	valid.Normalize()
	require.NoError(t, valid.Validate(ProbeMethods))
	assert.Equal(t, http.MethodPost, valid.Method)

	cases := map[string]RequestSpec{
		"method":      {Method: "TRACE", URL: "http://example.com"},
		"head":        {Method: http.MethodHead, URL: "http://example.com"},
		"missing url": {Method: http.MethodGet},
		"relative":    {Method: http.MethodGet, URL: "/just/a/path"},
		"scheme":      {Method: http.MethodGet, URL: "ftp://example.com"},
		"no host":     {Method: http.MethodGet, URL: "http://"},
		"body":        {Method: http.MethodPost, URL: "http://example.com", Body: json.RawMessage(`{`)},
		"header":      {Method: http.MethodGet, URL: "http://example.com", Headers: Headers{"Bad Name": "x"}},
	}
	for name, spec := range cases {
		err := spec.Validate(ProbeMethods)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "%s: got %v", name, err)
	}

	head := RequestSpec{Method: http.MethodHead, URL: "http://example.com"}
	assert.NoError(t, head.Validate(ProxyMethods))
}
