package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"apiprobe/pkg/apperr"

	"golang.org/x/net/http/httpguts"
)

// ProbeMethods are the methods a probe run may target
var ProbeMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// ProxyMethods are the methods the single-call pass-through accepts
var ProxyMethods = append(slices.Clone(ProbeMethods), http.MethodHead, http.MethodOptions)

// Normalize upper-cases the method and trims the URL.
func (s *RequestSpec) Normalize() {
	s.Method = strings.ToUpper(strings.TrimSpace(s.Method))
	s.URL = strings.TrimSpace(s.URL)
}

// Validate checks the spec against the allowed methods. Failures carry
// apperr.CodeValidation.
func (s RequestSpec) Validate(allowed []string) error {
	if !slices.Contains(allowed, s.Method) {
		return apperr.New(apperr.CodeValidation,
			fmt.Sprintf("method %q is not one of %s", s.Method, strings.Join(allowed, ", ")))
	}

	if s.URL == "" {
		return apperr.New(apperr.CodeValidation, "url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeValidation, fmt.Sprintf("url %q is malformed", s.URL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.New(apperr.CodeValidation, "url must be an absolute http or https URI")
	}
	if u.Host == "" {
		return apperr.New(apperr.CodeValidation, "url must include a host")
	}

	for name, value := range s.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return apperr.New(apperr.CodeValidation, fmt.Sprintf("header name %q is invalid", name))
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return apperr.New(apperr.CodeValidation, fmt.Sprintf("header %q has an invalid value", name))
		}
	}

	if len(s.Body) > 0 && !json.Valid(s.Body) {
		return apperr.New(apperr.CodeValidation, "body is not well-formed JSON")
	}

	return nil
}
