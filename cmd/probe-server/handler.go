package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"apiprobe/api/generated"
	"apiprobe/pkg/apperr"
	"apiprobe/pkg/auth"
	"apiprobe/pkg/hoststats"
	"apiprobe/pkg/probe"
	"apiprobe/pkg/relay"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/rs/zerolog"
)

// RunIDHeader carries the id of the stored run on rate-limit test responses
const RunIDHeader = "X-Probe-Run-ID"

// APIHandler implements the OpenAPI generated ServerInterface
type APIHandler struct {
	service   *probe.Service
	sampler   *hoststats.Sampler
	metrics   http.Handler
	logger    zerolog.Logger
	startedAt time.Time
}

var _ generated.ServerInterface = (*APIHandler)(nil)

func NewAPIHandler(service *probe.Service, sampler *hoststats.Sampler, metrics http.Handler, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		service:   service,
		sampler:   sampler,
		metrics:   metrics,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Register mounts the generated routes. Operations declaring bearerAuth
// require a valid token, and every request is checked against the
// embedded OpenAPI document before it reaches the handler.
func (h *APIHandler) Register(router gin.IRouter, validator auth.Validator) error {
	doc, err := generated.GetSwagger()
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	validate, err := requestValidator(doc)
	if err != nil {
		return err
	}

	generated.RegisterHandlersWithOptions(router, h, generated.GinServerOptions{
		Middlewares:  []generated.MiddlewareFunc{bearerAuth(validator), validate},
		ErrorHandler: parameterError,
	})
	return nil
}

// rateLimitTestRequest is the RunRateLimitTest body. It is bound into relay
// types so duplicate headers keep last-write-wins order.
type rateLimitTestRequest struct {
	relay.RequestSpec
	RPS      int `json:"rps"`
	Duration int `json:"duration"`
}

// RunRateLimitTest runs a probe to completion and returns its result
func (h *APIHandler) RunRateLimitTest(c *gin.Context) {
	var request rateLimitTestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.writeError(c, apperr.Wrap(err, apperr.CodeValidation, "invalid request body: "+err.Error()))
		return
	}

	cfg := probe.ProbeConfig{
		Request:         request.RequestSpec,
		RPS:             request.RPS,
		DurationSeconds: request.Duration,
	}

	record, err := h.service.Run(c.Request.Context(), auth.Subject(c), cfg)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header(RunIDHeader, record.ID)
	c.JSON(http.StatusOK, toAPIResult(record.Result))
}

// ProxyRequest relays a single call and reports what came back
func (h *APIHandler) ProxyRequest(c *gin.Context) {
	var spec relay.RequestSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		h.writeError(c, apperr.Wrap(err, apperr.CodeValidation, "invalid request body: "+err.Error()))
		return
	}

	result, err := h.service.Proxy(c.Request.Context(), spec)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !result.OK() {
		code := apperr.CodeUpstreamUnavailable
		if result.Failure.Kind == relay.FailureTimeout {
			code = apperr.CodeUpstreamTimeout
		}
		h.writeError(c, apperr.New(code, result.Failure.Message))
		return
	}

	c.JSON(http.StatusOK, generated.ProxyResponse{
		Status:       result.StatusCode,
		Headers:      result.FlatHeaders(),
		Body:         responseBody(result.Body),
		ResponseTime: result.LatencyMs(),
	})
}

// responseBody returns body as JSON when it parses, otherwise as text
func responseBody(body []byte) any {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// ListRateLimitTests lists the caller's stored runs, newest first
func (h *APIHandler) ListRateLimitTests(c *gin.Context) {
	entries, err := h.service.ListRuns(auth.Subject(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	runs := make([]generated.RunSummary, 0, len(entries))
	for _, entry := range entries {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			continue
		}
		runs = append(runs, generated.RunSummary{
			Id:         id,
			ModifiedAt: entry.ModifiedAt,
			FileSizeKb: entry.FileSizeKB,
		})
	}

	c.JSON(http.StatusOK, generated.RunListResponse{
		Runs:  runs,
		Total: len(runs),
	})
}

// GetRateLimitTest returns one of the caller's stored runs
func (h *APIHandler) GetRateLimitTest(c *gin.Context, id openapi_types.UUID) {
	record, err := h.service.GetRun(auth.Subject(c), id.String())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// HealthCheck implements the health check endpoint
func (h *APIHandler) HealthCheck(c *gin.Context) {
	response := generated.HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}

	if h.sampler != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		snapshot, err := h.sampler.Collect(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to collect host stats")
		} else {
			response.Host = &generated.HostStats{
				CpuPercent:       snapshot.CPUPercent,
				MemoryPercent:    snapshot.MemoryPercent,
				MemoryUsedBytes:  int64(snapshot.MemoryUsedBytes),
				MemoryTotalBytes: int64(snapshot.MemoryTotalBytes),
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetMetrics serves the Prometheus registry
func (h *APIHandler) GetMetrics(c *gin.Context) {
	if h.metrics == nil {
		h.writeError(c, apperr.New(apperr.CodeNotFound, "metrics are not enabled"))
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

func toAPIResult(r probe.RateLimitTestResult) generated.RateLimitTestResult {
	return generated.RateLimitTestResult{
		TotalRequests:       r.TotalRequests,
		SuccessfulRequests:  r.SuccessfulRequests,
		RateLimitedRequests: r.RateLimitedRequests,
		OtherErrors:         r.OtherErrors,
		First429AtRequest:   r.First429AtRequest,
		First429AtSecond:    r.First429AtSecond,
		MaxSafeRpsEstimate:  r.MaxSafeRPSEstimate,
	}
}

func (h *APIHandler) writeError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)

	if code == apperr.CodeInternal {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}

	c.JSON(status, generated.ErrorResponse{
		Error:            string(code),
		ErrorDescription: err.Error(),
	})
}

// parameterError reports path parameters the generated wrappers could not bind
func parameterError(c *gin.Context, err error, statusCode int) {
	c.AbortWithStatusJSON(statusCode, generated.ErrorResponse{
		Error:            string(apperr.CodeValidation),
		ErrorDescription: err.Error(),
	})
}
