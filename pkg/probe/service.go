package probe

import (
	"context"
	"fmt"
	"time"

	"apiprobe/pkg/apperr"
	"apiprobe/pkg/history"
	"apiprobe/pkg/metrics"
	"apiprobe/pkg/relay"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service runs probes and single relayed calls on behalf of the HTTP layer,
// keeping a history of finished runs
type Service struct {
	prober       *Prober
	sender       Sender
	store        *history.FileStorage[*RunRecord]
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	proxyTimeout time.Duration
}

// ServiceConfig holds the service settings
type ServiceConfig struct {
	StoragePath  string
	CallTimeout  time.Duration
	Grace        time.Duration // zero means the call timeout
	ProxyTimeout time.Duration
}

// NewService creates a probe service. m may be nil.
func NewService(sender Sender, config ServiceConfig, m *metrics.Metrics, logger zerolog.Logger) (*Service, error) {
	store, err := history.NewFileStorage[*RunRecord](config.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create history storage: %w", err)
	}

	proxyTimeout := config.ProxyTimeout
	if proxyTimeout <= 0 {
		proxyTimeout = 10 * time.Second
	}

	opts := []Option{WithCallTimeout(config.CallTimeout)}
	if config.Grace > 0 {
		opts = append(opts, WithGrace(config.Grace))
	}

	return &Service{
		prober:       NewProber(sender, logger, opts...),
		sender:       sender,
		store:        store,
		metrics:      m,
		logger:       logger,
		proxyTimeout: proxyTimeout,
	}, nil
}

// Run executes one probe for subject. The run ignores cancellation of ctx; a
// started probe always completes.
func (s *Service) Run(ctx context.Context, subject string, cfg ProbeConfig) (*RunRecord, error) {
	ctx = context.WithoutCancel(ctx)

	cfg.Request.Normalize()
	if err := cfg.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementProbeRuns("rejected")
		}
		s.logger.Debug().Err(err).Str("subject", subject).Msg("Rejected rate-limit probe")
		return nil, err
	}

	runID := uuid.NewString()
	s.logger.Info().
		Str("run_id", runID).
		Str("subject", subject).
		Str("method", cfg.Request.Method).
		Str("target", cfg.Request.Redacted().URL).
		Int("rps", cfg.RPS).
		Int("duration", cfg.DurationSeconds).
		Msg("Starting rate-limit probe")

	startTime := time.Now()
	result, outcomes, err := s.prober.run(ctx, cfg)
	endTime := time.Now()

	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementProbeRuns("failed")
		}
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Rate-limit probe failed")
		return nil, err
	}

	latency, statusCodes, failureKinds := summarize(outcomes)
	cfg.Request = cfg.Request.Redacted()
	record := &RunRecord{
		ID:           runID,
		Subject:      subject,
		Config:       cfg,
		Result:       *result,
		StartedAt:    startTime,
		FinishedAt:   endTime,
		Duration:     endTime.Sub(startTime).Seconds(),
		Latency:      latency,
		StatusCodes:  statusCodes,
		FailureKinds: failureKinds,
	}

	s.recordRunMetrics(record, outcomes)

	if err := s.store.Save(subject, runID, record); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to save probe run")
	}

	event := s.logger.Info().
		Str("run_id", runID).
		Int("total_requests", result.TotalRequests).
		Int("successful", result.SuccessfulRequests).
		Int("rate_limited", result.RateLimitedRequests).
		Int("other_errors", result.OtherErrors).
		Float64("avg_latency_ms", latency.Avg)
	if result.First429AtRequest != nil {
		event = event.
			Int("first_429_at_request", *result.First429AtRequest).
			Int("max_safe_rps_estimate", *result.MaxSafeRPSEstimate)
	}
	event.Msg("Rate-limit probe completed")

	return record, nil
}

func (s *Service) recordRunMetrics(record *RunRecord, outcomes []RequestOutcome) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementProbeRuns("completed")
	s.metrics.ObserveProbeDuration(record.FinishedAt.Sub(record.StartedAt))
	s.metrics.AddDispatches(string(Success), record.Result.SuccessfulRequests)
	s.metrics.AddDispatches(string(RateLimited), record.Result.RateLimitedRequests)
	s.metrics.AddDispatches(string(OtherError), record.Result.OtherErrors)
	for _, o := range outcomes {
		if o.StatusCode != nil {
			s.metrics.ObserveRelayLatency("probe", time.Duration(o.LatencyMs)*time.Millisecond)
		}
	}
}

// Proxy relays a single call. Only validation problems come back as errors;
// upstream failures are carried in the result.
func (s *Service) Proxy(ctx context.Context, spec relay.RequestSpec) (relay.Result, error) {
	spec.Normalize()
	if err := spec.Validate(relay.ProxyMethods); err != nil {
		return relay.Result{}, err
	}

	result := s.sender.Send(ctx, spec, s.proxyTimeout)

	if s.metrics != nil {
		outcome := "ok"
		if !result.OK() {
			outcome = string(result.Failure.Kind)
		}
		s.metrics.IncrementProxyRequests(outcome)
		s.metrics.ObserveRelayLatency("proxy", result.Latency)
	}

	s.logger.Debug().
		Str("method", spec.Method).
		Str("target", spec.Redacted().URL).
		Int("status", result.StatusCode).
		Int64("latency_ms", result.LatencyMs()).
		Msg("Proxied request")

	return result, nil
}

// GetRun loads a run subject stored. Runs of other subjects are reported as
// not found.
func (s *Service) GetRun(subject, id string) (*RunRecord, error) {
	record := &RunRecord{}
	if err := s.store.Load(subject, id, record); err != nil {
		return nil, err
	}
	if record.Subject != subject {
		return nil, apperr.New(apperr.CodeNotFound, "record "+id+" not found")
	}
	return record, nil
}

// ListRuns lists the runs subject stored, newest first
func (s *Service) ListRuns(subject string) ([]history.Entry, error) {
	return s.store.List(subject)
}
