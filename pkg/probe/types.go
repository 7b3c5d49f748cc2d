package probe

import (
	"encoding/json"
	"fmt"
	"time"

	"apiprobe/pkg/apperr"
	"apiprobe/pkg/relay"
)

const (
	MinRPS      = 1
	MaxRPS      = 1000
	MinDuration = 1  // seconds
	MaxDuration = 60 // seconds
)

// ProbeConfig describes one probe run
type ProbeConfig struct {
	Request         relay.RequestSpec `json:"request"`
	RPS             int               `json:"rps"`
	DurationSeconds int               `json:"duration"`
}

// Validate checks bounds and the target request. It must pass before any
// request is dispatched.
func (c ProbeConfig) Validate() error {
	if c.RPS < MinRPS || c.RPS > MaxRPS {
		return apperr.New(apperr.CodeValidation,
			fmt.Sprintf("rps must be between %d and %d", MinRPS, MaxRPS))
	}
	if c.DurationSeconds < MinDuration || c.DurationSeconds > MaxDuration {
		return apperr.New(apperr.CodeValidation,
			fmt.Sprintf("duration must be between %d and %d seconds", MinDuration, MaxDuration))
	}
	return c.Request.Validate(relay.ProbeMethods)
}

// TotalRequests is the number of dispatches the run schedules
func (c ProbeConfig) TotalRequests() int {
	return c.RPS * c.DurationSeconds
}

// Classification buckets a single outcome
type Classification string

const (
	Success     Classification = "success"
	RateLimited Classification = "rate_limited"
	OtherError  Classification = "other_error"
)

// Classify maps a received status code to its classification
func Classify(statusCode int) Classification {
	switch {
	case statusCode == 429:
		return RateLimited
	case statusCode >= 200 && statusCode < 400:
		return Success
	default:
		return OtherError
	}
}

// FailureCancelled marks a dispatch that never left because the window closed
const FailureCancelled = "cancelled"

// RequestOutcome is one entry of the outcome log. SequenceIndex is assigned
// at schedule time and defines the canonical order.
type RequestOutcome struct {
	SequenceIndex   int
	ScheduledOffset time.Duration
	Classification  Classification
	StatusCode      *int
	LatencyMs       int64
	FailureKind     string
}

// ScheduledSecond is the whole second of the run the outcome was planned in
func (o RequestOutcome) ScheduledSecond() int {
	return int(o.ScheduledOffset / time.Second)
}

func newOutcome(index int, offset time.Duration, res relay.Result) RequestOutcome {
	o := RequestOutcome{
		SequenceIndex:   index,
		ScheduledOffset: offset,
		LatencyMs:       res.LatencyMs(),
	}
	if !res.OK() {
		o.Classification = OtherError
		o.FailureKind = string(res.Failure.Kind)
		return o
	}
	code := res.StatusCode
	o.StatusCode = &code
	o.Classification = Classify(code)
	return o
}

func cancelledOutcome(index int, offset time.Duration) RequestOutcome {
	return RequestOutcome{
		SequenceIndex:   index,
		ScheduledOffset: offset,
		Classification:  OtherError,
		FailureKind:     FailureCancelled,
	}
}

// RateLimitTestResult is the aggregate a probe run reports
type RateLimitTestResult struct {
	TotalRequests       int  `json:"total_requests"`
	SuccessfulRequests  int  `json:"successful_requests"`
	RateLimitedRequests int  `json:"rate_limited_requests"`
	OtherErrors         int  `json:"other_errors"`
	First429AtRequest   *int `json:"first_429_at_request"`
	First429AtSecond    *int `json:"first_429_at_second"`
	MaxSafeRPSEstimate  *int `json:"max_safe_rps_estimate"`
}

// RunRecord is the persisted form of a finished run
type RunRecord struct {
	ID           string              `json:"id"`
	Subject      string              `json:"subject,omitempty"`
	Config       ProbeConfig         `json:"config"`
	Result       RateLimitTestResult `json:"result"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at"`
	Duration     float64             `json:"duration"` // in seconds, wall clock
	Latency      LatencyStats        `json:"latency"`
	StatusCodes  map[string]int      `json:"status_codes"`
	FailureKinds map[string]int      `json:"failure_kinds,omitempty"`
}

// MarshalJSON implements json.Marshaler interface for RunRecord
func (r RunRecord) MarshalJSON() ([]byte, error) {
	type Alias RunRecord
	return json.Marshal((Alias)(r))
}

// UnmarshalJSON implements json.Unmarshaler interface for RunRecord
func (r *RunRecord) UnmarshalJSON(data []byte) error {
	type Alias RunRecord
	return json.Unmarshal(data, (*Alias)(r))
}
