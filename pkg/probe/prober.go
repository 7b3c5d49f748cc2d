package probe

import (
	"context"
	"time"

	"apiprobe/pkg/apperr"
	"apiprobe/pkg/relay"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sender performs a single relayed call. Implementations must return once ctx
// is done.
type Sender interface {
	Send(ctx context.Context, spec relay.RequestSpec, timeout time.Duration) relay.Result
}

// Prober runs paced probes against one upstream and reduces the outcomes
type Prober struct {
	sender      Sender
	callTimeout time.Duration
	grace       time.Duration
	logger      zerolog.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithCallTimeout sets the per-request timeout handed to the sender
func WithCallTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.callTimeout = d
		}
	}
}

// WithGrace sets how long in-flight requests may run past the dispatch window
func WithGrace(d time.Duration) Option {
	return func(p *Prober) {
		if d >= 0 {
			p.grace = d
		}
	}
}

// NewProber creates a prober. The grace period defaults to the call timeout.
func NewProber(sender Sender, logger zerolog.Logger, opts ...Option) *Prober {
	p := &Prober{
		sender:      sender,
		callTimeout: relay.DefaultTimeout,
		grace:       -1,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.grace < 0 {
		p.grace = p.callTimeout
	}
	return p
}

// RunProbe validates cfg, dispatches cfg.RPS*cfg.DurationSeconds requests
// evenly over the duration and returns the reduced result. Invalid
// configurations fail before anything is sent.
func (p *Prober) RunProbe(ctx context.Context, cfg ProbeConfig) (*RateLimitTestResult, error) {
	result, _, err := p.run(ctx, cfg)
	return result, err
}

// run is RunProbe that also hands back the outcome log for record keeping
func (p *Prober) run(ctx context.Context, cfg ProbeConfig) (*RateLimitTestResult, []RequestOutcome, error) {
	cfg.Request.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	plan := Plan(cfg.RPS, cfg.DurationSeconds)
	log := NewOutcomeLog(len(plan))

	startTime := time.Now()
	window := time.Duration(cfg.DurationSeconds) * time.Second

	// Unstarted dispatches are dropped when the window closes; in-flight ones
	// are cut off at the hard deadline and come back from the sender as
	// timeouts.
	dispatchCtx, cancelDispatch := context.WithDeadline(ctx, startTime.Add(window))
	defer cancelDispatch()
	hardCtx, cancelHard := context.WithDeadline(ctx, startTime.Add(window+p.grace))
	defer cancelHard()

	// A failing request must not cancel its siblings, so the group carries no
	// shared context.
	var g errgroup.Group
	var skipErr error

	fire := func(i int) {
		offset := plan[i]
		g.Go(func() error {
			res := p.sender.Send(hardCtx, cfg.Request, p.callTimeout)
			return log.Record(newOutcome(i, offset, res))
		})
	}
	skip := func(i int) {
		if err := log.Record(cancelledOutcome(i, plan[i])); err != nil && skipErr == nil {
			skipErr = err
		}
	}

	p.logger.Debug().
		Int("requests", len(plan)).
		Dur("window", window).
		Dur("grace", p.grace).
		Msg("Dispatching probe")

	dispatch(dispatchCtx, startTime, plan, fire, skip)

	if err := g.Wait(); err != nil {
		return nil, nil, apperr.Wrap(err, apperr.CodeInternal, "probe outcome log inconsistent")
	}
	if skipErr != nil {
		return nil, nil, apperr.Wrap(skipErr, apperr.CodeInternal, "probe outcome log inconsistent")
	}

	outcomes, err := log.Outcomes()
	if err != nil {
		return nil, nil, err
	}

	result := Reduce(outcomes)
	return &result, outcomes, nil
}
