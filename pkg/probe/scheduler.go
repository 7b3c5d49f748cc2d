package probe

import (
	"context"
	"time"
)

// Plan returns the dispatch offset of every request of a run: rps*duration
// offsets spaced evenly, the i-th at i/rps seconds. Offsets are computed in
// integer nanoseconds so whole-second boundaries are exact.
func Plan(rps, durationSeconds int) []time.Duration {
	if rps <= 0 || durationSeconds <= 0 {
		return nil
	}

	offsets := make([]time.Duration, rps*durationSeconds)
	for i := range offsets {
		offsets[i] = time.Duration(i) * time.Second / time.Duration(rps)
	}
	return offsets
}

// dispatch walks plan on a single timer. fire(i) is called once start+plan[i]
// has elapsed and must not block on the request it starts. A tick that is
// already late fires immediately. When ctx ends, skip(i) is called for every
// index that was not fired.
func dispatch(ctx context.Context, start time.Time, plan []time.Duration, fire, skip func(int)) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for i, offset := range plan {
		wait := time.Until(start.Add(offset))
		if wait > 0 {
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}

			select {
			case <-ctx.Done():
				skipFrom(i, len(plan), skip)
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			skipFrom(i, len(plan), skip)
			return
		}

		fire(i)
	}
}

func skipFrom(first, n int, skip func(int)) {
	for i := first; i < n; i++ {
		skip(i)
	}
}
