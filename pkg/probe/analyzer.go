package probe

import (
	"cmp"
	"slices"
)

// Reduce folds outcomes into the aggregate result in a single pass over
// sequence order.
//
// The safe-rate estimate is the number of successes scheduled before the
// first 429 divided by the whole second that 429 was scheduled in (1 when it
// falls in second zero), rounded down.
func Reduce(outcomes []RequestOutcome) RateLimitTestResult {
	byIndex := func(a, b RequestOutcome) int { return cmp.Compare(a.SequenceIndex, b.SequenceIndex) }
	if !slices.IsSortedFunc(outcomes, byIndex) {
		outcomes = slices.SortedFunc(slices.Values(outcomes), byIndex)
	}

	var result RateLimitTestResult
	successesBefore429 := 0

	for _, o := range outcomes {
		result.TotalRequests++

		switch o.Classification {
		case Success:
			result.SuccessfulRequests++
			if result.First429AtRequest == nil {
				successesBefore429++
			}
		case RateLimited:
			result.RateLimitedRequests++
			if result.First429AtRequest == nil {
				index := o.SequenceIndex
				second := o.ScheduledSecond()
				result.First429AtRequest = &index
				result.First429AtSecond = &second
			}
		default:
			result.OtherErrors++
		}
	}

	if result.First429AtRequest != nil {
		divisor := *result.First429AtSecond
		if divisor == 0 {
			divisor = 1
		}
		estimate := successesBefore429 / divisor
		result.MaxSafeRPSEstimate = &estimate
	}

	return result
}
