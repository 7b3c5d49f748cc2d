package probe

import (
	"math"
	"sort"
	"strconv"
)

// LatencyStats summarises the latency of responses received during a run
type LatencyStats struct {
	Samples int     `json:"samples"`
	Avg     float64 `json:"avg_ms"`
	Min     float64 `json:"min_ms"`
	Max     float64 `json:"max_ms"`
	P50     float64 `json:"p50_ms"`
	P95     float64 `json:"p95_ms"`
	P99     float64 `json:"p99_ms"`
}

// summarize builds latency stats and status/failure histograms. Only outcomes
// that received a response contribute latency samples.
func summarize(outcomes []RequestOutcome) (LatencyStats, map[string]int, map[string]int) {
	statusCodes := make(map[string]int)
	failureKinds := make(map[string]int)
	latencies := make([]float64, 0, len(outcomes))

	for _, o := range outcomes {
		if o.StatusCode == nil {
			failureKinds[o.FailureKind]++
			continue
		}
		statusCodes[strconv.Itoa(*o.StatusCode)]++
		latencies = append(latencies, float64(o.LatencyMs))
	}

	stats := LatencyStats{Samples: len(latencies)}
	if len(latencies) == 0 {
		return stats, statusCodes, failureKinds
	}

	sort.Float64s(latencies)

	var sum float64
	for _, l := range latencies {
		sum += l
	}
	stats.Avg = sum / float64(len(latencies))
	stats.Min = latencies[0]
	stats.Max = latencies[len(latencies)-1]
	stats.P50 = percentile(latencies, 0.50)
	stats.P95 = percentile(latencies, 0.95)
	stats.P99 = percentile(latencies, 0.99)

	return stats, statusCodes, failureKinds
}

// percentile calculates the percentile value from a sorted slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	index := float64(len(sorted)-1) * p
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
