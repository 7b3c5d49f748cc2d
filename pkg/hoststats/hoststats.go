package hoststats

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point in time view of the host running the server
type Snapshot struct {
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	MemoryUsedBytes  uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes uint64  `json:"memory_total_bytes"`
}

// Sampler reads host CPU and memory usage
type Sampler struct {
	cpuInterval time.Duration
}

// NewSampler creates a sampler. CPU usage is measured over interval; zero
// compares against the previous call.
func NewSampler(interval time.Duration) *Sampler {
	return &Sampler{cpuInterval: interval}
}

// Collect takes one snapshot
func (s *Sampler) Collect(ctx context.Context) (*Snapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, s.cpuInterval, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU usage: %w", err)
	}

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory usage: %w", err)
	}

	snapshot := &Snapshot{
		MemoryPercent:    memInfo.UsedPercent,
		MemoryUsedBytes:  memInfo.Used,
		MemoryTotalBytes: memInfo.Total,
	}
	if len(percents) > 0 {
		snapshot.CPUPercent = percents[0]
	}
	return snapshot, nil
}
