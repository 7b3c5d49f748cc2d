package hoststats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Collect(t *testing.T) {
	sampler := NewSampler(50 * time.Millisecond)

	snapshot, err := sampler.Collect(context.Background())
	require.NoError(t, err)

	t.Logf("cpu=%.1f%% mem=%.1f%%", snapshot.CPUPercent, snapshot.MemoryPercent)
	assert.GreaterOrEqual(t, snapshot.CPUPercent, 0.0)
	assert.LessOrEqual(t, snapshot.CPUPercent, 100.0)
	assert.Greater(t, snapshot.MemoryTotalBytes, uint64(0))
	assert.InDelta(t, 50, snapshot.MemoryPercent, 50)
}
