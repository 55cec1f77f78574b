package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/runtime"
)

// scriptedRuntime replays a fixed sequence of snapshots.
type scriptedRuntime struct {
	snapshots []models.ContainerStats
	err       error
	calls     int
}

func (s *scriptedRuntime) Inspect(ctx context.Context, name string) (models.ContainerStats, error) {
	if s.err != nil {
		return models.ContainerStats{}, s.err
	}
	snap := s.snapshots[s.calls]
	if s.calls < len(s.snapshots)-1 {
		s.calls++
	}
	return snap, nil
}

func (s *scriptedRuntime) Start(ctx context.Context, name string) error   { return nil }
func (s *scriptedRuntime) Stop(ctx context.Context, name string) error    { return nil }
func (s *scriptedRuntime) Restart(ctx context.Context, name string) error { return nil }

func TestDeriveComputesCPUDelta(t *testing.T) {
	prev := models.ContainerStats{CPUUsageTotal: 1000, SystemCPUTotal: 10000}
	cur := models.ContainerStats{CPUUsageTotal: 1500, SystemCPUTotal: 12000,
		MemoryUsed: 256 << 20, MemoryLimit: 512 << 20}

	sample := Derive(prev, cur)
	assert.InDelta(t, 25.0, sample.CPUPercent, 1e-9) // 500/2000
	assert.InDelta(t, 50.0, sample.MemoryPercent, 1e-9)
	assert.InDelta(t, 256.0, sample.MemoryUsedMB, 1e-9)
}

func TestDeriveZeroSystemDeltaReadsAsIdle(t *testing.T) {
	prev := models.ContainerStats{CPUUsageTotal: 1000, SystemCPUTotal: 10000}
	cur := models.ContainerStats{CPUUsageTotal: 1500, SystemCPUTotal: 10000}

	sample := Derive(prev, cur)
	assert.Equal(t, 0.0, sample.CPUPercent, "zero denominator must read as 0, not divide")
}

func TestDeriveCounterResetReadsAsIdle(t *testing.T) {
	// A restarted container reports smaller cumulative counters; that
	// must not produce a negative reading.
	prev := models.ContainerStats{CPUUsageTotal: 9000, SystemCPUTotal: 20000}
	cur := models.ContainerStats{CPUUsageTotal: 100, SystemCPUTotal: 21000}

	sample := Derive(prev, cur)
	assert.Equal(t, 0.0, sample.CPUPercent)
}

func TestDeriveZeroMemoryLimit(t *testing.T) {
	cur := models.ContainerStats{MemoryUsed: 1 << 20, MemoryLimit: 0}
	sample := Derive(models.ContainerStats{}, cur)
	assert.Equal(t, 0.0, sample.MemoryPercent)
}

func TestDeriveClampsRunawayReadings(t *testing.T) {
	prev := models.ContainerStats{}
	cur := models.ContainerStats{CPUUsageTotal: 5000, SystemCPUTotal: 1000}
	sample := Derive(prev, cur)
	assert.Equal(t, 100.0, sample.CPUPercent)
}

func TestSampleTakesTwoSnapshots(t *testing.T) {
	rt := &scriptedRuntime{snapshots: []models.ContainerStats{
		{Status: "running", CPUUsageTotal: 100, SystemCPUTotal: 1000},
		{Status: "running", CPUUsageTotal: 200, SystemCPUTotal: 2000,
			MemoryUsed: 64 << 20, MemoryLimit: 128 << 20},
	}}

	sample, err := Sample(context.Background(), rt, "server-1", time.Millisecond)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, sample.CPUPercent, 1e-9) // 100/1000
	assert.InDelta(t, 50.0, sample.MemoryPercent, 1e-9)
}

func TestSamplePropagatesInspectErrors(t *testing.T) {
	rt := &scriptedRuntime{err: runtime.ErrNotFound}
	_, err := Sample(context.Background(), rt, "server-9", time.Millisecond)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
}

func TestSampleHonorsContext(t *testing.T) {
	rt := &scriptedRuntime{snapshots: []models.ContainerStats{{Status: "running"}, {Status: "running"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sample(ctx, rt, "server-1", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
