// Package sampler turns cumulative runtime counters into point-in-time
// utilization. CPU percent is a two-point delta over the system total;
// memory percent is a plain ratio. Degenerate input (zero or negative
// deltas, zero limits, counter resets) reads as 0% rather than an
// error: a flat sample is a normal transient, not a fault.
package sampler

import (
	"context"
	"time"

	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/runtime"
)

// DefaultInterval is the pause between the two snapshots, long enough
// for a busy container to accumulate a visible counter delta.
const DefaultInterval = 500 * time.Millisecond

// Derive computes utilization from two ordered snapshots of the same
// container. The second snapshot supplies the memory reading.
func Derive(prev, cur models.ContainerStats) models.ResourceSample {
	cpuDelta := counterDelta(cur.CPUUsageTotal, prev.CPUUsageTotal)
	sysDelta := counterDelta(cur.SystemCPUTotal, prev.SystemCPUTotal)

	var cpu float64
	if sysDelta > 0 {
		cpu = clampPercent(float64(cpuDelta) / float64(sysDelta) * 100)
	}
	return models.ResourceSample{
		CPUPercent:    cpu,
		MemoryUsedMB:  float64(cur.MemoryUsed) / (1024 * 1024),
		MemoryPercent: percentOf(cur.MemoryUsed, cur.MemoryLimit),
	}
}

// Sample takes two snapshots of name through rt, interval apart, and
// derives utilization. Nothing is cached; every call observes fresh
// counters.
func Sample(ctx context.Context, rt runtime.Runtime, name string, interval time.Duration) (models.ResourceSample, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	first, err := rt.Inspect(ctx, name)
	if err != nil {
		return models.ResourceSample{}, err
	}

	t := time.NewTimer(interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return models.ResourceSample{}, ctx.Err()
	case <-t.C:
	}

	second, err := rt.Inspect(ctx, name)
	if err != nil {
		return models.ResourceSample{}, err
	}
	return Derive(first, second), nil
}

// counterDelta treats a decreasing cumulative counter as a reset and
// reports no progress.
func counterDelta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func percentOf(value, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return clampPercent(float64(value) / float64(total) * 100)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
