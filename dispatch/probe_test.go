package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
)

func TestProbeNeverExceedsConcurrencyBound(t *testing.T) {
	d := New(registry.New(3, 8001, "localhost"))

	// The operation tracks how many copies of itself are in flight;
	// the high-water mark must stay at or below the configured bound.
	var inFlight, peak int64
	var mu sync.Mutex
	op := func(ctx context.Context, id int) models.Outcome {
		cur := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return models.Success(json.RawMessage(`{}`), time.Millisecond)
	}

	stats, err := d.Probe(context.Background(), 1, op, ProbeOptions{Requests: 100, Concurrency: 10})
	require.NoError(t, err)

	assert.Equal(t, 100, stats.Requests)
	assert.Equal(t, 100, stats.Successful)
	assert.Equal(t, 0, stats.Failed)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(10), "more than 10 operations were outstanding at once")
	assert.Greater(t, peak, int64(1), "probe appears to have run sequentially")
}

func TestProbeCountsFailures(t *testing.T) {
	d := New(registry.New(1, 8001, "localhost"))

	var calls int64
	op := func(ctx context.Context, id int) models.Outcome {
		if atomic.AddInt64(&calls, 1)%2 == 0 {
			return models.Failure(models.FailConnection, "connection refused")
		}
		return models.Success(json.RawMessage(`{}`), time.Millisecond)
	}

	stats, err := d.Probe(context.Background(), 1, op, ProbeOptions{Requests: 10, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Successful)
	assert.Equal(t, 5, stats.Failed)
	assert.NotEmpty(t, stats.RunID)
	assert.Greater(t, stats.DurationSeconds, 0.0)
}

func TestProbeInvalidTarget(t *testing.T) {
	d := New(registry.New(3, 8001, "localhost"))

	op := func(ctx context.Context, id int) models.Outcome {
		return models.Success(json.RawMessage(`{}`), 0)
	}
	_, err := d.Probe(context.Background(), 99, op, ProbeOptions{})
	assert.ErrorIs(t, err, registry.ErrOutOfRange)
}

func TestMedianEvenLengthAveragesMiddlePair(t *testing.T) {
	sorted := []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond,
		30 * time.Millisecond, 40 * time.Millisecond,
	}
	assert.Equal(t, 25*time.Millisecond, median(sorted))
}

func TestMedianOddLength(t *testing.T) {
	sorted := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 60 * time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, median(sorted))
}

func TestSummarizeLatencies(t *testing.T) {
	summary := summarizeLatencies([]time.Duration{
		40 * time.Millisecond, 10 * time.Millisecond,
		30 * time.Millisecond, 20 * time.Millisecond,
	})

	assert.InDelta(t, 25.0, summary.MeanMS, 0.001)
	assert.InDelta(t, 10.0, summary.MinMS, 0.001)
	assert.InDelta(t, 40.0, summary.MaxMS, 0.001)
	assert.InDelta(t, 25.0, summary.MedianMS, 0.001)
}

func TestSummarizeLatenciesEmpty(t *testing.T) {
	assert.Equal(t, models.LatencySummary{}, summarizeLatencies(nil))
}

func TestProbeThroughputCountsOnlySuccesses(t *testing.T) {
	outcomes := []models.Outcome{
		{OK: true, Latency: 10 * time.Millisecond},
		{OK: true, Latency: 20 * time.Millisecond},
		{Kind: models.FailTimeout},
		{Kind: models.FailTimeout},
	}
	stats := reduceProbe(1, outcomes, 2*time.Second)

	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 2, stats.Failed)
	assert.InDelta(t, 1.0, stats.RequestsPerSecond, 0.001)
}
