package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/serverfarm/farmctl/models"
)

// ProbeOptions controls one load probe run. Requests is how many calls
// to make in total; Concurrency caps how many are in flight at once.
type ProbeOptions struct {
	Requests    int
	Concurrency int
	Timeout     time.Duration
}

const (
	DefaultProbeRequests    = 100
	DefaultProbeConcurrency = 10
	DefaultProbeTimeout     = 10 * time.Second
)

func (o ProbeOptions) withDefaults() ProbeOptions {
	if o.Requests <= 0 {
		o.Requests = DefaultProbeRequests
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultProbeConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultProbeTimeout
	}
	return o
}

// Probe hammers a single server with opts.Requests copies of op,
// keeping at most opts.Concurrency calls outstanding, and reduces the
// wall-clock latencies into LoadStats. Unlike Dispatch, which assumes
// one call per fleet member, a probe's request volume is unbounded, so
// the concurrency cap is mandatory.
func (d *Dispatcher) Probe(ctx context.Context, id int, op Operation, opts ProbeOptions) (models.LoadStats, error) {
	if _, err := d.reg.AddressOf(id); err != nil {
		return models.LoadStats{}, fmt.Errorf("invalid target: %w", err)
	}
	opts = opts.withDefaults()

	outcomes := make([]models.Outcome, opts.Requests)
	g := &errgroup.Group{}
	g.SetLimit(opts.Concurrency)

	start := time.Now()
	for i := range outcomes {
		slot := i
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
			outcomes[slot] = op(callCtx, id)
			return nil
		})
	}
	g.Wait()
	total := time.Since(start)

	return reduceProbe(id, outcomes, total), nil
}

func reduceProbe(id int, outcomes []models.Outcome, total time.Duration) models.LoadStats {
	stats := models.LoadStats{
		RunID:           uuid.New().String(),
		ServerID:        id,
		Requests:        len(outcomes),
		DurationSeconds: total.Seconds(),
	}

	var latencies []time.Duration
	for _, o := range outcomes {
		if o.OK {
			stats.Successful++
			latencies = append(latencies, o.Latency)
		} else {
			stats.Failed++
		}
	}
	if total > 0 {
		stats.RequestsPerSecond = float64(stats.Successful) / total.Seconds()
	}
	stats.Latency = summarizeLatencies(latencies)
	return stats
}

func summarizeLatencies(latencies []time.Duration) models.LatencySummary {
	if len(latencies) == 0 {
		return models.LatencySummary{}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	return models.LatencySummary{
		MeanMS:   toMS(sum / time.Duration(len(latencies))),
		MinMS:    toMS(latencies[0]),
		MaxMS:    toMS(latencies[len(latencies)-1]),
		MedianMS: toMS(median(latencies)),
	}
}

// median expects a sorted slice. Even lengths average the two middle
// values.
func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func toMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
