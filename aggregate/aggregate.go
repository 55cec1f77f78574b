// Package aggregate reduces batch results into fleet-wide summaries.
// Every failure kind is treated as unhealthy uniformly; the kind detail
// survives only in the tally.
package aggregate

import (
	"encoding/json"

	"github.com/serverfarm/farmctl/models"
)

// Extractor pulls one numeric sample out of a decoded metrics payload.
// The bool reports whether the payload carries that sample at all; an
// absent section simply does not contribute.
type Extractor func(models.MetricsPayload) (float64, bool)

// CPUPercent extracts the cpu utilization sample.
func CPUPercent(m models.MetricsPayload) (float64, bool) {
	if m.CPU == nil {
		return 0, false
	}
	return m.CPU.Percent, true
}

// MemoryPercent extracts the memory utilization sample.
func MemoryPercent(m models.MetricsPayload) (float64, bool) {
	if m.Memory == nil {
		return 0, false
	}
	return m.Memory.Percent, true
}

// Stats reduces the successful entries of batch through extract. Only
// successes whose body decodes and carries the extracted sample
// contribute; an empty contributing set yields the all-zero stats, not
// an error.
func Stats(batch models.BatchResult, extract Extractor) models.AggregateStats {
	var stats models.AggregateStats
	var sum float64
	for _, entry := range batch {
		m, ok := decodeMetrics(entry.Outcome)
		if !ok {
			continue
		}
		v, ok := extract(m)
		if !ok {
			continue
		}
		if stats.Count == 0 || v < stats.Min {
			stats.Min = v
		}
		if stats.Count == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += v
		stats.Count++
	}
	if stats.Count > 0 {
		stats.Mean = sum / float64(stats.Count)
	}
	return stats
}

// SumRequestTotals adds up the request counters of every responding
// node.
func SumRequestTotals(batch models.BatchResult) int64 {
	var total int64
	for _, entry := range batch {
		if m, ok := decodeMetrics(entry.Outcome); ok {
			total += m.Requests.Total
		}
	}
	return total
}

// Tally counts successes and failures by kind across the batch.
func Tally(batch models.BatchResult) models.Tally {
	t := models.Tally{FailuresByKind: make(map[models.FailureKind]int)}
	for _, entry := range batch {
		if entry.Outcome.OK {
			t.SuccessCount++
		} else {
			t.FailuresByKind[entry.Outcome.Kind]++
		}
	}
	return t
}

// ClassifyHealth partitions the batch into healthy, degraded and
// unhealthy. Exactly the "healthy" and "degraded" markers are
// recognized; any other self-reported status, an undecodable body, and
// every failure kind count as unhealthy. The three counts always sum to
// len(batch), so an unexpected status string surfaces as an unhealthy
// node instead of vanishing from the report.
func ClassifyHealth(batch models.BatchResult) models.HealthSummary {
	var s models.HealthSummary
	for _, entry := range batch {
		switch StatusOf(entry.Outcome) {
		case models.StatusHealthy:
			s.Healthy++
		case models.StatusDegraded:
			s.Degraded++
		default:
			s.Unhealthy++
		}
	}
	return s
}

// StatusOf reports the node's self-reported health status, or "" for
// failures and unreadable bodies.
func StatusOf(o models.Outcome) string {
	if !o.OK {
		return ""
	}
	var h models.HealthPayload
	if err := json.Unmarshal(o.Body, &h); err != nil {
		return ""
	}
	return h.Status
}

func decodeMetrics(o models.Outcome) (models.MetricsPayload, bool) {
	if !o.OK {
		return models.MetricsPayload{}, false
	}
	var m models.MetricsPayload
	if err := json.Unmarshal(o.Body, &m); err != nil {
		return models.MetricsPayload{}, false
	}
	return m, true
}
