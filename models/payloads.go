package models

// Health status strings reported by server instances. Anything outside
// this vocabulary is counted as unhealthy by the aggregator.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// HealthPayload is the body of a node's GET /health response.
type HealthPayload struct {
	Status    string `json:"status"`
	ServerID  string `json:"server_id"`
	Timestamp string `json:"timestamp"`
}

type RequestStats struct {
	Total         int64   `json:"total"`
	RatePerMinute float64 `json:"rate_per_minute"`
}

type CPUStats struct {
	Percent float64 `json:"percent"`
	Count   int     `json:"count"`
}

type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	AvailableMB float64 `json:"available_mb"`
	UsedMB      float64 `json:"used_mb"`
	Percent     float64 `json:"percent"`
}

// MetricsPayload is the body of a node's GET /metrics response. CPU and
// Memory are pointers so that an absent section is distinguishable from
// a zero reading; absent sections do not contribute to aggregation.
type MetricsPayload struct {
	ServerID      string       `json:"server_id"`
	Hostname      string       `json:"hostname"`
	Port          int          `json:"port"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	Requests      RequestStats `json:"requests"`
	CPU           *CPUStats    `json:"cpu,omitempty"`
	Memory        *MemoryStats `json:"memory,omitempty"`
	Timestamp     string       `json:"timestamp"`
}
