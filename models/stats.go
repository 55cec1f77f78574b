package models

// AggregateStats summarizes a set of numeric samples. All fields are 0
// when no sample contributed, so consumers never need nil checks.
type AggregateStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Tally counts batch outcomes by result: successes plus a breakdown of
// failures by kind.
type Tally struct {
	SuccessCount   int                 `json:"success_count"`
	FailuresByKind map[FailureKind]int `json:"failures_by_kind"`
}

// HealthSummary is the three-way health partition of a batch. The three
// counts always sum to the number of requested nodes.
type HealthSummary struct {
	Healthy   int `json:"healthy"`
	Degraded  int `json:"degraded"`
	Unhealthy int `json:"unhealthy"`
}

type LatencySummary struct {
	MeanMS   float64 `json:"mean_ms"`
	MinMS    float64 `json:"min_ms"`
	MaxMS    float64 `json:"max_ms"`
	MedianMS float64 `json:"median_ms"`
}

// LoadStats is the result of one load probe run against one server.
type LoadStats struct {
	RunID             string         `json:"run_id"`
	ServerID          int            `json:"server_id"`
	Requests          int            `json:"requests"`
	Successful        int            `json:"successful"`
	Failed            int            `json:"failed"`
	DurationSeconds   float64        `json:"duration_seconds"`
	RequestsPerSecond float64        `json:"requests_per_second"`
	Latency           LatencySummary `json:"latency"`
}
