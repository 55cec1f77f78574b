package models

import "fmt"

// NodeAddress is the static address of one server instance. It is derived
// from the server id and never changes while the process runs.
type NodeAddress struct {
	ID   int    `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (a NodeAddress) URL() string {
	return fmt.Sprintf("http://%s:%d", a.Host, a.Port)
}

// ContainerStats is one snapshot of a container's cumulative runtime
// counters as reported by the container runtime. CPU counters are in
// microseconds, memory in bytes.
type ContainerStats struct {
	Status         string `json:"status"`
	CPUUsageTotal  uint64 `json:"cpu_usage_total"`
	SystemCPUTotal uint64 `json:"system_cpu_total"`
	MemoryUsed     uint64 `json:"memory_used"`
	MemoryLimit    uint64 `json:"memory_limit"`
}

// ResourceSample is the point-in-time utilization derived from two
// ContainerStats snapshots.
type ResourceSample struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsedMB  float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
}
