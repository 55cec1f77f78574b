package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/serverfarm/farmctl/aggregate"
	"github.com/serverfarm/farmctl/dispatch"
	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
	"github.com/serverfarm/farmctl/runtime"
	"github.com/serverfarm/farmctl/sampler"
)

type serverEntry struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	URL           string  `json:"url"`
	Port          int     `json:"port"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	Error         string  `json:"error,omitempty"`
}

func (s *APIServer) handleListServers(w http.ResponseWriter, r *http.Request) {
	addrs := s.reg.All()
	entries := make([]serverEntry, len(addrs))

	var wg sync.WaitGroup
	for i, addr := range addrs {
		wg.Add(1)
		go func(slot int, addr models.NodeAddress) {
			defer wg.Done()
			entries[slot] = s.describeServer(r.Context(), addr)
		}(i, addr)
	}
	wg.Wait()

	respondJSON(w, http.StatusOK, map[string]any{
		"total_servers": s.reg.Size(),
		"servers":       entries,
		"timestamp":     timestamp(),
	})
}

// describeServer builds one fleet-list entry. With a runtime attached
// the entry carries the container status plus a fresh resource sample;
// without one it falls back to an HTTP reachability check.
func (s *APIServer) describeServer(ctx context.Context, addr models.NodeAddress) serverEntry {
	name, _ := s.reg.ContainerName(addr.ID)
	entry := serverEntry{ID: addr.ID, Name: name, URL: s.urlFor(addr.ID), Port: addr.Port}

	if s.rt == nil {
		callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		outcome := s.client.Get(callCtx, s.urlFor(addr.ID)+"/health")
		if outcome.OK {
			entry.Status = "running"
		} else {
			entry.Status = "unreachable"
			entry.Error = failureMessage(outcome)
		}
		return entry
	}

	stats, err := s.rt.Inspect(ctx, name)
	if err != nil {
		if errors.Is(err, runtime.ErrNotFound) {
			entry.Status = "not_found"
			entry.Error = "container not found"
		} else {
			entry.Status = "error"
			entry.Error = err.Error()
		}
		return entry
	}
	entry.Status = stats.Status

	sample, err := sampler.Sample(ctx, s.rt, name, s.sampleInterval)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.CPUPercent = sample.CPUPercent
	entry.MemoryMB = sample.MemoryUsedMB
	entry.MemoryPercent = sample.MemoryPercent
	return entry
}

func (s *APIServer) handleGetServer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Server not found")
		return
	}
	addr, err := s.reg.AddressOf(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Server not found")
		return
	}
	name, _ := s.reg.ContainerName(id)

	callCtx, cancel := context.WithTimeout(r.Context(), metricsTimeout)
	defer cancel()
	metrics := s.client.Get(callCtx, s.urlFor(id)+"/metrics")

	status := "running"
	if s.rt != nil {
		stats, err := s.rt.Inspect(r.Context(), name)
		switch {
		case errors.Is(err, runtime.ErrNotFound):
			respondError(w, http.StatusNotFound, "Container not found")
			return
		case err != nil:
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		default:
			status = stats.Status
		}
	} else if !metrics.OK {
		status = "error"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"server_id":      id,
		"container_name": name,
		"status":         status,
		"url":            s.urlFor(id),
		"port":           addr.Port,
		"metrics":        outcomePayload(metrics),
		"timestamp":      timestamp(),
	})
}

func (s *APIServer) handleServerAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Server not found")
		return
	}

	var req models.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// Range check happens before the runtime availability check so a
	// bad id reads as not-found even when actions are disabled.
	if _, err := s.reg.AddressOf(id); err != nil {
		respondError(w, http.StatusNotFound, "Server not found")
		return
	}
	if s.actions == nil {
		respondError(w, http.StatusServiceUnavailable, "Container runtime not available, manage servers directly")
		return
	}

	ack, err := s.actions.Perform(r.Context(), id, req.Action)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, ack)
	case errors.Is(err, runtime.ErrInvalidAction):
		respondError(w, http.StatusBadRequest, "Invalid action")
	case errors.Is(err, registry.ErrOutOfRange):
		respondError(w, http.StatusNotFound, "Server not found")
	case errors.Is(err, runtime.ErrNotFound):
		respondError(w, http.StatusNotFound, "Container not found")
	case errors.Is(err, runtime.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "Container runtime not available")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	batch, err := s.dispatcher.Dispatch(r.Context(), s.reg.IDs(), s.getOp("/health"), healthTimeout)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary := aggregate.ClassifyHealth(batch)
	servers := make([]map[string]any, 0, len(batch))
	for _, entry := range batch {
		item := map[string]any{"server_id": entry.ID}
		if status := aggregate.StatusOf(entry.Outcome); status != "" {
			item["status"] = status
		} else {
			item["status"] = "error"
			item["error"] = failureMessage(entry.Outcome)
		}
		servers = append(servers, item)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total_servers": s.reg.Size(),
		"healthy":       summary.Healthy,
		"degraded":      summary.Degraded,
		"unhealthy":     summary.Unhealthy,
		"servers":       servers,
		"timestamp":     timestamp(),
	})
}

func (s *APIServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	batch, err := s.dispatcher.Dispatch(r.Context(), s.reg.IDs(), s.getOp("/metrics"), metricsTimeout)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tally := aggregate.Tally(batch)
	respondJSON(w, http.StatusOK, map[string]any{
		"total_servers":      s.reg.Size(),
		"responding_servers": tally.SuccessCount,
		"failures_by_kind":   tally.FailuresByKind,
		"aggregated_metrics": map[string]any{
			"total_requests": aggregate.SumRequestTotals(batch),
			"cpu":            aggregate.Stats(batch, aggregate.CPUPercent),
			"memory":         aggregate.Stats(batch, aggregate.MemoryPercent),
		},
		"timestamp": timestamp(),
	})
}

type loadTestRequest struct {
	TargetServers []int `json:"target_servers"`
	Requests      int   `json:"requests"`
	Concurrency   int   `json:"concurrency"`
}

func (s *APIServer) handleLoadTest(w http.ResponseWriter, r *http.Request) {
	req := loadTestRequest{Requests: 1000, Concurrency: 10}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	targets := req.TargetServers
	if len(targets) == 0 {
		targets = s.reg.IDs()
	}
	var invalid []int
	for _, id := range targets {
		if _, err := s.reg.AddressOf(id); err != nil {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid server IDs: %v", invalid))
		return
	}

	opts := dispatch.ProbeOptions{Requests: req.Requests, Concurrency: req.Concurrency}
	results := make([]models.LoadStats, 0, len(targets))
	totals := struct{ requests, successful, failed int }{}
	for _, id := range targets {
		stats, err := s.dispatcher.Probe(r.Context(), id, s.getOp("/"), opts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results = append(results, stats)
		totals.requests += stats.Requests
		totals.successful += stats.Successful
		totals.failed += stats.Failed
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"load_test_results": results,
		"total_requests":    totals.requests,
		"total_successful":  totals.successful,
		"total_failed":      totals.failed,
		"timestamp":         timestamp(),
	})
}

type simulateLoadRequest struct {
	ServerIDs   []int   `json:"server_ids"`
	CPUDuration float64 `json:"cpu_duration"`
	MemoryMB    int     `json:"memory_mb"`
}

func (s *APIServer) handleSimulateLoad(w http.ResponseWriter, r *http.Request) {
	req := simulateLoadRequest{CPUDuration: 2.0, MemoryMB: 100}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	results := make([]map[string]any, 0, len(req.ServerIDs))
	for _, id := range req.ServerIDs {
		if _, err := s.reg.AddressOf(id); err != nil {
			results = append(results, map[string]any{
				"server_id": id, "status": "error", "message": "Invalid server ID",
			})
			continue
		}
		url := fmt.Sprintf("%s/simulate-load?cpu_duration=%g&memory_mb=%d", s.urlFor(id), req.CPUDuration, req.MemoryMB)
		callCtx, cancel := context.WithTimeout(r.Context(), simulateTimeout)
		outcome := s.client.Post(callCtx, url)
		cancel()
		if outcome.OK {
			results = append(results, map[string]any{
				"server_id": id, "status": "success", "data": outcome.Body,
			})
		} else {
			results = append(results, map[string]any{
				"server_id": id, "status": "error", "message": failureMessage(outcome),
			})
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"results":   results,
		"timestamp": timestamp(),
	})
}

func (s *APIServer) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		endpoint = "/"
	}
	if !strings.HasPrefix(endpoint, "/") {
		respondError(w, http.StatusBadRequest, "endpoint must start with '/'")
		return
	}

	batch, err := s.dispatcher.Dispatch(r.Context(), s.reg.IDs(), s.getOp(endpoint), healthTimeout)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tally := aggregate.Tally(batch)
	results := make([]map[string]any, 0, len(batch))
	for _, entry := range batch {
		results = append(results, map[string]any{
			"server_id": entry.ID,
			"response":  outcomePayload(entry.Outcome),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"request_id":           uuid.New().String(),
		"endpoint":             endpoint,
		"total_servers":        s.reg.Size(),
		"successful_responses": tally.SuccessCount,
		"failed_responses":     s.reg.Size() - tally.SuccessCount,
		"results":              results,
		"timestamp":            timestamp(),
	})
}
