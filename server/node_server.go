package server

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	goruntime "runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/serverfarm/farmctl/models"
)

// Load thresholds above which a node reports itself degraded.
const degradedThreshold = 80.0

// NodeServer is one simulated server instance. Its request counter is
// node-local state with a single writer: only this server's own
// handlers touch it, the control plane just reads it through /metrics.
type NodeServer struct {
	router   *mux.Router
	serverID string
	port     int
	hostname string
	started  time.Time

	mu       sync.Mutex
	requests int64
}

func NewNodeServer(serverID string, port int, hostname string) *NodeServer {
	n := &NodeServer{
		router:   mux.NewRouter(),
		serverID: serverID,
		port:     port,
		hostname: hostname,
		started:  time.Now(),
	}
	n.setupRoutes()
	return n
}

func (n *NodeServer) Start() error {
	log.Printf("🚀 Server %s starting on %s:%d", n.serverID, n.hostname, n.port)
	return http.ListenAndServe(fmt.Sprintf(":%d", n.port), n.router)
}

func (n *NodeServer) Handler() http.Handler { return n.router }

func (n *NodeServer) setupRoutes() {
	n.router.HandleFunc("/", n.handleRoot).Methods("GET")
	n.router.HandleFunc("/health", n.handleHealth).Methods("GET")
	n.router.HandleFunc("/metrics", n.handleMetrics).Methods("GET")
	n.router.HandleFunc("/slow", n.handleSlow).Methods("GET")
	n.router.HandleFunc("/simulate-load", n.handleSimulateLoad).Methods("POST")
	n.router.HandleFunc("/error/{code:[0-9]+}", n.handleError).Methods("GET")
}

func (n *NodeServer) countRequest() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests++
	return n.requests
}

func (n *NodeServer) requestTotal() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests
}

func (n *NodeServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	total := n.countRequest()
	respondJSON(w, http.StatusOK, map[string]any{
		"server_id":      n.serverID,
		"hostname":       n.hostname,
		"port":           n.port,
		"status":         "running",
		"uptime_seconds": time.Since(n.started).Seconds(),
		"total_requests": total,
		"timestamp":      timestamp(),
	})
}

func (n *NodeServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpu := selfCPUPercent(100 * time.Millisecond)
	_, _, _, memPercent := selfMemory()

	status := models.StatusHealthy
	if cpu > degradedThreshold || memPercent > degradedThreshold {
		status = models.StatusDegraded
	}
	respondJSON(w, http.StatusOK, models.HealthPayload{
		Status:    status,
		ServerID:  n.serverID,
		Timestamp: timestamp(),
	})
}

func (n *NodeServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(n.started).Seconds()
	total := n.requestTotal()
	totalMB, availableMB, usedMB, memPercent := selfMemory()

	var rate float64
	if uptime > 0 {
		rate = float64(total) / uptime * 60
	}
	respondJSON(w, http.StatusOK, models.MetricsPayload{
		ServerID:      n.serverID,
		Hostname:      n.hostname,
		Port:          n.port,
		UptimeSeconds: uptime,
		Requests:      models.RequestStats{Total: total, RatePerMinute: rate},
		CPU: &models.CPUStats{
			Percent: selfCPUPercent(100 * time.Millisecond),
			Count:   goruntime.NumCPU(),
		},
		Memory: &models.MemoryStats{
			TotalMB:     totalMB,
			AvailableMB: availableMB,
			UsedMB:      usedMB,
			Percent:     memPercent,
		},
		Timestamp: timestamp(),
	})
}

func (n *NodeServer) handleSlow(w http.ResponseWriter, r *http.Request) {
	n.countRequest()
	delay := time.Duration(float64(time.Second) * (1 + rand.Float64()*4))

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-r.Context().Done():
		return
	case <-t.C:
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"server_id":     n.serverID,
		"message":       "This was a slow response",
		"delay_seconds": delay.Seconds(),
		"timestamp":     timestamp(),
	})
}

func (n *NodeServer) handleSimulateLoad(w http.ResponseWriter, r *http.Request) {
	n.countRequest()

	cpuDuration := 2.0
	if raw := r.URL.Query().Get("cpu_duration"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			cpuDuration = v
		}
	}
	memoryMB := 100
	if raw := r.URL.Query().Get("memory_mb"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			memoryMB = v
		}
	}

	burnCPU(time.Duration(cpuDuration * float64(time.Second)))
	hog := make([]byte, memoryMB<<20)
	for i := 0; i < len(hog); i += 4096 {
		hog[i] = 1
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"server_id":           n.serverID,
		"message":             "Load simulation completed",
		"cpu_duration":        cpuDuration,
		"memory_allocated_mb": memoryMB,
		"timestamp":           timestamp(),
	})
}

var errorMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusInternalServerError: "Internal Server Error",
	http.StatusServiceUnavailable:  "Service Unavailable",
}

func (n *NodeServer) handleError(w http.ResponseWriter, r *http.Request) {
	n.countRequest()
	code, _ := strconv.Atoi(mux.Vars(r)["code"])
	message, ok := errorMessages[code]
	if !ok {
		message = "Unknown Error"
	}
	if code < 400 || code > 599 {
		code = http.StatusInternalServerError
	}
	respondError(w, code, message)
}

func burnCPU(d time.Duration) {
	deadline := time.Now().Add(d)
	sink := 0
	for time.Now().Before(deadline) {
		for i := 0; i < 1000; i++ {
			sink += i
		}
	}
	_ = sink
}
