// Package server hosts the two HTTP surfaces of the farm: the control
// plane API and the simulated server instance.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/serverfarm/farmctl/client"
	"github.com/serverfarm/farmctl/dispatch"
	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
	"github.com/serverfarm/farmctl/runtime"
)

const (
	healthTimeout   = 5 * time.Second
	metricsTimeout  = 10 * time.Second
	simulateTimeout = 30 * time.Second
)

// APIServer is the control plane: it fans requests out to the fleet,
// aggregates the answers, and forwards lifecycle actions to the
// container runtime. A nil runtime disables lifecycle actions and
// container stats; the HTTP read paths keep working.
type APIServer struct {
	router     *mux.Router
	reg        *registry.Registry
	dispatcher *dispatch.Dispatcher
	client     *client.Client
	rt         runtime.Runtime
	actions    *runtime.Actions

	// urlFor resolves a server id to its base URL. Overridable in
	// tests, where node servers listen on arbitrary ports.
	urlFor func(id int) string

	sampleInterval time.Duration
}

func NewAPIServer(reg *registry.Registry, rt runtime.Runtime) *APIServer {
	s := &APIServer{
		router:         mux.NewRouter(),
		reg:            reg,
		dispatcher:     dispatch.New(reg),
		client:         client.New(),
		rt:             rt,
		sampleInterval: 0, // sampler default
	}
	if rt != nil {
		s.actions = runtime.NewActions(reg, rt)
	}
	s.urlFor = func(id int) string {
		addr, _ := reg.AddressOf(id)
		return addr.URL()
	}
	s.setupRoutes()
	return s
}

func (s *APIServer) Start(port int) error {
	log.Printf("🎮 Control plane starting on port %d (managing %d servers)", port, s.reg.Size())
	if s.rt == nil {
		log.Printf("⚠️  Container runtime unavailable, lifecycle actions are disabled")
	}
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.router)
}

func (s *APIServer) Handler() http.Handler { return s.router }

func (s *APIServer) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/api/servers", s.handleListServers).Methods("GET")
	s.router.HandleFunc("/api/servers/{id:[0-9]+}", s.handleGetServer).Methods("GET")
	s.router.HandleFunc("/api/servers/{id:[0-9]+}/action", s.handleServerAction).Methods("POST")
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/metrics", s.handleMetrics).Methods("GET")
	s.router.HandleFunc("/api/load-test", s.handleLoadTest).Methods("POST")
	s.router.HandleFunc("/api/simulate-load", s.handleSimulateLoad).Methods("POST")
	s.router.HandleFunc("/api/broadcast", s.handleBroadcast).Methods("POST")
}

// getOp builds a dispatch operation that GETs path on the target node.
func (s *APIServer) getOp(path string) dispatch.Operation {
	return func(ctx context.Context, id int) models.Outcome {
		return s.client.Get(ctx, s.urlFor(id)+path)
	}
}

func (s *APIServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":            "Server Farm Control Plane",
		"servers_managed": s.reg.Size(),
		"endpoints": map[string]string{
			"servers":   "/api/servers",
			"health":    "/api/health",
			"metrics":   "/api/metrics",
			"load_test": "/api/load-test",
			"broadcast": "/api/broadcast",
		},
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// outcomePayload renders an outcome as either the node's own JSON or an
// error object, mirroring what each node answered.
func outcomePayload(o models.Outcome) any {
	if o.OK {
		return o.Body
	}
	return map[string]string{"error": failureMessage(o)}
}

func failureMessage(o models.Outcome) string {
	switch o.Kind {
	case models.FailTimeout:
		return "timeout"
	case models.FailHTTP:
		return fmt.Sprintf("HTTP %d", o.Status)
	default:
		if o.Detail != "" {
			return o.Detail
		}
		return string(o.Kind)
	}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
