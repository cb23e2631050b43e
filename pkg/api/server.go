package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cuemby/drover/pkg/health"
	"github.com/cuemby/drover/pkg/metrics"
	"github.com/cuemby/drover/pkg/types"
)

// StatusProvider exposes the agent's current status.
type StatusProvider interface {
	Current() types.Status
}

// LifecycleProvider exposes the managed process's lifecycle state.
type LifecycleProvider interface {
	State() types.LifecycleState
}

// TopologyProvider exposes the current desired-state snapshot.
type TopologyProvider interface {
	Snapshot() (*types.Topology, error)
}

// PeerProvider exposes failover peer presence.
type PeerProvider interface {
	PeerPresent() bool
	Peers() []string
}

// Server is the observability HTTP endpoint: liveness, readiness,
// status and Prometheus metrics. It only reads from its providers;
// all mutation stays with the controller.
type Server struct {
	version   string
	startTime time.Time

	status    StatusProvider
	lifecycle LifecycleProvider
	topology  TopologyProvider
	peers     PeerProvider

	mux    *http.ServeMux
	server *http.Server

	// probeTimeout bounds each frontend-port probe in /ready.
	probeTimeout time.Duration
}

// NewServer creates the HTTP server and registers its endpoints.
func NewServer(version string, status StatusProvider, lifecycle LifecycleProvider, topology TopologyProvider, peers PeerProvider) *Server {
	mux := http.NewServeMux()
	s := &Server{
		version:      version,
		startTime:    time.Now(),
		status:       status,
		lifecycle:    lifecycle,
		topology:     topology,
		peers:        peers,
		mux:          mux,
		probeTimeout: time.Second,
	}

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start serves until Shutdown or a listener failure.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the mux for embedding in tests or other servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// HealthResponse represents the liveness check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// StatusResponse summarizes the agent for operators and tooling.
type StatusResponse struct {
	Status        types.Status         `json:"status"`
	Lifecycle     types.LifecycleState `json:"lifecycle"`
	Phase         types.LifecyclePhase `json:"phase"`
	Pools         int                  `json:"pools"`
	FrontendPorts []int                `json:"frontend_ports,omitempty"`
	BindAddresses []string             `json:"bind_addresses,omitempty"`
	Peers         []string             `json:"peers,omitempty"`
	Version       string               `json:"version"`
}

// healthHandler implements the /health endpoint: process liveness only.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
	})
}

// readyHandler implements the /ready endpoint. Ready means: the
// service is started and every configured frontend port accepts TCP
// connections locally, which is exactly what the keepalived check
// scripts will verify.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	state := s.lifecycle.State()
	if state.Started {
		checks["service"] = "started"
	} else {
		checks["service"] = string(state.Phase())
		ready = false
		message = "haproxy is not started"
	}

	snapshot, err := s.topology.Snapshot()
	if err != nil {
		checks["topology"] = fmt.Sprintf("error: %v", err)
		ready = false
		if message == "" {
			message = "topology document is invalid"
		}
	} else {
		checks["topology"] = "ok"
	}

	if state.Started && snapshot != nil {
		for _, port := range snapshot.FrontendPorts() {
			checker := health.NewFrontendChecker(port).WithTimeout(s.probeTimeout)
			result := checker.Check(r.Context())
			name := fmt.Sprintf("port %d", port)
			if result.Healthy {
				checks[name] = "ok"
			} else {
				checks[name] = result.Message
				ready = false
				if message == "" {
					message = fmt.Sprintf("frontend port %d is not reachable", port)
				}
			}
		}
	}

	statusCode := http.StatusOK
	statusText := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		statusText = "not ready"
	}

	writeJSON(w, statusCode, ReadyResponse{
		Status:    statusText,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	})
}

// statusHandler implements the /status endpoint.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := s.lifecycle.State()
	response := StatusResponse{
		Status:    s.status.Current(),
		Lifecycle: state,
		Phase:     state.Phase(),
		Peers:     s.peers.Peers(),
		Version:   s.version,
	}
	if snapshot, err := s.topology.Snapshot(); err == nil {
		response.Pools = len(snapshot.Pools)
		response.FrontendPorts = snapshot.FrontendPorts()
		response.BindAddresses = snapshot.BindAddresses
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
