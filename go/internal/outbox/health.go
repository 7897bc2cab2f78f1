package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	EventsProcessed   uint64    `json:"events_processed"`
	LastEventTime     time.Time `json:"last_event_time"`
	DatabaseConnected bool      `json:"database_connected"`
	BusConnected      bool      `json:"bus_connected"`
	ListenerActive    bool      `json:"listener_active"`
	Errors            []string  `json:"errors"`
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker reports relay liveness over HTTP.
type HealthChecker struct {
	relay        *Relay
	db           pinger
	busConnected func() bool
	running      func() bool
}

func NewHealthChecker(relay *Relay, db pinger, busConnected, running func() bool) *HealthChecker {
	return &HealthChecker{relay: relay, db: db, busConnected: busConnected, running: running}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Errors: []string{}}
	status.EventsProcessed, status.LastEventTime = h.relay.Stats()

	if err := h.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	if h.busConnected != nil {
		status.BusConnected = h.busConnected()
		if !status.BusConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if h.running != nil {
		status.ListenerActive = h.running()
		if !status.ListenerActive {
			status.Healthy = false
			status.Errors = append(status.Errors, "listener not active")
		}
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)
	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
