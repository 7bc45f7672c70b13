package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string         `json:"status"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Check probes one dependency
type Check func(ctx context.Context) HealthCheckResult

// Ready reports readiness from every check, run in parallel. Any check
// that is not "up" or "disabled" makes the proxy not ready.
func Ready(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		type named struct {
			name   string
			result HealthCheckResult
		}
		results := make(chan named, len(checks))
		for name, check := range checks {
			go func(name string, check Check) {
				results <- named{name, check(ctx)}
			}(name, check)
		}

		report := make(map[string]HealthCheckResult, len(checks))
		allHealthy := true
		for range checks {
			res := <-results
			report[res.name] = res.result
			if res.result.Status != "up" && res.result.Status != "disabled" {
				allHealthy = false
			}
		}

		response := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    report,
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}

// Broker is the connection state of the event feed
type Broker interface {
	IsClosed() bool
}

// BrokerCheck reports the event feed connection. A nil broker means the
// feed is not configured.
func BrokerCheck(b Broker) Check {
	return func(ctx context.Context) HealthCheckResult {
		if b == nil {
			return HealthCheckResult{Status: "disabled"}
		}
		if b.IsClosed() {
			return HealthCheckResult{Status: "down", Error: "connection closed"}
		}
		return HealthCheckResult{Status: "up"}
	}
}

// HTTPCheck reports whether url answers at all. Any HTTP status counts as
// reachable; storage APIs answer 401 to anonymous probes.
func HTTPCheck(client *http.Client, url string) Check {
	return func(ctx context.Context) HealthCheckResult {
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return HealthCheckResult{Status: "down", Error: err.Error()}
		}
		resp, err := client.Do(req)
		latency := time.Since(start)
		if err != nil {
			return HealthCheckResult{
				Status:    "down",
				LatencyMs: latency.Milliseconds(),
				Error:     err.Error(),
			}
		}
		resp.Body.Close()

		return HealthCheckResult{
			Status:    "up",
			LatencyMs: latency.Milliseconds(),
			Metadata:  map[string]any{"status_code": resp.StatusCode},
		}
	}
}
