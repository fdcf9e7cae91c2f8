// Package health serves liveness and readiness endpoints for a running
// simulation, so a headless session can be supervised like any service.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a health check, replacing any check with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in sorted order.
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth executes all registered health checks and returns the aggregated status.
// The overall status is "healthy" only if all individual checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	return status
}

// LivenessHandler reports that the process is up.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{"status": "alive"}
	json.NewEncoder(w).Encode(response)
}

// ReadinessHandler runs every check and answers 503 if any of them fails.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")

	if health.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(health)
}

// Register mounts /healthz and /readyz on mux.
func (hc *HealthChecker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", hc.LivenessHandler)
	mux.HandleFunc("/readyz", hc.ReadinessHandler)
}

// LoopHealthCheck fails when the game loop has not completed a tick recently.
type LoopHealthCheck struct {
	lastTick func() time.Time
	now      func() time.Time
	maxAge   time.Duration
}

// NewLoopHealthCheck creates a check that reports the loop as stalled once
// the last tick is older than maxAge.
func NewLoopHealthCheck(lastTick func() time.Time, maxAge time.Duration) *LoopHealthCheck {
	return &LoopHealthCheck{
		lastTick: lastTick,
		now:      time.Now,
		maxAge:   maxAge,
	}
}

// Name returns the name of this health check.
func (l *LoopHealthCheck) Name() string {
	return "game_loop"
}

// Check verifies that the loop is ticking.
func (l *LoopHealthCheck) Check(ctx context.Context) error {
	last := l.lastTick()
	if last.IsZero() {
		return fmt.Errorf("game loop has not ticked yet")
	}
	if age := l.now().Sub(last); age > l.maxAge {
		return fmt.Errorf("last tick %v ago exceeds %v", age.Round(time.Millisecond), l.maxAge)
	}
	return nil
}

// CraftHealthCheck reports whether the player craft is still intact.
type CraftHealthCheck struct {
	destroyed func() bool
}

// NewCraftHealthCheck creates a craft status check.
func NewCraftHealthCheck(destroyed func() bool) *CraftHealthCheck {
	return &CraftHealthCheck{destroyed: destroyed}
}

// Name returns the name of this health check.
func (c *CraftHealthCheck) Name() string {
	return "craft"
}

// Check fails once the craft has been destroyed.
func (c *CraftHealthCheck) Check(ctx context.Context) error {
	if c.destroyed() {
		return fmt.Errorf("craft destroyed")
	}
	return nil
}
