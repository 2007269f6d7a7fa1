// Package handlers serves the operational probes.
package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 3 * time.Second

// Dependency is a backing service checked by the readiness probe.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// Probe answers GET /health and GET /health/ready.
type Probe struct {
	version string
	deps    []Dependency
	timeout time.Duration
}

func NewProbe(version string, deps ...Dependency) *Probe {
	return &Probe{version: version, deps: deps, timeout: readinessTimeout}
}

type liveResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type readyResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Live only confirms the process answers.
func (p *Probe) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, liveResponse{Status: "ok", Version: p.version})
}

// Ready pings every dependency in parallel and answers 503 if any fails.
func (p *Probe) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), p.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		statuses = make(map[string]dependencyStatus, len(p.deps))
		healthy  = true
	)
	for _, d := range p.deps {
		wg.Add(1)
		go func(d Dependency) {
			defer wg.Done()
			start := time.Now()
			err := d.Ping(ctx)
			st := dependencyStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				st.Status = "unhealthy"
				st.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			statuses[d.Name] = st
			if err != nil {
				healthy = false
			}
		}(d)
	}
	wg.Wait()

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, readyResponse{Status: "degraded", Dependencies: statuses})
	}
	return c.JSON(http.StatusOK, readyResponse{Status: "ok", Dependencies: statuses})
}
