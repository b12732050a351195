// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool and *storage.AvatarStore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is one backing service readiness depends on.
type Dependency struct {
	Name   string
	Pinger Pinger
}

type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthResult struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type Checker struct {
	deps   []Dependency
	logger *slog.Logger
	up     *prometheus.GaugeVec
}

// NewChecker registers the auth_health_check_up gauge on reg. Dependencies
// are checked in the order given.
func NewChecker(logger *slog.Logger, reg prometheus.Registerer, deps ...Dependency) *Checker {
	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "auth",
		Name:      "health_check_up",
		Help:      "Whether a dependency is reachable. 1 = up, 0 = down.",
	}, []string{"dependency"})
	reg.MustRegister(up)

	return &Checker{
		deps:   deps,
		logger: logger.With("component", "health"),
		up:     up,
	}
}

// Liveness reports the process itself; it never touches dependencies.
func (c *Checker) Liveness(_ context.Context) HealthResult {
	return HealthResult{Status: "up"}
}

// Readiness is down as soon as any dependency fails its ping.
func (c *Checker) Readiness(ctx context.Context) HealthResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	res := HealthResult{Status: "up", Checks: make(map[string]CheckResult, len(c.deps))}
	for _, d := range c.deps {
		err := d.Pinger.Ping(ctx)
		if err != nil {
			c.logger.Warn("dependency unreachable", "dependency", d.Name, "error", err)
			res.Status = "down"
			res.Checks[d.Name] = CheckResult{Status: "down", Error: err.Error()}
			c.up.WithLabelValues(d.Name).Set(0)
			continue
		}
		res.Checks[d.Name] = CheckResult{Status: "up"}
		c.up.WithLabelValues(d.Name).Set(1)
	}
	return res
}

// GET /healthz
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	c.write(w, c.Liveness(r.Context()))
}

// GET /readyz
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	c.write(w, c.Readiness(r.Context()))
}

func (c *Checker) write(w http.ResponseWriter, res HealthResult) {
	status := http.StatusOK
	if res.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		c.logger.Error("write health response", "error", err)
	}
}
