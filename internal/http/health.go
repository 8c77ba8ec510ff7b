package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const probeTimeout = 2 * time.Second

// Probe checks one backing dependency (postgres, redis, rabbitmq).
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type ProbeResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthHandler struct {
	Probes []Probe
}

func runProbe(ctx context.Context, p Probe) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := p.Check(ctx); err != nil {
		return ProbeResult{Name: p.Name, Error: err.Error()}
	}
	return ProbeResult{Name: p.Name, OK: true}
}

// Dependencies runs every probe concurrently and answers 503 if any failed.
func (h *HealthHandler) Dependencies(w http.ResponseWriter, r *http.Request) {
	results := make([]ProbeResult, len(h.Probes))

	var wg sync.WaitGroup
	wg.Add(len(h.Probes))
	for i := range h.Probes {
		go func() {
			defer wg.Done()
			results[i] = runProbe(r.Context(), h.Probes[i])
		}()
	}
	wg.Wait()

	status, code := "ok", http.StatusOK
	for _, res := range results {
		if !res.OK {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"service":      "checkout-service",
		"dependencies": results,
	})
}
