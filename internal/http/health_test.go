package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencies(t *testing.T) {
	tests := map[string]struct {
		probes   []Probe
		wantCode int
		wantBody string
	}{
		"no probes": {
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok","service":"checkout-service","dependencies":[]}`,
		},
		"all healthy": {
			probes: []Probe{
				{Name: "postgres", Check: func(context.Context) error { return nil }},
				{Name: "redis", Check: func(context.Context) error { return nil }},
			},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok","service":"checkout-service","dependencies":[{"name":"postgres","ok":true},{"name":"redis","ok":true}]}`,
		},
		"redis down": {
			probes: []Probe{
				{Name: "postgres", Check: func(context.Context) error { return nil }},
				{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"degraded","service":"checkout-service","dependencies":[{"name":"postgres","ok":true},{"name":"redis","ok":false,"error":"connection refused"}]}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := &HealthHandler{Probes: tt.probes}
			rec := httptest.NewRecorder()
			h.Dependencies(rec, httptest.NewRequest(http.MethodGet, "/health/dependencies", nil))

			require.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestProbeTimeout(t *testing.T) {
	res := runProbe(context.Background(), Probe{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "deadline exceeded")
}
