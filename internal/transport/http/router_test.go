package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"vouch/internal/platform/metrics"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
	"vouch/pkg/testutil"
)

type echoHandler struct{}

func (echoHandler) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"requestId": requestcontext.RequestID(r.Context()),
			"hasTime":   !requestcontext.Now(r.Context()).IsZero(),
		})
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func newRouter(health map[string]HealthCheck) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Logger:   zerolog.Nop(),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Health:   health,
		Handlers: []Registrar{echoHandler{}},
	})
}

func TestHealth(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		router := newRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("a failing check degrades", func(t *testing.T) {
		router := newRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		testutil.AssertJSONContains(t, rr, "status", "degraded")
		assert.NotContains(t, rr.Body.String(), "refused")
	})
}

func TestMiddlewareChain(t *testing.T) {
	router := newRouter(nil)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/echo"))
	testutil.AssertStatusOK(t, rr)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.NotEmpty(t, (*body)["requestId"])
	assert.Equal(t, true, (*body)["hasTime"])

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/panic"))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(nil)
	testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/echo"))
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	assert.Contains(t, rr.Body.String(), "/echo")
}
