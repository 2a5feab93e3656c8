package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagsin/internal/eventbus"
	"sagsin/internal/routecache"
	"sagsin/pkg/cache"
	"sagsin/pkg/config"
	"sagsin/pkg/metrics"
	"sagsin/services/controller-svc/internal/state"
	"sagsin/services/controller-svc/internal/tcprelay"
)

var (
	testMetricsOnce sync.Once
	testMetrics     *metrics.Metrics
)

func sharedTestMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.InitMetrics("sagsin_httpapi_test", "controller")
	})
	return testMetrics
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "sagsin-controller-test"
	cfg.HTTP.Port = 8080
	cfg.HTTP.CORS = config.CORSConfig{Enabled: false}
	cfg.TCP.Port = 9000
	cfg.Log.Level = "info"
	cfg.Sim.EpochSec = 10 * time.Second
	cfg.Sim.SpeedMultiplier = 1.0
	cfg.Sim.LinkFlipProb = 0.0
	cfg.ACO = config.ACOConfig{
		Ants: 4, Iters: 3, Alpha: 1, Beta: 3, Rho: 0.2, Xi: 0.1,
		Q0: 0.2, Tau0: 0.2, MMAS: true, TauMin: 0.01, TauMax: 2.0,
		Weights: []float64{0.5, 0.2, 0.2, 0.1},
	}
	cfg.LinkModel = config.LinkModelConfig{
		FreqHz: 2.4e9, BWHz: 20e6, PTxDBm: 20, NoiseDBm: -100, ProcQueueMs: 2,
	}
	return cfg
}

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	backend, err := cache.New(cache.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	rc := routecache.New(backend, time.Minute)
	bus := eventbus.New(func() {})
	ctrl, err := state.New(testConfig(), bus, rc, sharedTestMetrics())
	require.NoError(t, err)

	relay := tcprelay.New(func(int32) string { return "127.0.0.1" }, 1, 20*time.Millisecond)
	return New(ctrl, bus, relay, sharedTestMetrics(), func() error { return nil })
}

func doRequest(h *Handlers, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.Mux(func(next http.Handler) http.Handler { return next }).ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHandleNodes_ReturnsToyPopulation(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodGet, "/nodes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var nodes []nodeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	assert.Len(t, nodes, 3)
}

func TestHandleRoute_ResolvesPath(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodPost, "/route", routeRequest{Src: 0, Dst: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	var res routeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Path)
}

func TestHandleRoute_SameSrcDstReturns400(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodPost, "/route", routeRequest{Src: 0, Dst: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleToggleLink_UnknownPairReturns400(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodPost, "/simulate/toggle-link", toggleLinkRequest{U: 0, V: 99, Enabled: false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSetSpeed_RejectsNonPositive(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodPost, "/simulate/set-speed", setSpeedRequest{Multiplier: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSetSpeed_ThenGetSpeedReflectsIt(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodPost, "/simulate/set-speed", setSpeedRequest{Multiplier: 3.0})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/simulate/get-speed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3.0, got["multiplier"])
}

func TestHandleSendPacket_ReturnsSessionAndPath(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodPost, "/simulate/send-packet", sendPacketRequest{Src: 0, Dst: 2, Protocol: "udp"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res sendPacketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.SessionID)
	assert.NotEmpty(t, res.Path)

	require.NoError(t, h.ctrl.DrainSessions(context.Background()))
}

func TestHandleTCPTest_ReportsUnreachableHost(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodGet, "/tcp/test?node_id=0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["ok"])
}

func TestHandleConfigReload_InvokesHook(t *testing.T) {
	h := newTestHandlers(t)
	called := false
	h.reload = func() error { called = true; return nil }

	rec := doRequest(h, http.MethodPost, "/config/reload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
