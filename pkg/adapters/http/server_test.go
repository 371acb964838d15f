package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/sessionshard"
	"github.com/aretw0/sessionshard/pkg/adapters/memory"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, savePath string, opts ...Option) (http.Handler, *sessionshard.Handler, *memory.Backend) {
	t.Helper()

	backends := memory.NewBackend()
	h, err := sessionshard.OpenSavePath(context.Background(), savePath,
		sessionshard.WithConnFactory(backends.Factory),
	)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	return NewHandler(h, opts...), h, backends
}

func do(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSessions_Lifecycle(t *testing.T) {
	handler, _, backends := newTestHandler(t, "tcp://10.0.0.1")

	w := do(handler, http.MethodGet, "/sessions/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(handler, http.MethodPut, "/sessions/abc", "hello")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, 1, backends.Server("10.0.0.1:6379").Len())

	w = do(handler, http.MethodGet, "/sessions/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))

	w = do(handler, http.MethodDelete, "/sessions/abc", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, backends.Server("10.0.0.1:6379").Len())
}

func TestSessions_EscapedID(t *testing.T) {
	handler, h, _ := newTestHandler(t, "tcp://10.0.0.1")

	w := do(handler, http.MethodPut, "/sessions/a%2Fb", "v")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	data, err := h.Read(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestSessions_ValueTooLarge(t *testing.T) {
	handler, _, _ := newTestHandler(t, "tcp://10.0.0.1", WithMaxValueSize(4))

	w := do(handler, http.MethodPut, "/sessions/abc", "too large")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSessions_BackendDown(t *testing.T) {
	handler, _, backends := newTestHandler(t, "tcp://10.0.0.1")
	backends.Server("10.0.0.1:6379").SetDown(true)

	w := do(handler, http.MethodPut, "/sessions/abc", "v")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(handler, http.MethodGet, "/sessions/abc", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSessions_Closed(t *testing.T) {
	handler, h, _ := newTestHandler(t, "tcp://10.0.0.1")
	require.NoError(t, h.Close())

	w := do(handler, http.MethodGet, "/sessions/abc", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouteSession(t *testing.T) {
	handler, _, _ := newTestHandler(t, "tcp://10.0.0.1?prefix=app: tcp://10.0.0.2")

	// "s" is odd: the second of two members
	w := do(handler, http.MethodGet, "/sessions/sess-1/route", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "10.0.0.2:6379", resp.Shard)
	assert.Equal(t, 1, resp.Index)
	assert.Equal(t, uint32(1), resp.Position)
	assert.Equal(t, domain.DefaultPrefix+"sess-1", resp.Key)
}

func TestGetPool(t *testing.T) {
	handler, h, _ := newTestHandler(t, "tcp://10.0.0.1?weight=2&auth=pw&failover=10.0.0.9 tcp://10.0.0.2")

	require.NoError(t, h.Write(context.Background(), "\x00abc", []byte("v")))

	w := do(handler, http.MethodGet, "/pool", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp PoolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint32(3), resp.TotalWeight)
	require.Len(t, resp.Members, 2)

	first := resp.Members[0]
	assert.Equal(t, "10.0.0.1:6379", first.Addr)
	assert.Equal(t, uint32(2), first.Weight)
	assert.True(t, first.Auth)
	assert.Equal(t, domain.StatusConnected.String(), first.Status)
	require.NotNil(t, first.Failover)
	assert.Equal(t, "10.0.0.9:6379", first.Failover.Addr)

	second := resp.Members[1]
	assert.Nil(t, second.Failover)
	assert.Equal(t, domain.StatusDisconnected.String(), second.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	backends := memory.NewBackend()
	h, err := sessionshard.OpenSavePath(context.Background(), "tcp://10.0.0.1",
		sessionshard.WithConnFactory(backends.Factory),
		sessionshard.WithHooks(metrics.Hooks()),
	)
	require.NoError(t, err)
	defer h.Close()

	handler := NewHandler(h, WithMetrics(reg))
	do(handler, http.MethodPut, "/sessions/abc", "v")

	w := do(handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sessionshard_operations_total{op="write",result="ok",shard="10.0.0.1:6379"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	handler, _, _ := newTestHandler(t, "tcp://10.0.0.1")

	w := do(handler, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndInfo(t *testing.T) {
	handler, _, _ := newTestHandler(t, "tcp://10.0.0.1")

	w := do(handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(handler, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, sessionshard.Version, info["version"])
}

func TestCORSPreflight(t *testing.T) {
	handler, _, _ := newTestHandler(t, "tcp://10.0.0.1")

	w := do(handler, http.MethodOptions, "/sessions/abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
