package observability_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// series returns, per metric family name, the number of label combinations.
func series(t *testing.T, reg *prometheus.Registry) map[string]int {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]int)
	for _, f := range families {
		out[f.GetName()] = len(f.GetMetric())
	}
	return out
}

// counter returns the value of the counter family name with the given label values.
func counter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := metrics.Hooks()
	ctx := context.Background()

	hooks.EmitRoute(ctx, &domain.RouteEvent{Shard: "a:6379"})
	hooks.EmitOperation(ctx, &domain.OperationEvent{Op: "read", Shard: "a:6379", Duration: time.Millisecond})
	hooks.EmitOperation(ctx, &domain.OperationEvent{
		Op:    "write",
		Shard: "a:6379",
		Err:   fmt.Errorf("wrapped: %w", domain.ErrIO),
	})
	hooks.EmitOperation(ctx, &domain.OperationEvent{Op: "destroy", Shard: "a:6379", Err: errors.New("boom")})
	hooks.EmitFailover(ctx, &domain.FailoverEvent{Op: "write", From: "a:6379", To: "b:6379"})

	got := series(t, reg)
	assert.Equal(t, 3, got["sessionshard_operations_total"])
	assert.Equal(t, 3, got["sessionshard_operation_duration_seconds"])
	assert.Equal(t, 1, got["sessionshard_failovers_total"])
	assert.Equal(t, 1, got["sessionshard_routes_total"])

	assert.Equal(t, 1.0, counter(t, reg, "sessionshard_operations_total", map[string]string{"op": "write", "result": "io_error"}))
	assert.Equal(t, 1.0, counter(t, reg, "sessionshard_operations_total", map[string]string{"op": "destroy", "result": "error"}))
	assert.Equal(t, 1.0, counter(t, reg, "sessionshard_failovers_total", map[string]string{"op": "write", "shard": "a:6379"}))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	second, err := observability.NewMetrics(reg)
	require.NoError(t, err, "registering on the same registry again reuses the collectors")

	ctx := context.Background()
	first.Hooks().EmitRoute(ctx, &domain.RouteEvent{Shard: "a"})
	second.Hooks().EmitRoute(ctx, &domain.RouteEvent{Shard: "a"})

	assert.Equal(t, 2.0, counter(t, reg, "sessionshard_routes_total", map[string]string{"shard": "a"}))
}
