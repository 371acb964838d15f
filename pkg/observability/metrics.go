package observability

import (
	"context"
	"errors"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records session operations and failovers as Prometheus series.
type Metrics struct {
	operations *prometheus.CounterVec
	failovers  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	routes     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionshard_operations_total",
				Help: "Session operations by operation, shard and result",
			},
			[]string{"op", "shard", "result"},
		),
		failovers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionshard_failovers_total",
				Help: "Operations retried on a failover connection",
			},
			[]string{"op", "shard"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessionshard_operation_duration_seconds",
				Help:    "Duration of session operations, failover included",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"op", "shard"},
		),
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionshard_routes_total",
				Help: "Session keys routed to each shard",
			},
			[]string{"shard"},
		),
	}

	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.failovers, err = register(reg, m.failovers); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.routes, err = register(reg, m.routes); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			m.routes.WithLabelValues(e.Shard).Inc()
		},
		OnOperation: func(ctx context.Context, e *domain.OperationEvent) {
			m.operations.WithLabelValues(e.Op, e.Shard, result(e)).Inc()
			m.duration.WithLabelValues(e.Op, e.Shard).Observe(e.Duration.Seconds())
		},
		OnFailover: func(ctx context.Context, e *domain.FailoverEvent) {
			m.failovers.WithLabelValues(e.Op, e.From).Inc()
		},
	}
}

func result(e *domain.OperationEvent) string {
	switch {
	case e.Err == nil:
		return "ok"
	case errors.Is(e.Err, domain.ErrIO):
		return "io_error"
	default:
		return "error"
	}
}
