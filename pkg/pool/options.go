package pool

import (
	"log/slog"

	"github.com/aretw0/sessionshard/pkg/domain"
)

// Option configures the Pool.
type Option func(*Pool)

// WithLogger configures a logger for construction, routing and teardown events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithHooks registers observability hooks. Only OnRoute is used by the pool.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pool) {
		p.hooks = hooks
	}
}
