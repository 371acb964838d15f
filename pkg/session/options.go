package session

import (
	"log/slog"
	"time"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for failovers and failed operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks for operations and failovers.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithMaxLifetime sets a fixed session lifetime used as the TTL of every write.
func WithMaxLifetime(d time.Duration) Option {
	return func(s *Store) {
		s.lifetime = func() time.Duration { return d }
	}
}

// WithLifetimeFunc makes every write look the session lifetime up again,
// so a lifetime changed at runtime applies to the next write.
func WithLifetimeFunc(fn func() time.Duration) Option {
	return func(s *Store) {
		s.lifetime = fn
	}
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLocker enables distributed locking of a session across processes.
func WithLocker(locker ports.DistributedLocker) ManagerOption {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithManagerLogger configures a logger for the Manager.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}
