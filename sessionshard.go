package sessionshard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/adapters/redis"
	"github.com/aretw0/sessionshard/pkg/config"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/persistence/middleware"
	"github.com/aretw0/sessionshard/pkg/pool"
	"github.com/aretw0/sessionshard/pkg/ports"
	"github.com/aretw0/sessionshard/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Handler is an open session handler: a pool of backends, the session
// operations over it, and whatever the handler created and must release.
// It is safe for concurrent use.
type Handler struct {
	pool     *pool.Pool
	store    *session.Store
	manager  *session.Manager
	sessions ports.SessionStore

	dialer      *redis.Dialer
	ownsDialer  bool
	factory     ports.ConnFactory
	locker      ports.DistributedLocker
	lockClient  *backend.Client
	middlewares []middleware.Middleware
	lifetime    func() time.Duration

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Handler.
type Option func(*Handler)

// WithLogger sets a custom structured logger for the handler and every component it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Handler) {
		h.hooks = hooks
	}
}

// WithDialer shares a redis Dialer, and its persistent connections, between handlers.
// A shared Dialer is not closed by Handler.Close.
func WithDialer(d *redis.Dialer) Option {
	return func(h *Handler) {
		h.dialer = d
	}
}

// WithConnFactory replaces the redis backend, e.g. with memory.Backend.Factory.
func WithConnFactory(f ports.ConnFactory) Option {
	return func(h *Handler) {
		h.factory = f
	}
}

// WithMaxLifetime overrides the configured session lifetime.
func WithMaxLifetime(d time.Duration) Option {
	return func(h *Handler) {
		h.lifetime = func() time.Duration { return d }
	}
}

// WithLifetimeFunc makes every write look the session lifetime up again.
func WithLifetimeFunc(fn func() time.Duration) Option {
	return func(h *Handler) {
		h.lifetime = fn
	}
}

// WithLocker holds a distributed lock per session around every operation.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(h *Handler) {
		h.locker = locker
	}
}

// WithMiddleware wraps the session operations, the first middleware being the outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(h *Handler) {
		h.middlewares = append(h.middlewares, mws...)
	}
}

// Open builds a handler from cfg. No connection is made: backends are
// dialed by the first operation routed to them.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endpoints, err := cfg.ResolveEndpoints()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		logger: logging.NewNop(),
	}
	maxLifetime := cfg.MaxLifetime
	h.lifetime = func() time.Duration { return maxLifetime }
	for _, opt := range opts {
		opt(h)
	}

	if h.locker == nil && cfg.Lock.Addr != "" {
		h.lockClient = backend.NewClient(&backend.Options{Addr: cfg.Lock.Addr})
		h.locker = redis.NewLocker(h.lockClient, cfg.Lock.Prefix)
	}

	if err := h.build(endpoints, cfg.Lock.TTL); err != nil {
		h.release()
		return nil, err
	}

	h.logger.InfoContext(ctx, "Session handler opened",
		"members", len(h.pool.Members()),
		"total_weight", h.pool.TotalWeight(),
		"max_lifetime", h.lifetime(),
		"locking", h.locker != nil,
	)
	return h, nil
}

// OpenSavePath is Open with a save path and every other setting at its default.
func OpenSavePath(ctx context.Context, savePath string, opts ...Option) (*Handler, error) {
	cfg := config.Default()
	cfg.SavePath = savePath
	return Open(ctx, cfg, opts...)
}

func (h *Handler) build(endpoints []domain.Endpoint, lockTTL time.Duration) error {
	factory := h.factory
	if factory == nil {
		if h.dialer == nil {
			h.dialer = redis.NewDialer(redis.WithLogger(h.logger))
			h.ownsDialer = true
		}
		factory = h.dialer.Factory
	}

	p, err := pool.New(endpoints, factory,
		pool.WithLogger(h.logger),
		pool.WithHooks(h.hooks),
	)
	if err != nil {
		return err
	}
	h.pool = p

	h.store = session.New(p,
		session.WithLogger(h.logger),
		session.WithHooks(h.hooks),
		session.WithLifetimeFunc(h.lifetime),
	)

	mgrOpts := []session.ManagerOption{session.WithManagerLogger(h.logger)}
	if h.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(h.locker))
		if lockTTL > 0 {
			mgrOpts = append(mgrOpts, session.WithLockTTL(lockTTL))
		}
	}
	h.manager = session.NewManager(h.store, mgrOpts...)
	h.sessions = middleware.Chain(h.manager, h.middlewares...)
	return nil
}

// Read returns the session value, or nil when the session does not exist.
func (h *Handler) Read(ctx context.Context, sessionID string) ([]byte, error) {
	return h.sessions.Read(ctx, sessionID)
}

// Write stores the session value with the session lifetime as TTL.
func (h *Handler) Write(ctx context.Context, sessionID string, value []byte) error {
	return h.sessions.Write(ctx, sessionID, value)
}

// Destroy removes the session.
func (h *Handler) Destroy(ctx context.Context, sessionID string) error {
	return h.sessions.Destroy(ctx, sessionID)
}

// GC is a no-op: backends expire sessions through the TTL set on write.
func (h *Handler) GC(ctx context.Context, maxLifetime time.Duration) error {
	return h.sessions.GC(ctx, maxLifetime)
}

// Pool returns the pool sessions are routed through.
func (h *Handler) Pool() *pool.Pool {
	return h.pool
}

// Sessions returns the session operations as a ports.SessionStore.
func (h *Handler) Sessions() ports.SessionStore {
	return h.sessions
}

// Close tears the pool down and releases what Open created. Later
// operations fail with domain.ErrPoolClosed.
func (h *Handler) Close() error {
	err := h.sessions.Close()
	return errors.Join(err, h.release())
}

func (h *Handler) release() error {
	var errs []error
	if h.ownsDialer && h.dialer != nil {
		if err := h.dialer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dialer: %w", err))
		}
		h.ownsDialer = false
	}
	if h.lockClient != nil {
		if err := h.lockClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lock client: %w", err))
		}
		h.lockClient = nil
	}
	return errors.Join(errs...)
}

var _ ports.SessionStore = (*Handler)(nil)
