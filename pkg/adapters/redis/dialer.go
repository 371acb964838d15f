package redis

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Dialer builds redis connections for a pool and keeps the clients of
// persistent endpoints alive across pools.
type Dialer struct {
	mu     sync.Mutex
	shared map[string]*backend.Client
	closed bool
	logger *slog.Logger
}

// DialerOption configures the Dialer.
type DialerOption func(*Dialer)

// WithLogger configures a logger for the Dialer.
func WithLogger(logger *slog.Logger) DialerOption {
	return func(d *Dialer) {
		d.logger = logger
	}
}

// NewDialer creates a Dialer with an empty persistent registry.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{
		shared: make(map[string]*backend.Client),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Factory implements ports.ConnFactory. It performs no I/O.
func (d *Dialer) Factory(addr domain.Address, ep domain.Endpoint) (ports.Conn, error) {
	if addr.IsZero() {
		return nil, fmt.Errorf("%w: empty address", domain.ErrConfig)
	}

	c := &Conn{
		addr:   addr.String(),
		opts:   clientOptions(addr, ep),
		dialer: d,
	}
	if ep.Persistent {
		c.persistent = persistentKey(addr, ep.PersistentID)
	}
	return c, nil
}

// client returns the shared client registered under key, creating it on
// first use. With an empty key, or once the Dialer is closed, it returns a
// new private client and shared is false.
func (d *Dialer) client(opts *backend.Options, key string) (c *backend.Client, shared bool) {
	if key == "" {
		return backend.NewClient(opts), false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return backend.NewClient(opts), false
	}
	if c, ok := d.shared[key]; ok {
		return c, true
	}
	c = backend.NewClient(opts)
	d.shared[key] = c
	d.logger.Debug("Persistent connection registered", "key", key)
	return c, true
}

// Persistent returns the number of shared clients currently registered.
func (d *Dialer) Persistent() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.shared)
}

// Close closes every shared client. Connections still attached to one of
// them fail their next command.
func (d *Dialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	var errs []error
	for key, c := range d.shared {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close persistent %s: %w", key, err))
		}
		delete(d.shared, key)
	}
	return errors.Join(errs...)
}

func persistentKey(addr domain.Address, id string) string {
	if id == "" {
		return addr.String()
	}
	return addr.String() + "#" + id
}
