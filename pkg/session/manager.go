package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// DefaultLockTTL bounds a distributed lock whose holder never released it.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to each pool member so a Store can be shared
// between goroutines. Connections of a member are never used by two
// operations at once; operations on different members run in parallel.
// Lock entries are reference counted and dropped once unused.
type Manager struct {
	store *Store

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Active locks by shard address

	locker  ports.DistributedLocker // Optional cross-process lock by session id
	lockTTL time.Duration
	logger  *slog.Logger
}

var _ ports.SessionStore = (*Manager)(nil)

// NewManager wraps store.
func NewManager(store *Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release(shard) after unlocking.
func (m *Manager) acquire(shard string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[shard]
	if !exists {
		entry = &lockEntry{}
		m.locks[shard] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(shard string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[shard]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, shard)
	}
}

// Read runs Store.Read while holding the member of sessionID.
func (m *Manager) Read(ctx context.Context, sessionID string) ([]byte, error) {
	var data []byte
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		data, err = m.store.Read(ctx, sessionID)
		return err
	})
	return data, err
}

// Write runs Store.Write while holding the member of sessionID.
func (m *Manager) Write(ctx context.Context, sessionID string, value []byte) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Write(ctx, sessionID, value)
	})
}

// Destroy runs Store.Destroy while holding the member of sessionID.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Destroy(ctx, sessionID)
	})
}

// GC delegates to the store; it touches no connection.
func (m *Manager) GC(ctx context.Context, maxLifetime time.Duration) error {
	return m.store.GC(ctx, maxLifetime)
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Store returns the wrapped store.
func (m *Manager) Store() *Store {
	return m.store
}

// WithLock executes fn while holding, when a locker is configured, the
// distributed lock of the session and then the member sessionID routes to.
// No member is held while waiting for the distributed lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	member, _, err := m.store.Pool().Route([]byte(sessionID))
	if err != nil {
		return err
	}
	shard := member.Addr()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	entry := m.acquire(shard)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(shard)
	}()

	return fn(ctx)
}
