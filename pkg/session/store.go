package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/pool"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// Operation names used in logs, hooks and metrics.
const (
	OpRead    = "read"
	OpWrite   = "write"
	OpDestroy = "destroy"
	OpGC      = "gc"
)

// Store runs the session operations against the member a session id routes to.
// A Store does no locking of its own; see Manager for concurrent use.
type Store struct {
	pool     *pool.Pool
	lifetime func() time.Duration

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

var _ ports.SessionStore = (*Store)(nil)

// New creates a Store over p. The Store takes ownership of the pool:
// closing the Store closes it.
func New(p *pool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:   p,
		logger: logging.NewNop(),
	}
	WithMaxLifetime(domain.DefaultMaxLifetime)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pool returns the pool the Store routes through.
func (s *Store) Pool() *pool.Pool {
	return s.pool
}

// Read returns the value stored for sessionID, or nil when there is none.
//
// The GET is sent to the primary. When it fails and the primary holds a raised
// fault, the fault is cleared and the GET is repeated once on the failover;
// that outcome is final. An absent key is not a failure and never fails over.
func (s *Store) Read(ctx context.Context, sessionID string) (data []byte, err error) {
	m, err := s.pool.Select(ctx, []byte(sessionID))
	if err != nil {
		return nil, err
	}
	key := pool.StorageKey(m, sessionID)

	start := time.Now()
	failedOver := false
	defer func() {
		clearFaults(m)
		s.done(ctx, OpRead, m, failedOver, start, err)
	}()

	data, err = get(ctx, m.Primary(), key)
	if err == nil || !m.HasFailover() {
		return data, err
	}

	fault := m.Primary().Fault()
	if fault == nil {
		return nil, err
	}
	m.Primary().ClearFault()

	failedOver = true
	s.failover(ctx, OpRead, m, fault)
	return get(ctx, m.Failover(), key)
}

// Write stores value for sessionID with the session lifetime as TTL.
//
// The primary runs in non-throwing mode for the whole operation and gets its
// previous mode back on return. Any failure on the primary retries the same
// SETEX once on the failover, whose outcome is final.
func (s *Store) Write(ctx context.Context, sessionID string, value []byte) (err error) {
	m, err := s.pool.Select(ctx, []byte(sessionID))
	if err != nil {
		return err
	}

	primary := m.Primary()
	prev := primary.SetNoThrow(true)
	defer primary.SetNoThrow(prev)

	start := time.Now()
	failedOver := false
	defer func() {
		clearFaults(m)
		s.done(ctx, OpWrite, m, failedOver, start, err)
	}()

	cmd := domain.SetEx(pool.StorageKey(m, sessionID), s.ttlSeconds(), value)

	err = setex(ctx, primary, cmd)
	if err == nil || !m.HasFailover() {
		return err
	}

	failedOver = true
	s.failover(ctx, OpWrite, m, err)
	return setex(ctx, m.Failover(), cmd)
}

// Destroy removes the session from its primary. Removing an absent session succeeds.
// Destroy never fails over.
func (s *Store) Destroy(ctx context.Context, sessionID string) (err error) {
	m, err := s.pool.Select(ctx, []byte(sessionID))
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		clearFaults(m)
		s.done(ctx, OpDestroy, m, false, start, err)
	}()

	conn := m.Primary()
	reply, err := conn.Do(ctx, domain.Del(pool.StorageKey(m, sessionID)))
	if err != nil {
		return err
	}
	if reply.Kind != domain.ReplyInteger || (reply.Int != 0 && reply.Int != 1) {
		return domain.NewShardError("DEL", conn.Addr(), fmt.Errorf("%w: %s", domain.ErrBackend, reply))
	}
	return nil
}

// GC does nothing: every write sets a TTL and the backend expires sessions itself.
func (s *Store) GC(ctx context.Context, maxLifetime time.Duration) error {
	s.logger.Debug("GC requested, expiry is left to the backend TTL", "max_lifetime", maxLifetime)
	return nil
}

// Close closes the pool and every connection it owns.
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) ttlSeconds() int64 {
	return int64(s.lifetime() / time.Second)
}

func (s *Store) failover(ctx context.Context, op string, m *pool.Member, reason error) {
	s.logger.Warn("Primary failed, retrying on failover",
		"op", op,
		"shard", m.Addr(),
		"failover", m.Failover().Addr(),
		"err", reason,
	)
	s.hooks.EmitFailover(ctx, &domain.FailoverEvent{
		EventBase: domain.EventBase{Timestamp: time.Now()},
		Op:        op,
		From:      m.Addr(),
		To:        m.Failover().Addr(),
		Reason:    reason,
	})
}

func (s *Store) done(ctx context.Context, op string, m *pool.Member, failedOver bool, start time.Time, err error) {
	if err != nil {
		s.logger.Debug("Session operation failed", "op", op, "shard", m.Addr(), "failover", failedOver, "err", err)
	}
	s.hooks.EmitOperation(ctx, &domain.OperationEvent{
		EventBase: domain.EventBase{Timestamp: start},
		Op:        op,
		Shard:     m.Addr(),
		Failover:  failedOver,
		Duration:  time.Since(start),
		Err:       err,
	})
}

// clearFaults drops faults left on the member so they do not leak into the
// next operation routed to it.
func clearFaults(m *pool.Member) {
	m.Primary().ClearFault()
	if m.HasFailover() {
		m.Failover().ClearFault()
	}
}

func get(ctx context.Context, conn ports.Conn, key string) ([]byte, error) {
	reply, err := conn.Do(ctx, domain.Get(key))
	if err != nil {
		return nil, err
	}
	switch reply.Kind {
	case domain.ReplyNil:
		return nil, nil
	case domain.ReplyBulk:
		return reply.Bulk, nil
	default:
		return nil, domain.NewShardError("GET", conn.Addr(), fmt.Errorf("%w: %s", domain.ErrBackend, reply))
	}
}

func setex(ctx context.Context, conn ports.Conn, cmd domain.Command) error {
	reply, err := conn.Do(ctx, cmd)
	if err != nil {
		return err
	}
	if !reply.IsOK() {
		return domain.NewShardError("SETEX", conn.Addr(), fmt.Errorf("%w: %s", domain.ErrBackend, reply))
	}
	return nil
}
