package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/sessionshard/internal/testutils"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/pool"
	"github.com/aretw0/sessionshard/pkg/ports"
	"github.com/aretw0/sessionshard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	primaryAddr  = "primary:6379"
	failoverAddr = "backup:6379"
)

// newStore builds a single member store with a failover over fakes.
func newStore(t *testing.T, opts ...session.Option) (*session.Store, *testutils.Fakes) {
	t.Helper()

	ep := testutils.TCPEndpoint("primary", 6379)
	ep.Failover = &domain.Address{Host: "backup", Port: 6379}

	fakes := testutils.NewFakes()
	p, err := pool.New([]domain.Endpoint{ep}, fakes.Factory)
	require.NoError(t, err)

	store := session.New(p, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, fakes
}

func newStoreWithoutFailover(t *testing.T) (*session.Store, *testutils.Fakes) {
	t.Helper()

	fakes := testutils.NewFakes()
	p, err := pool.New([]domain.Endpoint{testutils.TCPEndpoint("primary", 6379)}, fakes.Factory)
	require.NoError(t, err)

	store := session.New(p)
	t.Cleanup(func() { _ = store.Close() })
	return store, fakes
}

func TestStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunSessionStoreContract(t, store)
}

func TestStore_WriteThenRead(t *testing.T) {
	store, fakes := newStore(t, session.WithMaxLifetime(20*time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "abc123", []byte("user|s:5:\"alice\";")))

	primary := fakes.Conn(primaryAddr)
	stored, ok := primary.Value("PHPREDIS_SESSION:abc123")
	require.True(t, ok, "value is stored under prefix + id")
	assert.Equal(t, "user|s:5:\"alice\";", string(stored))
	assert.Equal(t, int64(1200), primary.TTL("PHPREDIS_SESSION:abc123"))

	value, err := store.Read(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "user|s:5:\"alice\";", string(value))

	_, onBackup := fakes.Conn(failoverAddr).Value("PHPREDIS_SESSION:abc123")
	assert.False(t, onBackup, "a healthy primary never touches the failover")
}

func TestStore_ReadAbsentDoesNotFailOver(t *testing.T) {
	store, fakes := newStore(t)

	value, err := store.Read(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, []string{primaryAddr + " GET"}, fakes.Log.Commands())
}

func TestStore_LifetimeIsLookedUpOnEveryWrite(t *testing.T) {
	lifetime := 10 * time.Second
	store, fakes := newStore(t, session.WithLifetimeFunc(func() time.Duration { return lifetime }))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "s", []byte("v")))
	assert.Equal(t, int64(10), fakes.Conn(primaryAddr).TTL("PHPREDIS_SESSION:s"))

	lifetime = 90 * time.Second
	require.NoError(t, store.Write(ctx, "s", []byte("v")))
	assert.Equal(t, int64(90), fakes.Conn(primaryAddr).TTL("PHPREDIS_SESSION:s"))
}

func TestStore_DefaultLifetime(t *testing.T) {
	store, fakes := newStore(t)
	require.NoError(t, store.Write(context.Background(), "s", []byte("v")))
	assert.Equal(t, int64(1440), fakes.Conn(primaryAddr).TTL("PHPREDIS_SESSION:s"))
}

func TestStore_WriteFailsOverOnIOError(t *testing.T) {
	store, fakes := newStore(t)
	fakes.Conn(primaryAddr).FailOn("SETEX", errors.New("broken pipe"))

	err := store.Write(context.Background(), "s1", []byte("payload"))
	require.NoError(t, err)

	assert.Equal(t, []string{primaryAddr + " SETEX", failoverAddr + " SETEX"}, fakes.Log.Commands())

	stored, ok := fakes.Conn(failoverAddr).Value("PHPREDIS_SESSION:s1")
	require.True(t, ok)
	assert.Equal(t, "payload", string(stored))
	assert.Zero(t, fakes.Conn(primaryAddr).TTL("PHPREDIS_SESSION:s1"))
	assert.Equal(t, int64(1440), fakes.Conn(failoverAddr).TTL("PHPREDIS_SESSION:s1"), "identical SETEX")
}

func TestStore_WriteFailsOverOnNonOKReply(t *testing.T) {
	store, fakes := newStore(t)
	fakes.Conn(primaryAddr).ReplyOn("SETEX", domain.ErrorReply("READONLY You can't write against a read only replica."))

	require.NoError(t, store.Write(context.Background(), "s1", []byte("payload")))
	assert.Equal(t, []string{primaryAddr + " SETEX", failoverAddr + " SETEX"}, fakes.Log.Commands())
}

func TestStore_WriteFailoverOutcomeIsFinal(t *testing.T) {
	store, fakes := newStore(t)
	fakes.Conn(primaryAddr).FailOn("SETEX", errors.New("broken pipe"))
	fakes.Conn(failoverAddr).ReplyOn("SETEX", domain.StatusReply("QUEUED"))

	err := store.Write(context.Background(), "s1", []byte("payload"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackend)

	var shardErr *domain.ShardError
	require.ErrorAs(t, err, &shardErr)
	assert.Equal(t, failoverAddr, shardErr.Addr)

	// exactly one attempt per connection
	assert.Equal(t, []string{primaryAddr + " SETEX", failoverAddr + " SETEX"}, fakes.Log.Commands())
}

func TestStore_WriteWithoutFailover(t *testing.T) {
	store, fakes := newStoreWithoutFailover(t)
	fakes.Conn(primaryAddr).FailOn("SETEX", errors.New("broken pipe"))

	err := store.Write(context.Background(), "s1", []byte("payload"))
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.Equal(t, []string{primaryAddr + " SETEX"}, fakes.Log.Commands())
}

func TestStore_WriteRunsPrimaryInNoThrowModeAndRestoresIt(t *testing.T) {
	store, fakes := newStore(t)
	primary := fakes.Conn(primaryAddr)
	primary.FailOn("SETEX", errors.New("broken pipe"))

	require.NoError(t, store.Write(context.Background(), "s1", []byte("payload")))

	var setex []testutils.Call
	for _, c := range fakes.Log.Calls() {
		if c.Command == "SETEX" {
			setex = append(setex, c)
		}
	}
	require.Len(t, setex, 2)
	assert.True(t, setex[0].NoThrow, "primary SETEX runs in non-throwing mode")
	assert.False(t, setex[1].NoThrow, "failover keeps its own mode")

	assert.False(t, primary.NoThrow(), "previous mode restored")
	assert.NoError(t, primary.Fault(), "non-throwing mode raises no fault")

	// a caller that already selected non-throwing mode keeps it
	primary.SetNoThrow(true)
	require.NoError(t, store.Write(context.Background(), "s2", []byte("payload")))
	assert.True(t, primary.NoThrow())
}

func TestStore_ReadFailsOverOnFault(t *testing.T) {
	store, fakes := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "s1", []byte("payload")))
	// the failover holds a copy written earlier
	fakes.Conn(failoverAddr).ReplyOn("GET", domain.BulkReply([]byte("from-backup")))
	fakes.Conn(primaryAddr).FailOn("GET", errors.New("connection reset by peer"))
	fakes.Log.Reset()

	value, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "from-backup", string(value))
	assert.Equal(t, []string{primaryAddr + " GET", failoverAddr + " GET"}, fakes.Log.Commands())

	assert.NoError(t, fakes.Conn(primaryAddr).Fault(), "fault is cleared")
}

func TestStore_ReadFailsOverWhenPrimaryIsDown(t *testing.T) {
	store, fakes := newStore(t)
	fakes.Conn(primaryAddr).FailOpen(errors.New("connection refused"))
	fakes.Conn(failoverAddr).ReplyOn("GET", domain.BulkReply([]byte("from-backup")))

	value, err := store.Read(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "from-backup", string(value))
}

func TestStore_ReadDoesNotFailOverWithoutFault(t *testing.T) {
	t.Run("error reply", func(t *testing.T) {
		store, fakes := newStore(t)
		fakes.Conn(primaryAddr).ReplyOn("GET", domain.ErrorReply("WRONGTYPE Operation against a key holding the wrong kind of value"))

		_, err := store.Read(context.Background(), "s1")
		assert.ErrorIs(t, err, domain.ErrBackend)
		assert.Equal(t, []string{primaryAddr + " GET"}, fakes.Log.Commands())
	})

	t.Run("failure in non-throwing mode", func(t *testing.T) {
		store, fakes := newStore(t)
		primary := fakes.Conn(primaryAddr)
		primary.SetNoThrow(true)
		primary.FailOn("GET", errors.New("connection reset by peer"))

		_, err := store.Read(context.Background(), "s1")
		assert.ErrorIs(t, err, domain.ErrIO)
		assert.Equal(t, []string{primaryAddr + " GET"}, fakes.Log.Commands())
	})
}

func TestStore_ReadFailoverOutcomeIsFinal(t *testing.T) {
	store, fakes := newStore(t)
	fakes.Conn(primaryAddr).FailOn("GET", errors.New("reset"))
	fakes.Conn(failoverAddr).FailOn("GET", errors.New("reset"))

	_, err := store.Read(context.Background(), "s1")
	require.ErrorIs(t, err, domain.ErrIO)
	assert.Equal(t, []string{primaryAddr + " GET", failoverAddr + " GET"}, fakes.Log.Commands())
	assert.NoError(t, fakes.Conn(failoverAddr).Fault(), "faults do not leak past the operation")
}

func TestStore_Destroy(t *testing.T) {
	store, fakes := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "s1", []byte("payload")))
	require.NoError(t, store.Destroy(ctx, "s1"))

	value, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Destroy(ctx, "never-existed"), "DEL answering 0 is success")

	for _, cmd := range fakes.Log.Commands() {
		assert.NotEqual(t, failoverAddr+" DEL", cmd)
	}
}

func TestStore_DestroyFailures(t *testing.T) {
	t.Run("unexpected count", func(t *testing.T) {
		store, fakes := newStore(t)
		fakes.Conn(primaryAddr).ReplyOn("DEL", domain.IntegerReply(2))
		assert.ErrorIs(t, store.Destroy(context.Background(), "s1"), domain.ErrBackend)
	})

	t.Run("i/o failure never fails over", func(t *testing.T) {
		store, fakes := newStore(t)
		fakes.Conn(primaryAddr).FailOn("DEL", errors.New("reset"))

		assert.ErrorIs(t, store.Destroy(context.Background(), "s1"), domain.ErrIO)
		assert.Equal(t, []string{primaryAddr + " DEL"}, fakes.Log.Commands())
	})
}

func TestStore_GC(t *testing.T) {
	store, fakes := newStore(t)
	assert.NoError(t, store.GC(context.Background(), time.Hour))
	assert.Empty(t, fakes.Log.Calls())
}

func TestStore_AfterClose(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Close())
	ctx := context.Background()

	_, err := store.Read(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrPoolClosed)
	assert.ErrorIs(t, store.Write(ctx, "s1", []byte("v")), domain.ErrNoBackend)
	assert.ErrorIs(t, store.Destroy(ctx, "s1"), domain.ErrNoBackend)
}

func TestStore_RoutesByWeight(t *testing.T) {
	fakes := testutils.NewFakes()
	a := testutils.TCPEndpoint("a", 6379)
	b := testutils.TCPEndpoint("b", 6379)
	b.Weight = 3
	b.Prefix = domain.StringPtr("b:")

	p, err := pool.New([]domain.Endpoint{a, b}, fakes.Factory)
	require.NoError(t, err)
	store := session.New(p)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, testutils.KeyFor(0, "x"), []byte("on-a")))
	require.NoError(t, store.Write(ctx, testutils.KeyFor(2, "x"), []byte("on-b")))

	_, ok := fakes.Conn("a:6379").Value("PHPREDIS_SESSION:" + testutils.KeyFor(0, "x"))
	assert.True(t, ok)
	_, ok = fakes.Conn("b:6379").Value("b:" + testutils.KeyFor(2, "x"))
	assert.True(t, ok)
}

func TestStore_EmitsHooks(t *testing.T) {
	var ops []*domain.OperationEvent
	var failovers []*domain.FailoverEvent
	hooks := domain.LifecycleHooks{
		OnOperation: func(ctx context.Context, e *domain.OperationEvent) { ops = append(ops, e) },
		OnFailover:  func(ctx context.Context, e *domain.FailoverEvent) { failovers = append(failovers, e) },
	}

	store, fakes := newStore(t, session.WithHooks(hooks))
	fakes.Conn(primaryAddr).FailOn("SETEX", errors.New("broken pipe"))

	require.NoError(t, store.Write(context.Background(), "s1", []byte("v")))

	require.Len(t, failovers, 1)
	assert.Equal(t, session.OpWrite, failovers[0].Op)
	assert.Equal(t, primaryAddr, failovers[0].From)
	assert.Equal(t, failoverAddr, failovers[0].To)
	assert.ErrorIs(t, failovers[0].Reason, domain.ErrIO)

	require.Len(t, ops, 1)
	assert.Equal(t, domain.EventOperation, ops[0].Type)
	assert.Equal(t, session.OpWrite, ops[0].Op)
	assert.True(t, ops[0].Failover)
	assert.NoError(t, ops[0].Err)
}
