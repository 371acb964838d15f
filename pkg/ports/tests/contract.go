package tests

import (
	"context"
	"testing"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ConnContractTest is a reusable test suite that verifies if an adapter complies with ports.Conn.
// newConn must return a fresh, not yet opened connection to a reachable backend.
func ConnContractTest(t *testing.T, newConn func(t *testing.T) ports.Conn) {
	t.Helper()
	ctx := context.Background()

	t.Run("Lazy_Open", func(t *testing.T) {
		conn := newConn(t)
		defer conn.Close()

		assert.Equal(t, domain.StatusDisconnected, conn.Status(), "no I/O before Open")
		require.NoError(t, conn.Open(ctx, false))
		assert.Equal(t, domain.StatusConnected, conn.Status())

		// a second non-forced open is a no-op
		require.NoError(t, conn.Open(ctx, false))
		assert.Equal(t, domain.StatusConnected, conn.Status())
	})

	t.Run("SetEx_Get_Del", func(t *testing.T) {
		conn := newConn(t)
		defer conn.Close()
		require.NoError(t, conn.Open(ctx, false))

		reply, err := conn.Do(ctx, domain.SetEx("contract:key", 60, []byte("value")))
		require.NoError(t, err)
		assert.True(t, reply.IsOK(), "SETEX must answer +OK, got %s", reply)

		reply, err = conn.Do(ctx, domain.Get("contract:key"))
		require.NoError(t, err)
		assert.Equal(t, domain.ReplyBulk, reply.Kind)
		assert.Equal(t, "value", string(reply.Bulk))

		reply, err = conn.Do(ctx, domain.Del("contract:key"))
		require.NoError(t, err)
		assert.Equal(t, domain.IntegerReply(1), reply)

		reply, err = conn.Do(ctx, domain.Del("contract:key"))
		require.NoError(t, err)
		assert.Equal(t, domain.IntegerReply(0), reply)
	})

	t.Run("Get_Missing", func(t *testing.T) {
		conn := newConn(t)
		defer conn.Close()
		require.NoError(t, conn.Open(ctx, false))

		reply, err := conn.Do(ctx, domain.Get("contract:missing"))
		require.NoError(t, err)
		assert.Equal(t, domain.ReplyNil, reply.Kind)
	})

	t.Run("NoThrow_Toggle", func(t *testing.T) {
		conn := newConn(t)
		defer conn.Close()

		assert.False(t, conn.SetNoThrow(true))
		assert.True(t, conn.SetNoThrow(false))
		assert.False(t, conn.SetNoThrow(false))
	})

	t.Run("Close_Idempotent", func(t *testing.T) {
		never := newConn(t)
		assert.NoError(t, never.Close(), "closing a never opened connection")
		assert.NoError(t, never.Close())

		conn := newConn(t)
		require.NoError(t, conn.Open(ctx, false))
		assert.NoError(t, conn.Close())
		assert.NoError(t, conn.Close())
		assert.Equal(t, domain.StatusDisconnected, conn.Status())

		_, err := conn.Do(ctx, domain.Get("contract:key"))
		assert.ErrorIs(t, err, domain.ErrIO, "commands on a closed connection fail")
		assert.NoError(t, conn.Fault(), "using a closed connection is not a raised fault")
	})
}
