package redis_test

import (
	"context"
	"testing"

	"github.com/aretw0/sessionshard/internal/testutils"
	"github.com/aretw0/sessionshard/pkg/adapters/redis"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialer_PersistentConnectionsShareAClient(t *testing.T) {
	mr := testutils.StartRedis(t)
	addr := testutils.AddressOf(t, mr)

	ep := endpointFor(addr)
	ep.Persistent = true
	ep.PersistentID = "sessions"

	dialer := redis.NewDialer()
	defer dialer.Close()
	ctx := context.Background()

	first, err := dialer.Factory(addr, ep)
	require.NoError(t, err)
	second, err := dialer.Factory(addr, ep)
	require.NoError(t, err)

	require.NoError(t, first.Open(ctx, false))
	require.NoError(t, second.Open(ctx, false))
	assert.Equal(t, 1, dialer.Persistent())

	// a different persistent id gets its own client
	other := ep
	other.PersistentID = "cache"
	third, err := dialer.Factory(addr, other)
	require.NoError(t, err)
	require.NoError(t, third.Open(ctx, false))
	assert.Equal(t, 2, dialer.Persistent())

	// closing one persistent connection only detaches it
	require.NoError(t, first.Close())
	reply, err := second.Do(ctx, domain.Ping())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReply("PONG"), reply)
	assert.Equal(t, 2, dialer.Persistent())

	// a new pool reuses the registered client
	again, err := dialer.Factory(addr, ep)
	require.NoError(t, err)
	require.NoError(t, again.Open(ctx, false))
	assert.Equal(t, 2, dialer.Persistent())

	require.NoError(t, dialer.Close())
	assert.Equal(t, 0, dialer.Persistent())
}

func TestDialer_RejectsEmptyAddress(t *testing.T) {
	_, err := redis.NewDialer().Factory(domain.Address{}, domain.NewEndpoint(domain.Address{}))
	assert.ErrorIs(t, err, domain.ErrConfig)
}
