package testutils

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/stretchr/testify/require"
)

// StartRedis starts a miniredis server that is closed when the test ends.
func StartRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)
	return mr
}

// TCPEndpoint returns an endpoint with defaults for host:port.
func TCPEndpoint(host string, port int) domain.Endpoint {
	return domain.NewEndpoint(domain.Address{Host: host, Port: port})
}

// KeyFor returns a session id whose first four bytes place it at pos when
// the total weight is larger than pos and at most 256.
func KeyFor(pos uint32, suffix string) string {
	return string([]byte{byte(pos), 0, 0, 0}) + suffix
}

// AddressOf returns the TCP address a miniredis server listens on.
func AddressOf(t *testing.T, mr *miniredis.Miniredis) domain.Address {
	t.Helper()

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return domain.Address{Host: mr.Host(), Port: port}
}

// UnusedAddress returns a loopback address nothing listens on.
func UnusedAddress(t *testing.T) domain.Address {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := AddressOf(t, mr)
	mr.Close()
	return addr
}
