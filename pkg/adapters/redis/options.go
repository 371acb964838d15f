package redis

import (
	"github.com/aretw0/sessionshard/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// clientOptions maps an endpoint onto go-redis options for a single
// connection that never retries on its own: failover is decided by the
// session operations, not by the client.
func clientOptions(addr domain.Address, ep domain.Endpoint) *backend.Options {
	return &backend.Options{
		Network: addr.Network(),
		Addr:    addr.String(),

		// RESP2 replies, no CLIENT SETINFO on connect.
		Protocol:        2,
		DisableIdentity: true,

		DialTimeout:  ep.Timeout,
		ReadTimeout:  ep.Timeout,
		WriteTimeout: ep.Timeout,

		PoolSize:        1,
		MaxRetries:      -1,
		ConnMaxIdleTime: -1,
	}
}
