package ports

import (
	"context"
	"time"
)

// SessionStore is the contract a session framework drives.
type SessionStore interface {
	// Read returns the stored value, or nil when the session does not exist.
	Read(ctx context.Context, sessionID string) ([]byte, error)

	// Write stores the value with the configured session lifetime as TTL.
	Write(ctx context.Context, sessionID string, value []byte) error

	// Destroy removes the session. Destroying an absent session succeeds.
	Destroy(ctx context.Context, sessionID string) error

	// GC expires sessions older than maxLifetime.
	GC(ctx context.Context, maxLifetime time.Duration) error

	// Close releases every backend connection. The store is unusable afterwards.
	Close() error
}
