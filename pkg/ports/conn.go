package ports

import (
	"context"

	"github.com/aretw0/sessionshard/pkg/domain"
)

// Conn is one backend connection as seen by the pool and the session operations.
// Implementations perform no I/O until Open is called.
type Conn interface {
	// Addr returns the address the connection dials, for logs and metrics.
	Addr() string

	// Open connects if the connection is not connected yet, or unconditionally when force is set.
	// A failure while in throwing mode also records a fault.
	Open(ctx context.Context, force bool) error

	// Do sends one command and returns its decoded reply.
	// Send and receive failures are reported as errors matching domain.ErrIO.
	// Error replies are returned as a domain.ReplyError reply, not as an error.
	Do(ctx context.Context, cmd domain.Command) (domain.Reply, error)

	// Status reports whether the connection is currently established.
	Status() domain.ConnStatus

	// SetNoThrow switches the non-throwing mode and returns the previous mode.
	// In non-throwing mode communication failures are returned but no fault is recorded.
	SetNoThrow(on bool) (prev bool)

	// Fault returns the communication failure raised on this connection, if any.
	Fault() error

	// ClearFault drops the recorded fault.
	ClearFault()

	// Close releases the connection. Closing twice, or closing a never opened connection, is a no-op.
	Close() error
}

// ConnFactory builds a not yet connected Conn for an address of an endpoint.
// It is called once for the primary and once for the failover address, if any.
type ConnFactory func(addr domain.Address, ep domain.Endpoint) (Conn, error)
