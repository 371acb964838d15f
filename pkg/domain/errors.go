package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when an endpoint descriptor is invalid or no endpoint is usable.
	ErrConfig = errors.New("invalid backend configuration")

	// ErrNoBackend is returned when routing cannot produce a pool member.
	ErrNoBackend = errors.New("no backend available")

	// ErrPoolClosed is returned for operations attempted after the pool was torn down.
	ErrPoolClosed = fmt.Errorf("%w: pool is closed", ErrNoBackend)

	// ErrIO is returned when a command could not be sent or its reply could not be read.
	ErrIO = errors.New("backend i/o failure")

	// ErrBackend is returned for well-formed but negative replies (e.g. missing "+OK").
	ErrBackend = errors.New("unexpected backend reply")

	// ErrProtocolFault marks a communication failure raised while the connection
	// was in throwing mode. Reads fail over when the primary holds such a fault.
	ErrProtocolFault = errors.New("backend protocol fault")
)

// ShardError describes a failure of one operation against one backend connection.
type ShardError struct {
	Op   string // GET, SETEX, DEL, AUTH, OPEN
	Addr string
	Err  error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ShardError) Unwrap() error {
	return e.Err
}

// NewShardError wraps err with the operation and address it happened on.
func NewShardError(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &ShardError{Op: op, Addr: addr, Err: err}
}
