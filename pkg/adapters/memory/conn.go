package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

var errRefused = errors.New("connection refused")

// Conn implements ports.Conn against a Server.
type Conn struct {
	addr   string
	server *Server

	mu      sync.Mutex
	status  domain.ConnStatus
	authed  bool
	noThrow bool
	fault   error
	closed  bool
}

var _ ports.Conn = (*Conn)(nil)

func (c *Conn) Addr() string { return c.addr }

func (c *Conn) Open(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == domain.StatusConnected && !force {
		return nil
	}
	c.closed = false
	c.authed = false

	if c.server.isDown() {
		c.status = domain.StatusDisconnected
		c.raise(errRefused)
		return domain.NewShardError("OPEN", c.addr, fmt.Errorf("%w: %w", domain.ErrIO, errRefused))
	}
	c.status = domain.StatusConnected
	return nil
}

func (c *Conn) Do(ctx context.Context, cmd domain.Command) (domain.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: connection closed", domain.ErrIO))
	}
	if err := ctx.Err(); err != nil {
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}
	if c.status != domain.StatusConnected {
		err := errors.New("not connected")
		c.raise(err)
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}
	if c.server.isDown() {
		c.status = domain.StatusDisconnected
		c.authed = false
		err := errors.New("connection reset by peer")
		c.raise(err)
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}
	return c.server.exec(cmd, &c.authed), nil
}

func (c *Conn) Status() domain.ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Conn) SetNoThrow(on bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.noThrow
	c.noThrow = on
	return prev
}

func (c *Conn) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

func (c *Conn) ClearFault() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fault = nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.authed = false
	c.status = domain.StatusDisconnected
	return nil
}

func (c *Conn) raise(err error) {
	if !c.noThrow {
		c.fault = fmt.Errorf("%w: %s: %w", domain.ErrProtocolFault, c.addr, err)
	}
}
