package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// statusCommands answer with a status line rather than a bulk string.
var statusCommands = map[string]bool{
	"AUTH":   true,
	"PING":   true,
	"SELECT": true,
	"SET":    true,
	"SETEX":  true,
	"QUIT":   true,
}

// Conn implements ports.Conn over a single go-redis connection.
type Conn struct {
	addr       string
	opts       *backend.Options
	persistent string // registry key of the shared client, empty when private
	dialer     *Dialer

	mu      sync.Mutex
	client  *backend.Client
	shared  bool
	status  domain.ConnStatus
	noThrow bool
	fault   error
	closed  bool
}

var _ ports.Conn = (*Conn)(nil)

func (c *Conn) Addr() string { return c.addr }

// Open pings the backend, dialing first when needed.
// An error reply to the ping (e.g. NOAUTH) still means the socket is up.
func (c *Conn) Open(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == domain.StatusConnected && !force {
		return nil
	}
	c.closed = false

	if force && c.client != nil && !c.shared {
		_ = c.client.Close()
		c.client = nil
	}
	if c.client == nil {
		c.client, c.shared = c.dialer.client(c.opts, c.persistent)
	}

	err := c.client.Ping(ctx).Err()
	if err != nil && !isReplyError(err) {
		c.status = domain.StatusDisconnected
		c.raise(err)
		return domain.NewShardError("OPEN", c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}
	c.status = domain.StatusConnected
	return nil
}

// Do sends cmd and decodes the reply once.
// A transport failure marks the connection disconnected.
func (c *Conn) Do(ctx context.Context, cmd domain.Command) (domain.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: connection closed", domain.ErrIO))
	}
	if c.status != domain.StatusConnected || c.client == nil {
		err := errors.New("not connected")
		c.raise(err)
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}

	args := make([]any, 0, len(cmd.Args)+1)
	args = append(args, cmd.Name)
	for _, a := range cmd.Args {
		args = append(args, a)
	}

	val, err := c.client.Do(ctx, args...).Result()
	switch {
	case err == nil:
	case errors.Is(err, backend.Nil):
		return domain.NilReply, nil
	case isReplyError(err):
		return domain.ErrorReply(err.Error()), nil
	default:
		c.status = domain.StatusDisconnected
		c.raise(err)
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}

	switch v := val.(type) {
	case nil:
		return domain.NilReply, nil
	case string:
		if statusCommands[cmd.Name] {
			return domain.StatusReply(v), nil
		}
		return domain.BulkReply([]byte(v)), nil
	case int64:
		return domain.IntegerReply(v), nil
	default:
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: unsupported reply type %T", domain.ErrBackend, val))
	}
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

// Close releases a private client. A persistent connection only detaches
// from its shared client, which lives until the Dialer is closed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.status = domain.StatusDisconnected

	client := c.client
	c.client = nil
	if client == nil || c.shared {
		return nil
	}
	return client.Close()
}

// raise records a fault unless the connection is in non-throwing mode.
func (c *Conn) raise(err error) {
	if !c.noThrow {
		c.fault = fmt.Errorf("%w: %s: %w", domain.ErrProtocolFault, c.addr, err)
	}
}

func isReplyError(err error) bool {
	var rerr backend.Error
	return errors.As(err, &rerr)
}
