package testutils

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// Call is one recorded interaction with a FakeConn.
type Call struct {
	Addr    string
	Method  string // Open, Do, Close
	Command string // command name for Do
	NoThrow bool   // mode of the connection when the call was made
}

// CallLog records calls across several connections, in order.
type CallLog struct {
	mu    sync.Mutex
	calls []Call
}

func (l *CallLog) record(c Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Commands returns "addr COMMAND" for every Do call, in order.
func (l *CallLog) Commands() []string {
	var out []string
	for _, c := range l.Calls() {
		if c.Method == "Do" {
			out = append(out, c.Addr+" "+c.Command)
		}
	}
	return out
}

// Reset forgets every recorded call.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// FakeConn is an in-memory ports.Conn with scriptable failures.
// Without scripting it behaves like a tiny key-value server.
type FakeConn struct {
	mu sync.Mutex

	addr    string
	log     *CallLog
	status  domain.ConnStatus
	noThrow bool
	fault   error
	closed  bool

	openErr  error
	failures map[string]error
	replies  map[string]domain.Reply

	data   map[string][]byte
	ttls   map[string]int64
	Closes int
	Opens  int
}

// NewFakeConn creates a disconnected fake for addr. log may be nil.
func NewFakeConn(addr string, log *CallLog) *FakeConn {
	if log == nil {
		log = &CallLog{}
	}
	return &FakeConn{
		addr:     addr,
		log:      log,
		failures: make(map[string]error),
		replies:  make(map[string]domain.Reply),
		data:     make(map[string][]byte),
		ttls:     make(map[string]int64),
	}
}

// FailOpen makes Open fail with err.
func (c *FakeConn) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// FailOn makes every command named name fail with a communication error.
func (c *FakeConn) FailOn(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[name] = err
}

// ReplyOn makes every command named name answer reply.
func (c *FakeConn) ReplyOn(name string, reply domain.Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[name] = reply
}

// Value returns the stored value of key.
func (c *FakeConn) Value(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// TTL returns the TTL in seconds last set for key.
func (c *FakeConn) TTL(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// NoThrow reports the current mode.
func (c *FakeConn) NoThrow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.noThrow
}

func (c *FakeConn) Addr() string { return c.addr }

func (c *FakeConn) Open(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.record(Call{Addr: c.addr, Method: "Open", NoThrow: c.noThrow})

	if c.status == domain.StatusConnected && !force {
		return nil
	}
	c.Opens++
	if c.openErr != nil {
		c.status = domain.StatusDisconnected
		c.raise(c.openErr)
		return domain.NewShardError("OPEN", c.addr, fmt.Errorf("%w: %w", domain.ErrIO, c.openErr))
	}
	c.closed = false
	c.status = domain.StatusConnected
	return nil
}

func (c *FakeConn) Do(ctx context.Context, cmd domain.Command) (domain.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.record(Call{Addr: c.addr, Method: "Do", Command: cmd.Name, NoThrow: c.noThrow})

	if c.closed {
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: connection closed", domain.ErrIO))
	}
	if c.status != domain.StatusConnected {
		err := fmt.Errorf("not connected")
		c.raise(err)
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}
	if err, ok := c.failures[cmd.Name]; ok {
		c.raise(err)
		return domain.Reply{}, domain.NewShardError(cmd.Name, c.addr, fmt.Errorf("%w: %w", domain.ErrIO, err))
	}
	if reply, ok := c.replies[cmd.Name]; ok {
		return reply, nil
	}

	switch cmd.Name {
	case "GET":
		v, ok := c.data[string(cmd.Args[0])]
		if !ok {
			return domain.NilReply, nil
		}
		return domain.BulkReply(v), nil
	case "SETEX":
		ttl, err := strconv.ParseInt(string(cmd.Args[1]), 10, 64)
		if err != nil || ttl <= 0 {
			return domain.ErrorReply("ERR invalid expire time in 'setex' command"), nil
		}
		key := string(cmd.Args[0])
		c.data[key] = append([]byte(nil), cmd.Args[2]...)
		c.ttls[key] = ttl
		return domain.StatusReply("OK"), nil
	case "DEL":
		key := string(cmd.Args[0])
		if _, ok := c.data[key]; !ok {
			return domain.IntegerReply(0), nil
		}
		delete(c.data, key)
		delete(c.ttls, key)
		return domain.IntegerReply(1), nil
	case "AUTH":
		return domain.StatusReply("OK"), nil
	case "PING":
		return domain.StatusReply("PONG"), nil
	default:
		return domain.ErrorReply("ERR unknown command '" + cmd.Name + "'"), nil
	}
}

func (c *FakeConn) raise(err error) {
	if !c.noThrow {
		c.fault = fmt.Errorf("%w: %w", domain.ErrProtocolFault, err)
	}
}

func (c *FakeConn) Status() domain.ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *FakeConn) SetNoThrow(on bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.noThrow
	c.noThrow = on
	return prev
}

func (c *FakeConn) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

func (c *FakeConn) ClearFault() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fault = nil
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.record(Call{Addr: c.addr, Method: "Close"})
	if c.closed {
		return nil
	}
	c.Closes++
	c.closed = true
	c.status = domain.StatusDisconnected
	return nil
}

var _ ports.Conn = (*FakeConn)(nil)

// Fakes hands out FakeConns to a pool and keeps them addressable by address.
type Fakes struct {
	Log   *CallLog
	conns map[string]*FakeConn

	// FactoryErr makes the factory fail for the given address.
	FactoryErr map[string]error
}

// NewFakes creates an empty fake backend set sharing one call log.
func NewFakes() *Fakes {
	return &Fakes{
		Log:        &CallLog{},
		conns:      make(map[string]*FakeConn),
		FactoryErr: make(map[string]error),
	}
}

// Factory implements ports.ConnFactory.
func (f *Fakes) Factory(addr domain.Address, ep domain.Endpoint) (ports.Conn, error) {
	if err := f.FactoryErr[addr.String()]; err != nil {
		return nil, err
	}
	conn := NewFakeConn(addr.String(), f.Log)
	f.conns[addr.String()] = conn
	return conn, nil
}

// Conn returns the fake built for addr (host:port or path), or nil.
func (f *Fakes) Conn(addr string) *FakeConn {
	return f.conns[addr]
}

// All returns every fake built so far.
func (f *Fakes) All() []*FakeConn {
	out := make([]*FakeConn, 0, len(f.conns))
	for _, c := range f.conns {
		out = append(out, c)
	}
	return out
}
