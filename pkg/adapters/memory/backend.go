package memory

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Server is a process-local key-value server answering the commands the
// session operations send. Safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	data     map[string]entry
	password string
	down     bool
	now      func() time.Time
}

// SetDown makes the server refuse connections and drop established ones.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// RequireAuth makes every command except AUTH and PING answer NOAUTH until
// the connection authenticated with password.
func (s *Server) RequireAuth(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = password
}

// Len returns the number of live keys.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for _, e := range s.data {
		if e.expires.After(now) {
			n++
		}
	}
	return n
}

// TTL returns the remaining time to live of key, or zero when absent.
func (s *Server) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return 0
	}
	return e.expires.Sub(s.now())
}

func (s *Server) isDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

func (s *Server) exec(cmd domain.Command, authed *bool) domain.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToUpper(cmd.Name)
	switch name {
	case "AUTH":
		if len(cmd.Args) != 1 {
			return arity(name)
		}
		if s.password == "" {
			return domain.ErrorReply("ERR AUTH <password> called without any password configured for the default user")
		}
		if string(cmd.Args[0]) != s.password {
			*authed = false
			return domain.ErrorReply("WRONGPASS invalid username-password pair or user is disabled.")
		}
		*authed = true
		return domain.StatusReply("OK")
	case "PING":
		return domain.StatusReply("PONG")
	}

	if s.password != "" && !*authed {
		return domain.ErrorReply("NOAUTH Authentication required.")
	}

	now := s.now()
	switch name {
	case "GET":
		if len(cmd.Args) != 1 {
			return arity(name)
		}
		e, ok := s.data[string(cmd.Args[0])]
		if !ok || !e.expires.After(now) {
			delete(s.data, string(cmd.Args[0]))
			return domain.NilReply
		}
		return domain.BulkReply(append([]byte(nil), e.value...))
	case "SETEX":
		if len(cmd.Args) != 3 {
			return arity(name)
		}
		ttl, err := strconv.ParseInt(string(cmd.Args[1]), 10, 64)
		if err != nil {
			return domain.ErrorReply("ERR value is not an integer or out of range")
		}
		if ttl <= 0 {
			return domain.ErrorReply("ERR invalid expire time in 'setex' command")
		}
		s.data[string(cmd.Args[0])] = entry{
			value:   append([]byte(nil), cmd.Args[2]...),
			expires: now.Add(time.Duration(ttl) * time.Second),
		}
		return domain.StatusReply("OK")
	case "DEL":
		if len(cmd.Args) == 0 {
			return arity(name)
		}
		var n int64
		for _, k := range cmd.Args {
			if e, ok := s.data[string(k)]; ok {
				if e.expires.After(now) {
					n++
				}
				delete(s.data, string(k))
			}
		}
		return domain.IntegerReply(n)
	default:
		return domain.ErrorReply("ERR unknown command '" + cmd.Name + "'")
	}
}

func arity(name string) domain.Reply {
	return domain.ErrorReply("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
}

// Backend holds one Server per address. Connections built by Factory for
// the same address talk to the same Server.
type Backend struct {
	mu      sync.Mutex
	servers map[string]*Server
	now     func() time.Time
}

// Option configures the Backend.
type Option func(*Backend)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// NewBackend creates an empty in-memory backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		servers: make(map[string]*Server),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Server returns the server for addr, creating it on first use.
func (b *Backend) Server(addr string) *Server {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.servers[addr]
	if !ok {
		s = &Server{data: make(map[string]entry), now: b.now}
		b.servers[addr] = s
	}
	return s
}

// Factory implements ports.ConnFactory.
func (b *Backend) Factory(addr domain.Address, ep domain.Endpoint) (ports.Conn, error) {
	return &Conn{addr: addr.String(), server: b.Server(addr.String())}, nil
}
