package domain

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Address locates a backend either by host and port or by a unix socket path.
type Address struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty" mapstructure:"host"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty" mapstructure:"port"`
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// Network returns "unix" for socket paths and "tcp" otherwise.
func (a Address) Network() string {
	if a.Path != "" {
		return "unix"
	}
	return "tcp"
}

// IsZero reports whether neither a host nor a path is set.
func (a Address) IsZero() bool {
	return a.Host == "" && a.Path == ""
}

// String returns the dialable form of the address.
func (a Address) String() string {
	if a.Path != "" {
		return a.Path
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Endpoint is a parsed backend definition.
// Endpoints are produced by the configuration layer and consumed by the pool.
type Endpoint struct {
	Address Address

	// Weight is the share of the key space routed to this endpoint.
	Weight int

	// Timeout bounds dialing and every read/write on the connection.
	Timeout time.Duration

	// Persistent connections outlive the pool that opened them.
	Persistent   bool
	PersistentID string

	// Prefix overrides DefaultPrefix when non-nil. An empty prefix is valid.
	Prefix *string

	// Auth is sent with AUTH whenever the primary connection is (re)opened.
	Auth string

	// Failover, when set, receives the operations the primary could not serve.
	Failover *Address
}

// NewEndpoint returns an endpoint for addr with every option at its default.
func NewEndpoint(addr Address) Endpoint {
	return Endpoint{
		Address: addr,
		Weight:  DefaultWeight,
		Timeout: DefaultTimeout,
	}
}

// Validate checks the structural invariants of the descriptor.
func (e Endpoint) Validate() error {
	if e.Address.IsZero() {
		return fmt.Errorf("%w: endpoint has neither host nor path", ErrConfig)
	}
	if e.Weight <= 0 {
		return fmt.Errorf("%w: endpoint %s has non-positive weight %d", ErrConfig, e.Address, e.Weight)
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("%w: endpoint %s has non-positive timeout %s", ErrConfig, e.Address, e.Timeout)
	}
	if e.Failover != nil && e.Failover.IsZero() {
		return fmt.Errorf("%w: endpoint %s has an empty failover address", ErrConfig, e.Address)
	}
	return nil
}

// StringPtr is a helper for setting optional string fields such as Prefix.
func StringPtr(s string) *string {
	return &s
}
