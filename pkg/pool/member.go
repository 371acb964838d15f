package pool

import (
	"errors"
	"fmt"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// Member binds a primary connection, its weight, key prefix, credential
// and an optional failover connection. It is immutable once built.
type Member struct {
	index     int
	primary   ports.Conn
	failover  ports.Conn
	weight    uint32
	prefix    string
	hasPrefix bool
	auth      string
}

func newMember(index int, ep domain.Endpoint, factory ports.ConnFactory) (*Member, error) {
	primary, err := factory(ep.Address, ep)
	if err != nil {
		return nil, fmt.Errorf("primary %s: %w", ep.Address, err)
	}

	m := &Member{
		index:   index,
		primary: primary,
		weight:  uint32(ep.Weight),
		auth:    ep.Auth,
	}
	if ep.Prefix != nil {
		m.prefix = *ep.Prefix
		m.hasPrefix = true
	}

	if ep.Failover != nil {
		failover, err := factory(*ep.Failover, ep)
		if err != nil {
			_ = primary.Close()
			return nil, fmt.Errorf("failover %s: %w", ep.Failover, err)
		}
		m.failover = failover
	}
	return m, nil
}

// Index is the position of the member in configuration order.
func (m *Member) Index() int { return m.index }

// Primary returns the connection every operation tries first.
func (m *Member) Primary() ports.Conn { return m.primary }

// Failover returns the backup connection, or nil when none is configured.
func (m *Member) Failover() ports.Conn { return m.failover }

// HasFailover reports whether a failover connection is configured.
func (m *Member) HasFailover() bool { return m.failover != nil }

// Weight is the share of the key space routed to the member.
func (m *Member) Weight() uint32 { return m.weight }

// Prefix returns the configured prefix, or domain.DefaultPrefix when none was configured.
func (m *Member) Prefix() string {
	if m.hasPrefix {
		return m.prefix
	}
	return domain.DefaultPrefix
}

// HasAuth reports whether a credential is configured.
func (m *Member) HasAuth() bool { return m.auth != "" }

// Addr is the primary address, used to label logs and metrics.
func (m *Member) Addr() string { return m.primary.Addr() }

func (m *Member) close() error {
	var errs []error
	if err := m.primary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close primary %s: %w", m.primary.Addr(), err))
	}
	if m.failover != nil {
		if err := m.failover.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close failover %s: %w", m.failover.Addr(), err))
		}
	}
	return errors.Join(errs...)
}
