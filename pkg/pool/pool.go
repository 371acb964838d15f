package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/aretw0/sessionshard/internal/logging"
	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// Pool is the ordered set of members a session key can be routed to.
// The member order and the total weight are fixed at construction.
// Pool performs no locking around connections: callers that share a Pool
// between goroutines must serialize access per member (see session.Manager).
type Pool struct {
	members     []*Member
	totalWeight uint32
	closed      atomic.Bool

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// New builds a pool from endpoint descriptors, in configuration order.
// Connections are created through factory but not opened.
// Construction is all-or-nothing: any invalid descriptor, or an empty list,
// fails with domain.ErrConfig after every connection built so far is closed.
func New(endpoints []domain.Endpoint, factory ports.ConnFactory, opts ...Option) (*Pool, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil connection factory", domain.ErrConfig)
	}

	p := &Pool{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", domain.ErrConfig)
	}

	var total uint64
	p.members = make([]*Member, 0, len(endpoints))
	for i, ep := range endpoints {
		if err := ep.Validate(); err != nil {
			p.release()
			return nil, fmt.Errorf("endpoint %d: %w", i, err)
		}

		total += uint64(ep.Weight)
		if total > math.MaxUint32 {
			p.release()
			return nil, fmt.Errorf("%w: total weight exceeds %d", domain.ErrConfig, uint32(math.MaxUint32))
		}

		m, err := newMember(i, ep, factory)
		if err != nil {
			p.release()
			return nil, fmt.Errorf("%w: endpoint %d: %w", domain.ErrConfig, i, err)
		}
		p.members = append(p.members, m)
	}
	p.totalWeight = uint32(total)

	p.logger.Info("Pool built",
		"members", len(p.members),
		"total_weight", p.totalWeight,
	)
	return p, nil
}

// release closes whatever a failed construction already built.
func (p *Pool) release() {
	for _, m := range p.members {
		if err := m.close(); err != nil {
			p.logger.Warn("Failed to release connection after aborted construction", "err", err)
		}
	}
	p.members = nil
}

// Members returns the members in routing order.
func (p *Pool) Members() []*Member {
	return slices.Clone(p.members)
}

// TotalWeight is the sum of the member weights.
func (p *Pool) TotalWeight() uint32 {
	return p.totalWeight
}

// Closed reports whether Close was called.
func (p *Pool) Closed() bool {
	return p.closed.Load()
}

// Close closes the primary and failover connection of every member.
// It is safe to call more than once; later calls do nothing.
// After Close every routing attempt fails with domain.ErrPoolClosed.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, m := range p.members {
		if err := m.close(); err != nil {
			p.logger.Warn("Failed to close member connections", "shard", m.Addr(), "err", err)
			errs = append(errs, err)
		}
	}
	p.logger.Info("Pool closed", "members", len(p.members))
	return errors.Join(errs...)
}
