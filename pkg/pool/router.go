package pool

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/aretw0/sessionshard/pkg/ports"
)

// Position projects a key onto [0, totalWeight).
// The first four bytes of the key are read as a little-endian uint32; keys
// shorter than four bytes are padded with zeros. This is a fast deterministic
// projection, not a hash: keys sharing their first four bytes share a position.
func Position(key []byte, totalWeight uint32) uint32 {
	if totalWeight == 0 {
		return 0
	}
	var head [4]byte
	copy(head[:], key)
	return binary.LittleEndian.Uint32(head[:]) % totalWeight
}

// Locate returns the member whose weight range [start, start+weight) holds pos.
func (p *Pool) Locate(pos uint32) (*Member, bool) {
	var start uint64
	for _, m := range p.members {
		end := start + uint64(m.weight)
		if uint64(pos) >= start && uint64(pos) < end {
			return m, true
		}
		start = end
	}
	return nil, false
}

// Route returns the member key maps to and its position, without touching
// any connection.
func (p *Pool) Route(key []byte) (*Member, uint32, error) {
	pos := Position(key, p.totalWeight)
	m, ok := p.Locate(pos)
	if !ok {
		return nil, pos, fmt.Errorf("%w: position %d outside total weight %d", domain.ErrNoBackend, pos, p.totalWeight)
	}
	return m, pos, nil
}

// Select routes key to a member and makes its connections ready.
//
// The primary needs authentication when a credential is configured and the
// primary is not connected. Both connections are then opened (a no-op when
// already open) and, if authentication was needed, AUTH is sent to the
// primary and to the failover. Open and AUTH failures are logged only; they
// surface on the command that follows.
func (p *Pool) Select(ctx context.Context, key []byte) (*Member, error) {
	if p.closed.Load() {
		return nil, domain.ErrPoolClosed
	}

	m, pos, err := p.Route(key)
	if err != nil {
		return nil, err
	}

	needsAuth := m.auth != "" && m.primary.Status() != domain.StatusConnected

	p.open(ctx, m.primary)
	if m.failover != nil {
		p.open(ctx, m.failover)
	}

	if needsAuth {
		p.authenticate(ctx, m, m.primary)
		if m.failover != nil {
			p.authenticate(ctx, m, m.failover)
		}
	}

	p.hooks.EmitRoute(ctx, &domain.RouteEvent{
		EventBase: domain.EventBase{Timestamp: time.Now()},
		Shard:     m.Addr(),
		Position:  pos,
		NeedsAuth: needsAuth,
	})
	return m, nil
}

func (p *Pool) open(ctx context.Context, conn ports.Conn) {
	if err := conn.Open(ctx, false); err != nil {
		p.logger.Warn("Failed to open backend connection", "shard", conn.Addr(), "err", err)
	}
}

func (p *Pool) authenticate(ctx context.Context, m *Member, conn ports.Conn) {
	reply, err := conn.Do(ctx, domain.Auth(m.auth))
	switch {
	case err != nil:
		p.logger.Warn("Failed to send AUTH", "shard", conn.Addr(), "err", err)
	case reply.Kind == domain.ReplyError:
		p.logger.Warn("Backend rejected AUTH", "shard", conn.Addr(), "reply", reply.Str)
	}
}
