// Package stub provides a configurable in-memory chain.Reader for tests.
package stub

import (
	"context"
	"sync"
	"sync/atomic"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/domain"
)

// Reader is an in-memory chain.Reader. Zero value is usable; populate
// the maps and error fields as needed. Safe for concurrent use.
type Reader struct {
	mu sync.RWMutex

	Clubs      map[string]*domain.Club
	Grants     map[string]*domain.VestingGrant      // keyed by token|beneficiary
	Positions  map[string]*domain.LiquidityPosition // keyed by position mint
	Stakes     map[string]*domain.StakeRecord       // keyed by mint|incentive
	Incentives map[string]*domain.Incentive         // keyed by incentive key

	// Err, when set, is returned by every read.
	Err error

	// IncentiveFetches counts Incentive calls, for memoization tests.
	IncentiveFetches atomic.Int64

	// ClubStateFetches counts ClubState calls, for refresh rate-limit tests.
	ClubStateFetches atomic.Int64
}

// NewReader creates an empty stub reader.
func NewReader() *Reader {
	return &Reader{
		Clubs:      make(map[string]*domain.Club),
		Grants:     make(map[string]*domain.VestingGrant),
		Positions:  make(map[string]*domain.LiquidityPosition),
		Stakes:     make(map[string]*domain.StakeRecord),
		Incentives: make(map[string]*domain.Incentive),
	}
}

// Compile-time interface check.
var _ chain.Reader = (*Reader)(nil)

// SetClub stores a club state for subsequent reads.
func (r *Reader) SetClub(c *domain.Club) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Clubs[c.ClubID] = c
}

// SetGrant stores a grant for subsequent reads.
func (r *Reader) SetGrant(g *domain.VestingGrant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Grants[g.TokenAddress+"|"+g.Beneficiary] = g
}

// SetPosition stores a position and its stake record.
func (r *Reader) SetPosition(p *domain.LiquidityPosition, s *domain.StakeRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Positions[p.PositionMint] = p
	if s != nil {
		r.Stakes[s.PositionMint+"|"+s.IncentiveKey] = s
	}
}

// SetIncentive stores an incentive program.
func (r *Reader) SetIncentive(inc *domain.Incentive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Incentives[inc.Key] = inc
}

// ClubState implements chain.Reader.
func (r *Reader) ClubState(_ context.Context, clubID string) (*domain.Club, error) {
	r.ClubStateFetches.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	c, ok := r.Clubs[clubID]
	if !ok {
		return nil, chain.ErrNotFound
	}
	clubCopy := *c
	return &clubCopy, nil
}

// VestingGrant implements chain.Reader.
func (r *Reader) VestingGrant(_ context.Context, tokenAddress, beneficiary string) (*domain.VestingGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	g, ok := r.Grants[tokenAddress+"|"+beneficiary]
	if !ok {
		return nil, chain.ErrNotFound
	}
	grantCopy := *g
	return &grantCopy, nil
}

// LiquidityPosition implements chain.Reader.
func (r *Reader) LiquidityPosition(_ context.Context, positionMint string) (*domain.LiquidityPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.Positions[positionMint]
	if !ok {
		return nil, chain.ErrNotFound
	}
	posCopy := *p
	return &posCopy, nil
}

// StakeRecord implements chain.Reader.
func (r *Reader) StakeRecord(_ context.Context, positionMint, incentiveKey string) (*domain.StakeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.Stakes[positionMint+"|"+incentiveKey]
	if !ok {
		return nil, chain.ErrNotFound
	}
	stakeCopy := *s
	return &stakeCopy, nil
}

// Incentive implements chain.Reader.
func (r *Reader) Incentive(_ context.Context, incentiveKey string) (*domain.Incentive, error) {
	r.IncentiveFetches.Add(1)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	inc, ok := r.Incentives[incentiveKey]
	if !ok {
		return nil, chain.ErrNotFound
	}
	incCopy := *inc
	return &incCopy, nil
}
