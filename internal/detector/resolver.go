package detector

import (
	"errors"
	"sync"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// ErrMarketNotFound is returned by a MarketLookup when the referenced market
// cannot be resolved. Signals treat it as missing context and degrade to
// their lowest band instead of failing.
var ErrMarketNotFound = errors.New("market not found")

// MarketLookup resolves the token/outcome identifier referenced by a trade
// into the owning market's lifecycle and resolution metadata. A market with
// Resolved=false is a valid result.
type MarketLookup interface {
	Resolve(marketID string) (*models.Market, error)
}

// LookupFunc adapts a plain function to the MarketLookup interface.
type LookupFunc func(marketID string) (*models.Market, error)

// Resolve calls f.
func (f LookupFunc) Resolve(marketID string) (*models.Market, error) {
	return f(marketID)
}

// CachedResolver memoizes an underlying lookup. Market records are immutable
// once resolved, so cached entries are shared read-only across concurrent
// wallet evaluations; misses are cached too so a batch never re-queries a
// dead token id.
type CachedResolver struct {
	inner MarketLookup

	mu      sync.RWMutex
	markets map[string]*models.Market
	misses  map[string]struct{}
}

// NewCachedResolver wraps inner with an in-memory cache.
func NewCachedResolver(inner MarketLookup) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		markets: make(map[string]*models.Market),
		misses:  make(map[string]struct{}),
	}
}

// Resolve returns the owning market for marketID, consulting the cache first.
func (r *CachedResolver) Resolve(marketID string) (*models.Market, error) {
	r.mu.RLock()
	m, ok := r.markets[marketID]
	if !ok {
		_, missed := r.misses[marketID]
		r.mu.RUnlock()
		if missed {
			return nil, ErrMarketNotFound
		}
	} else {
		r.mu.RUnlock()
		return m, nil
	}

	m, err := r.inner.Resolve(marketID)
	if err != nil {
		if errors.Is(err, ErrMarketNotFound) {
			r.mu.Lock()
			r.misses[marketID] = struct{}{}
			r.mu.Unlock()
		}
		return nil, err
	}

	r.mu.Lock()
	r.markets[marketID] = m
	r.mu.Unlock()
	return m, nil
}
