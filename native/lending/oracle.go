package lending

import (
	"fmt"
	"sync"

	"openchain/crypto"
)

// PriceOracle resolves the latest unit price reported by a registered feed.
// The raw answer is signed because upstream feeds may report non-positive
// values during outages; callers must treat those as invalid.
type PriceOracle interface {
	LatestPrice(feed crypto.Address) (int64, error)
}

// StaticOracle is an in-memory PriceOracle fed by an operator or test
// harness. Production deployments substitute a feed-backed implementation.
type StaticOracle struct {
	mu     sync.RWMutex
	prices map[string]int64
}

// NewStaticOracle constructs an empty static oracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{prices: make(map[string]int64)}
}

// SetPrice records the latest answer for a feed.
func (o *StaticOracle) SetPrice(feed crypto.Address, price int64) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.prices[string(feed.Bytes())] = price
	o.mu.Unlock()
}

// LatestPrice returns the recorded answer for the feed.
func (o *StaticOracle) LatestPrice(feed crypto.Address) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("%w: oracle not configured", ErrInvalidPriceData)
	}
	o.mu.RLock()
	price, ok := o.prices[string(feed.Bytes())]
	o.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: no answer for feed %s", ErrInvalidPriceData, feed.String())
	}
	return price, nil
}
