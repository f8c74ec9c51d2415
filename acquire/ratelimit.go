package acquire

import (
	"context"
	"sync"

	"github.com/fwojciec/research"
	"golang.org/x/time/rate"
)

var _ research.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces out requests to the same host while leaving
// requests to different hosts independent.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewDomainLimiter returns a limiter allowing rps requests per second to
// each domain with the given burst. A burst below 1 is treated as 1.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    max(burst, 1),
	}
}

// Wait blocks until the domain's limiter admits a request or ctx ends.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), d.burst)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
