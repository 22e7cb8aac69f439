package persist

import "context"

// Breaker decides whether the remote path may be used. It wraps a liveness
// probe and trips to the local path after a configurable number of
// consecutive probe failures. Once tripped it stays tripped for the rest of
// the pipeline invocation; once passed, the remote path is committed to and
// later per-call failures do not reopen the decision.
type Breaker struct {
	threshold int
	failures  int
	probe     func(context.Context) error
}

// NewBreaker creates a breaker around probe. threshold is the number of
// consecutive probe failures that trips it; values below 1 are treated as 1.
func NewBreaker(threshold int, probe func(context.Context) error) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{threshold: threshold, probe: probe}
}

// Allow reports whether the remote path is available, probing until the
// endpoint responds or the failure threshold is reached.
func (b *Breaker) Allow(ctx context.Context) bool {
	for b.failures < b.threshold {
		if err := b.probe(ctx); err != nil {
			b.failures++
			continue
		}
		return true
	}
	return false
}

// Tripped reports whether the breaker has hit its failure threshold.
func (b *Breaker) Tripped() bool {
	return b.failures >= b.threshold
}
