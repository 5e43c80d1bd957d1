package executor

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// budget tracks the three atomic counters checked before every dispatch
// (§4.E, §5): elapsed wall time, cumulative cost, and completed request
// count. Writes are atomic adds from workers; reads are relaxed, matching
// the "no locks" requirement in §5.
type budget struct {
	cfg       evalmodel.ExecutionConfig
	jobStart  time.Time
	costBits  atomic.Uint64 // float64 bits, accumulated via CompareAndSwap loop
	requests  atomic.Int64
}

func newBudget(cfg evalmodel.ExecutionConfig, jobStart time.Time) *budget {
	return &budget{cfg: cfg, jobStart: jobStart}
}

// addCost accumulates a completed outcome's total cost atomically.
func (b *budget) addCost(usd float64) {
	for {
		old := b.costBits.Load()
		newVal := math.Float64frombits(old) + usd
		if b.costBits.CompareAndSwap(old, math.Float64bits(newVal)) {
			return
		}
	}
}

func (b *budget) cost() float64 {
	return math.Float64frombits(b.costBits.Load())
}

// recordRequest increments the completed-request counter. Call once per
// terminal outcome (after retries exhaust or succeed).
func (b *budget) recordRequest() {
	b.requests.Add(1)
}

func (b *budget) requestCount() int64 {
	return b.requests.Load()
}

func (b *budget) elapsed() time.Duration {
	return time.Since(b.jobStart)
}

// exceeded reports the first constraint crossed, if any, checked in the
// fixed order: duration, cost, request count.
func (b *budget) exceeded() (evalmodel.ConstraintApplied, bool) {
	if b.cfg.MaxDurationMs != nil && b.elapsed() >= time.Duration(*b.cfg.MaxDurationMs)*time.Millisecond {
		return evalmodel.ConstraintMaxDurationExceeded, true
	}
	if b.cfg.MaxTotalCostUSD != nil && b.cost() >= *b.cfg.MaxTotalCostUSD {
		return evalmodel.ConstraintMaxCostExceeded, true
	}
	if b.cfg.MaxTotalRequests != nil && b.requestCount() >= int64(*b.cfg.MaxTotalRequests) {
		return evalmodel.ConstraintMaxTotalRequestsExceeded, true
	}
	return "", false
}

// remaining returns the wall-clock time left before max_duration_ms, or a
// very large duration when unset.
func (b *budget) remaining() time.Duration {
	if b.cfg.MaxDurationMs == nil {
		return 365 * 24 * time.Hour
	}
	limit := time.Duration(*b.cfg.MaxDurationMs) * time.Millisecond
	left := limit - b.elapsed()
	if left < 0 {
		return 0
	}
	return left
}
