package decision

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// Notifier emits the telemetry events named in §4.G/§6. pkg/telemetry's
// tracer satisfies this interface via otel span events; tests can supply a
// no-op or recording stub without importing otel.
type Notifier interface {
	EmitDecisionEmitted(ctx context.Context, decisionID, agentID string, confidence float64)
	EmitPersistenceDrop(ctx context.Context, decisionID, agentID string)
}

type noopNotifier struct{}

func (noopNotifier) EmitDecisionEmitted(context.Context, string, string, float64) {}
func (noopNotifier) EmitPersistenceDrop(context.Context, string, string)          {}

// Pipeline is the write-behind decision persistence path from §4.G: a
// bounded in-memory buffer with drop-oldest overflow, drained by a
// dedicated flusher goroutine that retries each record against the
// gateway with exponential backoff.
type Pipeline struct {
	gateway  *Gateway
	notifier Notifier

	mu       sync.Mutex
	buf      []evalmodel.DecisionRecord
	capacity int

	flushCh  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPipeline builds a pipeline with the given bounded buffer capacity and
// starts its flusher goroutine immediately.
func NewPipeline(gateway *Gateway, notifier Notifier, capacity int) *Pipeline {
	if capacity <= 0 {
		capacity = 256
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	p := &Pipeline{
		gateway:  gateway,
		notifier: notifier,
		capacity: capacity,
		flushCh:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Emit enqueues a DecisionRecord for write-behind persistence and emits
// the decision_emitted telemetry event (§4.G steps 2-3). Never blocks: on
// a full buffer, the oldest entry is dropped and a persistence_drop event
// is emitted for it.
func (p *Pipeline) Emit(ctx context.Context, record evalmodel.DecisionRecord) {
	p.notifier.EmitDecisionEmitted(ctx, record.DecisionID, record.AgentID, record.Confidence)

	p.mu.Lock()
	var dropped *evalmodel.DecisionRecord
	if len(p.buf) >= p.capacity {
		d := p.buf[0]
		dropped = &d
		p.buf = p.buf[1:]
	}
	p.buf = append(p.buf, record)
	p.mu.Unlock()

	if dropped != nil {
		p.notifier.EmitPersistenceDrop(ctx, dropped.DecisionID, dropped.AgentID)
	}

	select {
	case p.flushCh <- struct{}{}:
	default:
	}
}

// run is the dedicated flusher: it wakes on every Emit signal and drains
// the buffer until empty or stop is requested.
func (p *Pipeline) run() {
	defer close(p.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.flushCh:
			p.drainOnce(context.Background())
		case <-ticker.C:
			p.drainOnce(context.Background())
		case <-p.stopCh:
			p.drainOnce(context.Background())
			return
		}
	}
}

// drainOnce pops and flushes every record currently buffered, one at a
// time, so a dropped (overflowing) record during a slow flush is still
// observed by the next Emit call rather than lost silently.
func (p *Pipeline) drainOnce(ctx context.Context) {
	for {
		p.mu.Lock()
		if len(p.buf) == 0 {
			p.mu.Unlock()
			return
		}
		record := p.buf[0]
		p.buf = p.buf[1:]
		p.mu.Unlock()

		if err := p.flushWithRetry(ctx, record); err != nil {
			slog.Error("decision record flush failed after retries, dropping", "decision_id", record.DecisionID, "error", err)
			p.notifier.EmitPersistenceDrop(ctx, record.DecisionID, record.AgentID)
		}
	}
}

// flushWithRetry makes at most 3 attempts with exponential backoff,
// 5s per-attempt timeout, per §4.G step 3.
func (p *Pipeline) flushWithRetry(ctx context.Context, record evalmodel.DecisionRecord) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.Multiplier = 2
	b.Reset()

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = p.gateway.PostDecision(attemptCtx, record)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt < 2 {
			time.Sleep(b.NextBackOff())
		}
	}
	return lastErr
}

// Shutdown flushes until the buffer is empty or the 10s drain deadline
// elapses (§4.G step 4), whichever comes first.
func (p *Pipeline) Shutdown(ctx context.Context) {
	p.stopOnce.Do(func() { close(p.stopCh) })

	deadline := time.NewTimer(10 * time.Second)
	defer deadline.Stop()
	select {
	case <-p.done:
	case <-deadline.C:
		slog.Warn("decision pipeline shutdown drain deadline elapsed with records still buffered")
	case <-ctx.Done():
	}
}

// BufferLen reports the current buffered-record count (test/debug helper).
func (p *Pipeline) BufferLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}
