package executor

import (
	"context"
	"sync"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/provider"
)

// Invoker is the one method of pkg/provider.Invoker the executor depends
// on; declared locally so tests can substitute a stub dialect without
// spinning up real HTTP servers.
type Invoker interface {
	Invoke(ctx context.Context, target evalmodel.ProviderTarget, test evalmodel.TestCase, opts provider.InvokeOptions) evalmodel.CallOutcome
}

// Execute runs a complete JobPlan to completion and returns its JobReport.
// Per §7, the executor never returns a Go error: every failure mode is
// recorded as a CallOutcome or a constraints_applied entry and the job
// always completes with a report.
func Execute(ctx context.Context, inv Invoker, plan evalmodel.JobPlan) evalmodel.JobReport {
	cfg := plan.Config
	jobStart := time.Now()
	bud := newBudget(cfg, jobStart)

	trackers := make([]*targetTracker, len(plan.Targets))
	for i := range plan.Targets {
		trackers[i] = newTargetTracker()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var constraints constraintSet

	if cfg.WarmUpRuns > 0 {
		warmItems := buildWorkItems(len(plan.Targets), len(plan.Tests), cfg.WarmUpRuns, plan.PriorityOrder, true)
		runPhase(ctx, cancel, inv, plan, cfg, warmItems, trackers, bud, &constraints, true)
	}

	mainItems := buildWorkItems(len(plan.Targets), len(plan.Tests), cfg.IterationsPerTest, plan.PriorityOrder, false)
	outcomes := runPhase(ctx, cancel, inv, plan, cfg, mainItems, trackers, bud, &constraints, false)

	// Every target is done dispatching once the main phase's outcome
	// channel has drained; mark each tracker terminal per §4.E's
	// ready->active->(active|quarantined)->drained machine.
	for _, tracker := range trackers {
		tracker.drain()
	}

	for _, outcome := range outcomes {
		if outcome.LowConfidence {
			constraints.add(evalmodel.ConstraintLowConfidenceResult)
			break
		}
	}

	sortOutcomes(outcomes)

	return evalmodel.JobReport{
		CorrelationID:      plan.CorrelationID,
		Outcomes:           outcomes,
		Groups:             aggregateGroups(outcomes),
		ConstraintsApplied: constraints.list(),
	}
}

// constraintSet is a dedup'd, order-stable collection of constraints
// observed during one job run.
type constraintSet struct {
	mu   sync.Mutex
	seen map[evalmodel.ConstraintApplied]bool
	ord  []evalmodel.ConstraintApplied
}

func (c *constraintSet) add(v evalmodel.ConstraintApplied) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = make(map[evalmodel.ConstraintApplied]bool)
	}
	if !c.seen[v] {
		c.seen[v] = true
		c.ord = append(c.ord, v)
	}
}

func (c *constraintSet) list() []evalmodel.ConstraintApplied {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ord) == 0 {
		return nil
	}
	out := make([]evalmodel.ConstraintApplied, len(c.ord))
	copy(out, c.ord)
	return out
}

// runPhase dispatches one full set of work items (warm-up or main) through
// a fixed-size worker pool and returns the collected outcomes. Warm-up
// outcomes are collected only to let the phase drain deterministically;
// the caller discards them per §4.E ("not aggregated and not saved").
func runPhase(
	ctx context.Context,
	cancel context.CancelFunc,
	inv Invoker,
	plan evalmodel.JobPlan,
	cfg evalmodel.ExecutionConfig,
	items []workItem,
	trackers []*targetTracker,
	bud *budget,
	constraints *constraintSet,
	warmUp bool,
) []evalmodel.CallOutcome {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	// workCh is unbuffered so a fail-fast cancellation (triggered
	// synchronously by the worker that observed the failure, below) is
	// guaranteed to close ctx.Done() before the dispatcher can hand off
	// the next item — no item is dispatched once cancellation has fired.
	workCh := make(chan workItem)
	outcomeCh := make(chan evalmodel.CallOutcome, 2*concurrency)

	var workers sync.WaitGroup
	workers.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer workers.Done()
			for item := range workCh {
				// Re-check the budget once the item is in hand: the
				// dispatcher's own check ran before this worker had
				// recorded its previous request.
				if kind, hit := bud.exceeded(); hit {
					constraints.add(kind)
					continue
				}
				outcome := dispatchOne(ctx, inv, plan, cfg, item, trackers, bud, constraints)
				if !warmUp {
					bud.addCost(outcome.TotalCostUSD())
					bud.recordRequest()
				}
				if cfg.FailFast && !warmUp && !outcome.Success {
					constraints.add(evalmodel.ConstraintFailFastTriggered)
					cancel()
				}
				outcomeCh <- outcome
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			if kind, hit := bud.exceeded(); hit {
				constraints.add(kind)
				return
			}
			select {
			case workCh <- item:
			case <-ctx.Done():
				return
			}
			if cfg.RequestDelayMs != nil && *cfg.RequestDelayMs > 0 {
				select {
				case <-time.After(time.Duration(*cfg.RequestDelayMs) * time.Millisecond):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		workers.Wait()
		close(outcomeCh)
	}()

	var collected []evalmodel.CallOutcome
	for outcome := range outcomeCh {
		collected = append(collected, outcome)
	}
	return collected
}

// dispatchOne runs the retry loop for a single work item, honoring
// quarantine short-circuits and fail-fast cancellation.
func dispatchOne(
	ctx context.Context,
	inv Invoker,
	plan evalmodel.JobPlan,
	cfg evalmodel.ExecutionConfig,
	item workItem,
	trackers []*targetTracker,
	bud *budget,
	constraints *constraintSet,
) evalmodel.CallOutcome {
	target := plan.Targets[item.targetIdx]
	test := plan.Tests[item.testIdx]
	tracker := trackers[item.targetIdx]

	if ctx.Err() != nil {
		return cancelledOutcome(target, test, item)
	}

	if tracker.isQuarantined() {
		constraints.add(evalmodel.ConstraintProviderUnavailable)
		return unavailableOutcome(target, test, item)
	}
	if !tracker.markDispatched() {
		constraints.add(evalmodel.ConstraintProviderUnavailable)
		return unavailableOutcome(target, test, item)
	}

	opts := provider.InvokeOptions{
		Iteration:     item.iteration,
		SaveResponses: cfg.SaveResponses,
		WantTTFT:      true,
	}

	bo := newRetryBackoff()
	var outcome evalmodel.CallOutcome
	for attempt := 0; ; attempt++ {
		callTimeout := time.Duration(target.TimeoutMs) * time.Millisecond
		if callTimeout <= 0 {
			callTimeout = 30 * time.Second
		}
		callCtx, cancelCall := context.WithTimeout(ctx, callTimeout)
		outcome = inv.Invoke(callCtx, target, test, opts)
		cancelCall()

		if justQuarantined := tracker.recordOutcome(string(outcome.ErrorKind), outcome.Success); justQuarantined {
			constraints.add(evalmodel.ConstraintProviderUnavailable)
		}

		if outcome.Success || !outcome.ErrorKind.Retryable() {
			break
		}
		if attempt >= target.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			break
		}

		sleep := bo.NextBackOff()
		if outcome.ErrorKind == evalmodel.ErrRateLimited && outcome.RetryAfterMs != nil {
			floor := jitterDuration(time.Duration(*outcome.RetryAfterMs)*time.Millisecond, retryAfterJitter)
			if floor > sleep {
				sleep = floor
			}
		}
		sleep = clampSleep(sleep, bud.remaining())
		if sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}
	}
	return outcome
}

func cancelledOutcome(target evalmodel.ProviderTarget, test evalmodel.TestCase, item workItem) evalmodel.CallOutcome {
	now := time.Now()
	return evalmodel.CallOutcome{
		TargetRef:    target.Ref(),
		TestRef:      test.TestID,
		Iteration:    item.iteration,
		Success:      false,
		FinishReason: evalmodel.FinishError,
		ErrorKind:    evalmodel.ErrTimeout,
		ErrorMessage: "cancelled by fail_fast",
		StartedAt:    now,
		CompletedAt:  now,
	}
}

func unavailableOutcome(target evalmodel.ProviderTarget, test evalmodel.TestCase, item workItem) evalmodel.CallOutcome {
	now := time.Now()
	return evalmodel.CallOutcome{
		TargetRef:    target.Ref(),
		TestRef:      test.TestID,
		Iteration:    item.iteration,
		Success:      false,
		FinishReason: evalmodel.FinishError,
		ErrorKind:    evalmodel.ErrAuthenticationErr,
		ErrorMessage: "target quarantined: provider_unavailable",
		StartedAt:    now,
		CompletedAt:  now,
	}
}
