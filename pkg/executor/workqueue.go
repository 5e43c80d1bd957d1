package executor

import "github.com/evalforge/evalharness/pkg/evalmodel"

// workItem is one (target, test, iteration) dispatch unit.
type workItem struct {
	targetIdx int
	testIdx   int
	iteration int
	warmUp    bool
}

// buildWorkItems expands targets×tests×iterations into the dispatch order
// named by priority_order (§3, §4.E). warmUp marks every item as a
// warm-up run instead of building the count separately; callers build the
// warm-up and main queues with two calls using different iteration counts.
func buildWorkItems(numTargets, numTests, iterations int, order evalmodel.PriorityOrder, warmUp bool) []workItem {
	items := make([]workItem, 0, numTargets*numTests*iterations)

	switch order {
	case evalmodel.ByTestThenTarget:
		for ti := 0; ti < numTests; ti++ {
			for gi := 0; gi < numTargets; gi++ {
				for it := 0; it < iterations; it++ {
					items = append(items, workItem{targetIdx: gi, testIdx: ti, iteration: it, warmUp: warmUp})
				}
			}
		}
	case evalmodel.Interleaved:
		for it := 0; it < iterations; it++ {
			for gi := 0; gi < numTargets; gi++ {
				for ti := 0; ti < numTests; ti++ {
					items = append(items, workItem{targetIdx: gi, testIdx: ti, iteration: it, warmUp: warmUp})
				}
			}
		}
	default: // ByTargetThenTest, and the zero-value fallback
		for gi := 0; gi < numTargets; gi++ {
			for ti := 0; ti < numTests; ti++ {
				for it := 0; it < iterations; it++ {
					items = append(items, workItem{targetIdx: gi, testIdx: ti, iteration: it, warmUp: warmUp})
				}
			}
		}
	}
	return items
}
