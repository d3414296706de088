// fragile.go — fragile-selector detection across playback runs: a direct
// generalization of the teacher's DetectFragileSelectors
// (internal/recording/playback_engine.go) from "click actions only" to any
// strategy, and from an in-memory map to a small struct API the coordinator
// can call at session end.
package healer

import "sync"

// RunOutcome is one strategy's result within a single playback run.
type RunOutcome struct {
	Strategy string
	Failed   bool
}

// FragileTracker accumulates per-strategy success/failure counts across
// multiple playback runs and flags strategies that fail more than half the
// time, the same threshold the teacher uses.
type FragileTracker struct {
	mu    sync.Mutex
	runs  map[string]int
	fails map[string]int
}

// NewFragileTracker constructs an empty tracker.
func NewFragileTracker() *FragileTracker {
	return &FragileTracker{runs: make(map[string]int), fails: make(map[string]int)}
}

// Record folds one run's outcomes into the tracker's counters.
func (t *FragileTracker) Record(outcomes []RunOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range outcomes {
		t.runs[o.Strategy]++
		if o.Failed {
			t.fails[o.Strategy]++
		}
	}
}

// Fragile returns the set of strategies with a failure rate above 50%
// across at least two recorded runs (needs at least 2 runs for comparison,
// matching the teacher's guard).
func (t *FragileTracker) Fragile() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool)
	for strategy, runCount := range t.runs {
		if runCount < 2 {
			continue
		}
		if float64(t.fails[strategy])/float64(runCount) > 0.5 {
			out[strategy] = true
		}
	}
	return out
}
