// router.go — the step router: translates user/page intent (next,
// previous, jump, retry, restart) into coordinator dispatches, deciding
// first whether the move requires a page navigation and applying the
// URL-match policy; a cross-page move dispatches its jump before the
// navigation starts (spec.md §4.4). Grounded on internal/queries/dispatcher_queries.go's
// command-routing shape: a thin typed front door over the dispatcher, no
// state of its own.
package router

import (
	"context"
	"errors"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/urlmatch"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Dispatcher is the coordinator slice the router needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, event wtypes.Event) (wtypes.WalkthroughState, error)
	GetState() wtypes.WalkthroughState
}

// Navigator triggers a tab navigation. The real implementation asks the
// extension's native-messaging host to navigate the primary tab;
// URL_CHANGED/PAGE_LOADED arrive asynchronously afterward through the
// navigation watcher, which is what actually advances the machine out of
// NAVIGATING. nil is a valid Navigator-less configuration: every move that
// would otherwise navigate instead fails with reason "navigation_failed".
type Navigator interface {
	Navigate(ctx context.Context, tabID int, url string) error
}

// ErrNoActiveSession is returned by Retry/Skip/Restart when the
// coordinator is IDLE or (for Retry/Skip) not in the state they require.
var ErrNoActiveSession = errors.New("walkthrough: no active session")

// Result is the documented {success, navigating?, reason?} shape returned
// by Next/Previous/JumpTo (spec.md §4.4). Reason is one of invalid_index,
// same_step, no_session, navigation_failed, no_target_url — populated
// whenever Success is false, and also left empty when Navigating is true
// (a triggered navigation is not a failure).
type Result struct {
	Success    bool
	Navigating bool
	Reason     string
	State      wtypes.WalkthroughState
}

// Router is a thin, stateless front door over a Dispatcher.
type Router struct {
	coord Dispatcher
	nav   Navigator
}

// New constructs a Router. nav may be nil in tests that never exercise a
// cross-page move.
func New(coord Dispatcher, nav Navigator) *Router {
	return &Router{coord: coord, nav: nav}
}

// Next advances to CurrentStepIndex+1; if that step's recorded page differs
// from the current one, it jumps to it and then navigates.
func (r *Router) Next(ctx context.Context) Result {
	return r.move(ctx, wtypes.EventNextStep, +1)
}

// Previous moves to CurrentStepIndex-1, jumping and then navigating if needed.
func (r *Router) Previous(ctx context.Context) Result {
	return r.move(ctx, wtypes.EventPrevStep, -1)
}

func (r *Router) move(ctx context.Context, event wtypes.EventType, delta int) Result {
	state := r.coord.GetState()
	if !state.IsActive() {
		return Result{Reason: "no_session"}
	}
	targetIdx := state.CurrentStepIndex + delta
	if res, handled := r.maybeNavigate(ctx, state, targetIdx); handled {
		return res
	}
	next, err := r.coord.Dispatch(ctx, wtypes.Event{Type: event})
	if err != nil {
		return Result{Reason: "navigation_failed", State: state}
	}
	return Result{Success: true, State: next}
}

// JumpTo dispatches JUMP_TO_STEP after validating idx is in range and, if
// idx lands on a different page than the current step, then navigates the
// primary tab there (spec.md §4.4's defining responsibility:
// "decides whether a page navigation is required").
func (r *Router) JumpTo(ctx context.Context, idx int) Result {
	state := r.coord.GetState()
	if !state.IsActive() {
		return Result{Reason: "no_session"}
	}
	if idx < 0 || idx >= state.TotalSteps {
		return Result{Reason: "invalid_index", State: state}
	}
	if idx == state.CurrentStepIndex {
		return Result{Reason: "same_step", State: state}
	}
	if res, handled := r.maybeNavigate(ctx, state, idx); handled {
		return res
	}
	next, err := r.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventJumpToStep, StepIndex: idx})
	if err != nil {
		return Result{Reason: "navigation_failed", State: state}
	}
	return Result{Success: true, State: next}
}

// maybeNavigate compares the current and target steps' recorded page URLs
// via the URL-match policy. When they match, it reports handled=false so
// the caller proceeds with its normal dispatch. When they don't, it either
// reports the reason it can't move, or dispatches JUMP_TO_STEP(targetIdx)
// first and then triggers the navigation, so CurrentStepIndex already names
// the target step while the navigation watcher's URL_CHANGED/PAGE_LOADED
// handling runs; the caller must not dispatch its own step event.
func (r *Router) maybeNavigate(ctx context.Context, state wtypes.WalkthroughState, targetIdx int) (Result, bool) {
	if targetIdx < 0 || targetIdx >= len(state.Steps) {
		return Result{}, false
	}
	if state.CurrentStepIndex < 0 || state.CurrentStepIndex >= len(state.Steps) {
		return Result{}, false
	}
	current := state.Steps[state.CurrentStepIndex]
	target := state.Steps[targetIdx]
	if urlmatch.Matches(current.PageContext.URL, target.PageContext.URL) {
		return Result{}, false
	}
	if target.PageContext.URL == "" {
		return Result{Reason: "no_target_url", State: state}, true
	}
	if r.nav == nil {
		return Result{Reason: "navigation_failed", State: state}, true
	}
	jumped, err := r.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventJumpToStep, StepIndex: targetIdx})
	if err != nil {
		return Result{Reason: "navigation_failed", State: state}, true
	}
	if err := r.nav.Navigate(ctx, state.Tabs.PrimaryTabID, target.PageContext.URL); err != nil {
		return Result{Reason: "navigation_failed", State: jumped}, true
	}
	return Result{Success: true, Navigating: true, State: jumped}, true
}

// Retry dispatches RETRY, only meaningful from ERROR.
func (r *Router) Retry(ctx context.Context) (wtypes.WalkthroughState, error) {
	if r.coord.GetState().MachineState != wtypes.StateError {
		return wtypes.WalkthroughState{}, ErrNoActiveSession
	}
	return r.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventRetry})
}

// Skip dispatches SKIP_STEP, only meaningful from ERROR.
func (r *Router) Skip(ctx context.Context) (wtypes.WalkthroughState, error) {
	if r.coord.GetState().MachineState != wtypes.StateError {
		return wtypes.WalkthroughState{}, ErrNoActiveSession
	}
	return r.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventSkipStep})
}

// Restart re-enters step 0 of the current workflow by jumping to it. It is
// only meaningful once a workflow is loaded (TotalSteps > 0).
func (r *Router) Restart(ctx context.Context) (wtypes.WalkthroughState, error) {
	state := r.coord.GetState()
	if !state.IsActive() || state.TotalSteps == 0 {
		return wtypes.WalkthroughState{}, ErrNoActiveSession
	}
	return r.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventJumpToStep, StepIndex: 0})
}
