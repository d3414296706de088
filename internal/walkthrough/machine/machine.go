// machine.go — the pure walkthrough state machine: Dispatch(state, event,
// now) -> state', a total function with no I/O and no time source other
// than the injected now (spec.md §4.1). Grounded on the teacher's
// internal/queries command-dispatch shape (typed enum + table-driven
// handling); this one stays stdlib-only by design — see DESIGN.md.
package machine

import (
	"time"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/urlmatch"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Result is the outcome of one Dispatch call.
type Result struct {
	State   wtypes.WalkthroughState
	Changed bool
}

// Dispatch computes the next state for (state, event). now is the only
// time source the machine ever consults. Unknown events or failed guards
// leave the state unchanged (Changed=false) — this is never fatal
// (spec.md §4.1 "Failure mode").
func Dispatch(state wtypes.WalkthroughState, event wtypes.Event, now func() time.Time) Result {
	// EXIT and primary-tab TAB_CLOSED apply from any state first (spec.md
	// §4.1 transition table, "*" rows evaluated before per-state rows).
	if event.Type == wtypes.EventExit {
		return Result{State: wtypes.NewIdleState(state.SessionID), Changed: true}
	}
	if event.Type == wtypes.EventTabClosed && event.TabID == state.Tabs.PrimaryTabID && state.MachineState != wtypes.StateIdle {
		return Result{State: wtypes.NewIdleState(state.SessionID), Changed: true}
	}

	next, changed := transition(state, event)
	if !changed {
		return Result{State: state, Changed: false}
	}

	t := now()
	if next.MachineState == wtypes.StateNavigating && next.Navigation.StartedAt.IsZero() {
		next.Navigation.StartedAt = t
	}
	if next.IsActive() {
		next.Timing.LastActivityAt = t
		next.Timing.ExpiresAt = t.Add(wtypes.SessionTimeout)
		if next.Timing.SessionStartedAt.IsZero() {
			next.Timing.SessionStartedAt = t
		}
	}
	return Result{State: next, Changed: true}
}

// transition applies the per-state transition table. Returns the original
// state and changed=false if no row matches or its guard fails.
func transition(s wtypes.WalkthroughState, e wtypes.Event) (wtypes.WalkthroughState, bool) {
	switch s.MachineState {
	case wtypes.StateIdle:
		if e.Type == wtypes.EventStart {
			next := s.Clone()
			next.MachineState = wtypes.StateInitializing
			next.PreviousState = wtypes.StateIdle
			next.SessionID = newSessionIDIfEmpty(s.SessionID)
			next.Tabs.PrimaryTabID = e.TabID
			next.Tabs.ActiveTabIDs = wtypes.AddTab(next.Tabs.ActiveTabIDs, e.TabID)
			next.WorkflowID = e.WorkflowID
			return next, true
		}

	case wtypes.StateInitializing:
		switch e.Type {
		case wtypes.EventDataLoaded:
			next := s.Clone()
			next.PreviousState = s.MachineState
			next.WorkflowName = e.WorkflowName
			next.StartingURL = e.StartingURL
			next.Steps = e.Steps
			next.TotalSteps = len(e.Steps)
			next.CurrentStepIndex = 0
			if len(e.Steps) == 0 {
				next.MachineState = wtypes.StateError
				next.ErrorInfo = wtypes.ErrorInfo{Type: wtypes.ErrorAPIError, Message: "workflow has no steps", StepIndex: 0}
			} else {
				next.MachineState = wtypes.StateShowingStep
			}
			return next, true
		case wtypes.EventInitFailed:
			next := s.Clone()
			next.PreviousState = s.MachineState
			next.MachineState = wtypes.StateError
			next.ErrorInfo = wtypes.ErrorInfo{Type: wtypes.ErrorAPIError, Message: e.Message, StepIndex: s.CurrentStepIndex}
			return next, true
		}

	case wtypes.StateShowingStep:
		switch e.Type {
		case wtypes.EventElementFound:
			return advanceTo(s, wtypes.StateWaitingAction), true
		case wtypes.EventElementNotFound:
			next := advanceTo(s, wtypes.StateHealing)
			next.HealingInfo = &wtypes.HealingInfo{InProgress: true}
			return next, true
		case wtypes.EventURLChanged:
			return applyURLChanged(s, e), true
		case wtypes.EventJumpToStep:
			if next, ok := jumpToStep(s, e.StepIndex); ok {
				return next, true
			}
		}

	case wtypes.StateWaitingAction:
		switch e.Type {
		case wtypes.EventActionDetected:
			return advanceTo(s, wtypes.StateTransitioning), true
		case wtypes.EventActionInvalid:
			retries := s.StepRetries[s.CurrentStepIndex]
			if retries >= wtypes.MaxActionRetries-1 {
				next := advanceTo(s, wtypes.StateError)
				next.ErrorInfo = wtypes.ErrorInfo{
					Type:       wtypes.ErrorElementNotFound,
					Message:    e.InvalidReason,
					StepIndex:  s.CurrentStepIndex,
					RetryCount: retries + 1,
				}
				next.StepRetries = incrementRetry(s.StepRetries, s.CurrentStepIndex)
				return next, true
			}
			next := advanceTo(s, wtypes.StateWaitingAction)
			next.StepRetries = incrementRetry(s.StepRetries, s.CurrentStepIndex)
			return next, true
		case wtypes.EventURLChanged:
			return applyURLChanged(s, e), true
		case wtypes.EventJumpToStep:
			if next, ok := jumpToStep(s, e.StepIndex); ok {
				return next, true
			}
		}

	case wtypes.StateHealing:
		switch e.Type {
		case wtypes.EventHealingStarted:
			next := s.Clone()
			next.HealingInfo = &wtypes.HealingInfo{
				InProgress:            true,
				CandidateCount:        e.CandidateCount,
				BestScore:             e.BestScore,
				AIValidationRequested: e.AIRequested,
			}
			return next, true
		case wtypes.EventHealSuccess:
			next := advanceTo(s, wtypes.StateWaitingAction)
			next.HealingInfo = nil
			if e.HealedSelector != nil && s.CurrentStepIndex < len(next.Steps) {
				next.Steps[s.CurrentStepIndex].HealedSelector = e.HealedSelector
			}
			return next, true
		case wtypes.EventHealFailed:
			next := advanceTo(s, wtypes.StateError)
			next.HealingInfo = nil
			next.ErrorInfo = wtypes.ErrorInfo{Type: wtypes.ErrorHealingFailed, Message: e.Message, StepIndex: s.CurrentStepIndex}
			return next, true
		}

	case wtypes.StateTransitioning:
		switch e.Type {
		case wtypes.EventNextStep:
			if s.HasNext() {
				next := advanceTo(s, wtypes.StateShowingStep)
				next.CurrentStepIndex = s.CurrentStepIndex + 1
				next.CompletedStepIndexes = wtypes.MarkStepCompleted(s.CompletedStepIndexes, s.CurrentStepIndex)
				return next, true
			}
			next := advanceTo(s, wtypes.StateCompleted)
			next.CompletedStepIndexes = wtypes.MarkStepCompleted(s.CompletedStepIndexes, s.CurrentStepIndex)
			return next, true
		case wtypes.EventPrevStep:
			if s.HasPrev() {
				next := advanceTo(s, wtypes.StateShowingStep)
				next.CurrentStepIndex = s.CurrentStepIndex - 1
				return next, true
			}
		case wtypes.EventURLChanged:
			return applyURLChanged(s, e), true
		}

	case wtypes.StateNavigating:
		switch e.Type {
		case wtypes.EventPageLoaded:
			if e.TabID == s.Navigation.TabID {
				next := advanceTo(s, wtypes.StateShowingStep)
				next.Navigation = wtypes.NavigationInfo{}
				return next, true
			}
			// PAGE_LOADED for a tab that isn't the one we're waiting on: no-op.
		case wtypes.EventURLChanged:
			next := s.Clone()
			next.Navigation.TargetURL = e.URL
			return next, true
		case wtypes.EventActionDetected:
			// Race protection: ignore actions that race a navigation.
			return s, false
		case wtypes.EventNavigationTimeout:
			next := advanceTo(s, wtypes.StateError)
			next.ErrorInfo = wtypes.ErrorInfo{Type: wtypes.ErrorNavigationTimeout, StepIndex: s.CurrentStepIndex}
			next.Navigation = wtypes.NavigationInfo{}
			return next, true
		case wtypes.EventJumpToStep:
			if next, ok := jumpToStep(s, e.StepIndex); ok {
				next.Navigation = wtypes.NavigationInfo{}
				return next, true
			}
		}

	case wtypes.StateError:
		switch e.Type {
		case wtypes.EventRetry:
			next := advanceTo(s, wtypes.StateShowingStep)
			next.ErrorInfo = wtypes.ErrorInfo{}
			return next, true
		case wtypes.EventSkipStep:
			if s.HasNext() {
				next := advanceTo(s, wtypes.StateTransitioning)
				next.ErrorInfo = wtypes.ErrorInfo{}
				next.CurrentStepIndex = s.CurrentStepIndex + 1
				return next, true
			}
			next := advanceTo(s, wtypes.StateCompleted)
			next.ErrorInfo = wtypes.ErrorInfo{}
			return next, true
		}
	}

	return s, false
}

// advanceTo returns a clone with MachineState set to next and
// PreviousState recorded.
func advanceTo(s wtypes.WalkthroughState, next wtypes.MachineState) wtypes.WalkthroughState {
	out := s.Clone()
	out.PreviousState = s.MachineState
	out.MachineState = next
	return out
}

// jumpToStep validates idx and, if valid, returns a SHOWING_STEP clone with
// CurrentStepIndex set to idx.
func jumpToStep(s wtypes.WalkthroughState, idx int) (wtypes.WalkthroughState, bool) {
	if idx < 0 || idx >= s.TotalSteps {
		return s, false
	}
	next := advanceTo(s, wtypes.StateShowingStep)
	next.CurrentStepIndex = idx
	return next, true
}

// applyURLChanged implements the special URL_CHANGED payload semantics
// (spec.md §4.1): if the current step is a navigate step whose recorded
// URL matches the new target, mark it completed and advance the index
// before applying the NAVIGATING transition.
func applyURLChanged(s wtypes.WalkthroughState, e wtypes.Event) wtypes.WalkthroughState {
	next := advanceTo(s, wtypes.StateNavigating)
	next.Navigation = wtypes.NavigationInfo{
		InProgress: true,
		TabID:      s.Tabs.PrimaryTabID,
		SourceURL:  s.StartingURL,
		TargetURL:  e.URL,
	}

	if s.CurrentStepIndex < len(s.Steps) {
		step := s.Steps[s.CurrentStepIndex]
		if step.ActionType == wtypes.ActionNavigate && urlmatch.Matches(e.URL, step.PageContext.URL) {
			next.CompletedStepIndexes = wtypes.MarkStepCompleted(s.CompletedStepIndexes, s.CurrentStepIndex)
			if next.HasNext() {
				next.CurrentStepIndex = s.CurrentStepIndex + 1
			}
		}
	}
	return next
}

func incrementRetry(retries map[int]int, idx int) map[int]int {
	out := make(map[int]int, len(retries)+1)
	for k, v := range retries {
		out[k] = v
	}
	out[idx]++
	return out
}

// sessionIDFactory is overridable for tests that need deterministic IDs;
// production wiring injects uuid.NewString via coordinator.
var sessionIDFactory = func() string { return "" }

// SetSessionIDFactory overrides how Dispatch mints a sessionId on START
// when none is already set. The coordinator calls this once at startup
// with uuid.NewString so the pure machine package stays free of a direct
// dependency on the ID-generation library.
func SetSessionIDFactory(f func() string) {
	if f != nil {
		sessionIDFactory = f
	}
}

func newSessionIDIfEmpty(existing string) string {
	if existing != "" {
		return existing
	}
	return sessionIDFactory()
}
