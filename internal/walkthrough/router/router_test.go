package router

import (
	"context"
	"errors"
	"testing"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

type fakeDispatcher struct {
	state  wtypes.WalkthroughState
	events []wtypes.Event
}

func (f *fakeDispatcher) Dispatch(_ context.Context, e wtypes.Event) (wtypes.WalkthroughState, error) {
	f.events = append(f.events, e)
	return f.state, nil
}

func (f *fakeDispatcher) GetState() wtypes.WalkthroughState { return f.state }

type fakeNavigator struct {
	calls []string
	err   error
}

func (n *fakeNavigator) Navigate(_ context.Context, tabID int, url string) error {
	n.calls = append(n.calls, url)
	return n.err
}

func TestNextRequiresActiveSession(t *testing.T) {
	r := New(&fakeDispatcher{state: wtypes.NewIdleState("")}, nil)
	res := r.Next(context.Background())
	if res.Success || res.Reason != "no_session" {
		t.Fatalf("expected no_session, got %+v", res)
	}
}

func TestJumpToOutOfRange(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{MachineState: wtypes.StateShowingStep, TotalSteps: 3}}
	r := New(f, nil)
	res := r.JumpTo(context.Background(), 5)
	if res.Success || res.Reason != "invalid_index" {
		t.Fatalf("expected invalid_index, got %+v", res)
	}
	if len(f.events) != 0 {
		t.Fatalf("expected no dispatch for out-of-range jump")
	}
}

func TestJumpToSameStep(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{MachineState: wtypes.StateShowingStep, TotalSteps: 3, CurrentStepIndex: 1}}
	r := New(f, nil)
	res := r.JumpTo(context.Background(), 1)
	if res.Success || res.Reason != "same_step" {
		t.Fatalf("expected same_step, got %+v", res)
	}
	if len(f.events) != 0 {
		t.Fatalf("expected no dispatch for a same-step jump")
	}
}

func TestJumpToValidDispatches(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{MachineState: wtypes.StateShowingStep, TotalSteps: 3}}
	r := New(f, nil)
	res := r.JumpTo(context.Background(), 1)
	if !res.Success {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if len(f.events) != 1 || f.events[0].Type != wtypes.EventJumpToStep || f.events[0].StepIndex != 1 {
		t.Fatalf("unexpected dispatch: %+v", f.events)
	}
}

func TestJumpToCrossPageDispatchesJumpThenNavigates(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{
		MachineState:     wtypes.StateShowingStep,
		TotalSteps:       2,
		CurrentStepIndex: 0,
		Tabs:             wtypes.TabsInfo{PrimaryTabID: 7},
		Steps: []wtypes.Step{
			{StepNumber: 0, PageContext: wtypes.PageContext{URL: "https://app.example.com/one"}},
			{StepNumber: 1, PageContext: wtypes.PageContext{URL: "https://app.example.com/two"}},
		},
	}}
	nav := &fakeNavigator{}
	r := New(f, nav)

	res := r.JumpTo(context.Background(), 1)
	if !res.Success || !res.Navigating {
		t.Fatalf("expected a triggered navigation, got %+v", res)
	}
	if len(f.events) != 1 || f.events[0].Type != wtypes.EventJumpToStep || f.events[0].StepIndex != 1 {
		t.Fatalf("expected exactly one JUMP_TO_STEP(1) dispatch before navigating, got %+v", f.events)
	}
	if len(nav.calls) != 1 || nav.calls[0] != "https://app.example.com/two" {
		t.Fatalf("expected a navigate call to the target step's URL, got %+v", nav.calls)
	}
}

func TestJumpToCrossPageWithoutTargetURLFails(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{
		MachineState:     wtypes.StateShowingStep,
		TotalSteps:       2,
		CurrentStepIndex: 0,
		Steps: []wtypes.Step{
			{StepNumber: 0, PageContext: wtypes.PageContext{URL: "https://app.example.com/one"}},
			{StepNumber: 1},
		},
	}}
	r := New(f, &fakeNavigator{})
	res := r.JumpTo(context.Background(), 1)
	if res.Success || res.Reason != "no_target_url" {
		t.Fatalf("expected no_target_url, got %+v", res)
	}
}

func TestJumpToNavigationFailureIsReported(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{
		MachineState:     wtypes.StateShowingStep,
		TotalSteps:       2,
		CurrentStepIndex: 0,
		Steps: []wtypes.Step{
			{StepNumber: 0, PageContext: wtypes.PageContext{URL: "https://app.example.com/one"}},
			{StepNumber: 1, PageContext: wtypes.PageContext{URL: "https://app.example.com/two"}},
		},
	}}
	r := New(f, &fakeNavigator{err: errors.New("tab navigation failed")})
	res := r.JumpTo(context.Background(), 1)
	if res.Success || res.Reason != "navigation_failed" {
		t.Fatalf("expected navigation_failed, got %+v", res)
	}
}

func TestRetryOnlyFromError(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{MachineState: wtypes.StateShowingStep}}
	r := New(f, nil)
	if _, err := r.Retry(context.Background()); err != ErrNoActiveSession {
		t.Fatalf("expected ErrNoActiveSession outside ERROR, got %v", err)
	}

	f.state.MachineState = wtypes.StateError
	if _, err := r.Retry(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.events[len(f.events)-1].Type != wtypes.EventRetry {
		t.Fatalf("expected RETRY dispatch")
	}
}

func TestRestartJumpsToZero(t *testing.T) {
	f := &fakeDispatcher{state: wtypes.WalkthroughState{MachineState: wtypes.StateShowingStep, TotalSteps: 3, CurrentStepIndex: 2}}
	r := New(f, nil)
	if _, err := r.Restart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := f.events[len(f.events)-1]
	if last.Type != wtypes.EventJumpToStep || last.StepIndex != 0 {
		t.Fatalf("expected jump to step 0, got %+v", last)
	}
}
