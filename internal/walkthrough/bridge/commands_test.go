package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/router"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

type fakeCoord struct {
	state  wtypes.WalkthroughState
	events []wtypes.EventType
}

func (f *fakeCoord) Dispatch(_ context.Context, e wtypes.Event) (wtypes.WalkthroughState, error) {
	f.events = append(f.events, e.Type)
	switch e.Type {
	case wtypes.EventStart:
		f.state.SessionID = "s1"
	case wtypes.EventDataLoaded:
		f.state.MachineState = wtypes.StateShowingStep
		f.state.TotalSteps = len(e.Steps)
		f.state.Steps = e.Steps
	case wtypes.EventNextStep:
		f.state.CurrentStepIndex++
	}
	return f.state, nil
}

func (f *fakeCoord) GetState() wtypes.WalkthroughState {
	return f.state
}

func TestHandleCommandStartLoadsWorkflow(t *testing.T) {
	coord := &fakeCoord{}
	d := NewCommandDispatcher(coord, router.New(coord, nil))

	payload, _ := json.Marshal(startPayload{
		WorkflowID:   "wf-1",
		WorkflowName: "Test",
		StartingURL:  "https://app.example.com/",
		Steps:        []wtypes.Step{{StepNumber: 1, ActionType: wtypes.ActionClick}},
	})

	state, err := d.HandleCommand(context.Background(), wtypes.Command{Command: wtypes.CommandStart, Payload: payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TotalSteps != 1 {
		t.Fatalf("expected 1 step loaded, got %d", state.TotalSteps)
	}
	if len(coord.events) != 2 || coord.events[0] != wtypes.EventStart || coord.events[1] != wtypes.EventDataLoaded {
		t.Fatalf("expected START then DATA_LOADED, got %v", coord.events)
	}
}

func TestHandleCommandNextDelegatesToRouter(t *testing.T) {
	coord := &fakeCoord{state: wtypes.WalkthroughState{MachineState: wtypes.StateShowingStep, TotalSteps: 3}}
	d := NewCommandDispatcher(coord, router.New(coord, nil))

	_, err := d.HandleCommand(context.Background(), wtypes.Command{Command: wtypes.CommandNext})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coord.state.CurrentStepIndex != 1 {
		t.Fatalf("expected router.Next to have dispatched NEXT_STEP, got index %d", coord.state.CurrentStepIndex)
	}
}

func TestHandleCommandJumpToInvalidPayload(t *testing.T) {
	coord := &fakeCoord{}
	d := NewCommandDispatcher(coord, router.New(coord, nil))

	_, err := d.HandleCommand(context.Background(), wtypes.Command{Command: wtypes.CommandJumpTo, Payload: []byte("not json")})
	if err == nil {
		t.Fatalf("expected decode error to surface")
	}
}

func TestHandleCommandUnknownReturnsError(t *testing.T) {
	coord := &fakeCoord{}
	d := NewCommandDispatcher(coord, router.New(coord, nil))

	_, err := d.HandleCommand(context.Background(), wtypes.Command{Command: "BOGUS"})
	if err == nil {
		t.Fatalf("expected unknown command to error")
	}
}

func TestHandleCommandGetStateReadsThrough(t *testing.T) {
	coord := &fakeCoord{state: wtypes.WalkthroughState{SessionID: "abc"}}
	d := NewCommandDispatcher(coord, router.New(coord, nil))

	state, err := d.HandleCommand(context.Background(), wtypes.Command{Command: wtypes.CommandGetState})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.SessionID != "abc" {
		t.Fatalf("expected passthrough state, got %+v", state)
	}
}
