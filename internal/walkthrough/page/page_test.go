package page

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/healer"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	state  wtypes.WalkthroughState
	events []wtypes.EventType
}

func (f *fakeDispatcher) Dispatch(_ context.Context, e wtypes.Event) (wtypes.WalkthroughState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e.Type)
	return f.state, nil
}

func (f *fakeDispatcher) GetState() wtypes.WalkthroughState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeDispatcher) lastEvent() wtypes.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1]
}

type fakeFinder struct {
	found      bool
	strategies map[string]bool
}

func (f fakeFinder) Find(context.Context, wtypes.Step) (bool, map[string]bool) {
	return f.found, f.strategies
}

type fakeUI struct {
	shown     []wtypes.Step
	healing   int
	completed int
}

func (f *fakeUI) ShowStep(step wtypes.Step)                          { f.shown = append(f.shown, step) }
func (f *fakeUI) ShowHealing()                                       { f.healing++ }
func (f *fakeUI) ShowHealedElement(context.Context, healer.Candidate, float64) bool { return true }
func (f *fakeUI) ShowError(wtypes.ErrorInfo, func(), func(), func())  {}
func (f *fakeUI) ShowCompleted()                                     { f.completed++ }
func (f *fakeUI) Destroy()                                            {}

func testStep() wtypes.Step {
	return wtypes.Step{StepNumber: 1, ActionType: wtypes.ActionClick, Selectors: wtypes.Selectors{DataTestID: "go-btn"}}
}

func TestOnStepShownFoundPath(t *testing.T) {
	d := &fakeDispatcher{}
	ui := &fakeUI{}
	c := New(d, fakeFinder{found: true}, healer.New(nil, nil), ui, config.Default(), zap.NewNop())

	c.OnStepShown(context.Background(), testStep(), "")
	if d.lastEvent() != wtypes.EventElementFound {
		t.Fatalf("expected dispatch chain to end at ELEMENT_FOUND side effects, got %v", d.lastEvent())
	}
	if len(ui.shown) != 1 {
		t.Fatalf("expected ShowStep to be called once, got %d", len(ui.shown))
	}
}

func TestOnStepShownNotFoundTriggersHealingSuccess(t *testing.T) {
	d := &fakeDispatcher{}
	ui := &fakeUI{}
	c := New(d, fakeFinder{found: false, strategies: map[string]bool{"data_testid": true}}, healer.New(nil, nil), ui, config.Default(), zap.NewNop())

	c.OnStepShown(context.Background(), testStep(), "")
	if ui.healing != 1 {
		t.Fatalf("expected ShowHealing to be invoked, got %d", ui.healing)
	}
	if d.lastEvent() != wtypes.EventHealSuccess {
		t.Fatalf("expected healing to auto-accept high-confidence candidate, got %v", d.lastEvent())
	}
	if len(ui.shown) != 1 {
		t.Fatalf("expected step to be shown after successful heal")
	}
}

func TestOnStepShownHealingFailsDispatchesHealFailed(t *testing.T) {
	d := &fakeDispatcher{}
	ui := &fakeUI{}
	c := New(d, fakeFinder{found: false, strategies: nil}, healer.New(nil, nil), ui, config.Default(), zap.NewNop())

	c.OnStepShown(context.Background(), testStep(), "")
	if d.lastEvent() != wtypes.EventHealFailed {
		t.Fatalf("expected HEAL_FAILED when no candidates resolve, got %v", d.lastEvent())
	}
}

func TestActionDetectedValidDispatchesAfterDelay(t *testing.T) {
	d := &fakeDispatcher{}
	ui := &fakeUI{}
	c := New(d, fakeFinder{found: true}, healer.New(nil, nil), ui, config.Default(), zap.NewNop())

	c.OnStepShown(context.Background(), testStep(), "")
	c.detector.OnClick(true)

	if d.lastEvent() != wtypes.EventActionDetected {
		t.Fatalf("expected ACTION_DETECTED, got %v", d.lastEvent())
	}
	time.Sleep(100 * time.Millisecond)
	if c.detector != nil {
		t.Fatalf("expected listeners detached after advance delay")
	}
}

func TestActionInvalidDispatchesActionInvalid(t *testing.T) {
	d := &fakeDispatcher{}
	ui := &fakeUI{}
	c := New(d, fakeFinder{found: true}, healer.New(nil, nil), ui, config.Default(), zap.NewNop())

	c.OnStepShown(context.Background(), testStep(), "")
	c.detector.OnClick(false)

	if d.lastEvent() != wtypes.EventActionInvalid {
		t.Fatalf("expected ACTION_INVALID, got %v", d.lastEvent())
	}
}
