package tabs

import (
	"context"
	"testing"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

type fakeCoord struct {
	state     wtypes.WalkthroughState
	added     []int
	removeErr error
}

func (f *fakeCoord) GetState() wtypes.WalkthroughState { return f.state }

func (f *fakeCoord) AddTab(id int) {
	f.added = append(f.added, id)
	f.state.Tabs.ActiveTabIDs = wtypes.AddTab(f.state.Tabs.ActiveTabIDs, id)
}

func (f *fakeCoord) RemoveTab(_ context.Context, id int) (wtypes.WalkthroughState, error) {
	if id == f.state.Tabs.PrimaryTabID {
		f.state = wtypes.NewIdleState(f.state.SessionID)
		return f.state, f.removeErr
	}
	f.state.Tabs.ActiveTabIDs = wtypes.RemoveTab(f.state.Tabs.ActiveTabIDs, id)
	return f.state, f.removeErr
}

func TestIsSessionTabAndPrimary(t *testing.T) {
	f := &fakeCoord{state: wtypes.WalkthroughState{
		MachineState: wtypes.StateShowingStep,
		Tabs:         wtypes.TabsInfo{PrimaryTabID: 1, ActiveTabIDs: []int{1, 2}},
	}}
	m := New(f)

	if !m.IsSessionTab(2) {
		t.Fatalf("expected tab 2 to be a session tab")
	}
	if m.IsPrimaryTab(2) {
		t.Fatalf("tab 2 should not be primary")
	}
	if !m.IsPrimaryTab(1) {
		t.Fatalf("tab 1 should be primary")
	}
	if m.IsSessionTab(99) {
		t.Fatalf("tab 99 should not be a session tab")
	}
}

func TestCloseTabPrimaryEndsSession(t *testing.T) {
	f := &fakeCoord{state: wtypes.WalkthroughState{
		MachineState: wtypes.StateShowingStep,
		Tabs:         wtypes.TabsInfo{PrimaryTabID: 1, ActiveTabIDs: []int{1}},
	}}
	m := New(f)

	state, err := m.CloseTab(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.MachineState != wtypes.StateIdle {
		t.Fatalf("expected IDLE after closing primary tab, got %s", state.MachineState)
	}
}

func TestCloseTabNonPrimaryKeepsSession(t *testing.T) {
	f := &fakeCoord{state: wtypes.WalkthroughState{
		MachineState: wtypes.StateShowingStep,
		Tabs:         wtypes.TabsInfo{PrimaryTabID: 1, ActiveTabIDs: []int{1, 2}},
	}}
	m := New(f)

	state, err := m.CloseTab(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.MachineState != wtypes.StateShowingStep {
		t.Fatalf("expected session to remain active, got %s", state.MachineState)
	}
	if m.IsSessionTab(2) {
		t.Fatalf("tab 2 should have been removed")
	}
}

func TestOpenTabDelegates(t *testing.T) {
	f := &fakeCoord{}
	m := New(f)
	m.OpenTab(7)
	if len(f.added) != 1 || f.added[0] != 7 {
		t.Fatalf("expected AddTab(7), got %v", f.added)
	}
}
