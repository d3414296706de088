package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

func TestTabBroadcasterDeliversToAllTabs(t *testing.T) {
	var mu sync.Mutex
	delivered := map[int]bool{}
	b := NewTabBroadcaster(func(_ context.Context, tabID int, _ wtypes.StateChanged) error {
		mu.Lock()
		delivered[tabID] = true
		mu.Unlock()
		return nil
	}, config.Default(), zap.NewNop())

	err := b.Broadcast(context.Background(), []int{1, 2, 3}, wtypes.StateChanged{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []int{1, 2, 3} {
		if !delivered[id] {
			t.Fatalf("expected tab %d to receive the broadcast", id)
		}
	}
}

func TestTabBroadcasterOneTabFailureDoesNotBlockOthers(t *testing.T) {
	cfg := config.Default()
	cfg.TransportMaxRetries = 1
	var mu sync.Mutex
	delivered := map[int]bool{}
	b := NewTabBroadcaster(func(_ context.Context, tabID int, _ wtypes.StateChanged) error {
		if tabID == 2 {
			return errors.New("validation failed")
		}
		mu.Lock()
		delivered[tabID] = true
		mu.Unlock()
		return nil
	}, cfg, zap.NewNop())

	err := b.Broadcast(context.Background(), []int{1, 2, 3}, wtypes.StateChanged{})
	if err != nil {
		t.Fatalf("Broadcast itself must swallow per-tab errors, got %v", err)
	}
	if !delivered[1] || !delivered[3] {
		t.Fatalf("expected tabs 1 and 3 to still receive the broadcast, got %v", delivered)
	}
	if delivered[2] {
		t.Fatalf("tab 2 should have failed delivery")
	}
}
