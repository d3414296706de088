// broadcast.go — implements coordinator.Broadcaster by fanning a
// WALKTHROUGH_STATE_CHANGED message out to every tab's registered sender,
// retrying each send through SendWithRetry and collapsing per-tab
// transport failures into logged warnings rather than aborting the whole
// broadcast (spec.md §4.2: "failures are the Broadcaster's concern to
// swallow or report"). Grounded on internal/bridge/conn.go's DoHTTP, which
// treats each destination independently rather than failing a batch on
// one bad connection.
package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// TabSender delivers one message to one tab's content script. A real
// binding implements this over the extension's runtime messaging API;
// tests supply a fake.
type TabSender func(ctx context.Context, tabID int, msg wtypes.StateChanged) error

// TabBroadcaster is the default coordinator.Broadcaster.
type TabBroadcaster struct {
	mu   sync.RWMutex
	send TabSender
	cfg  config.Config
	log  *zap.Logger
}

// NewTabBroadcaster constructs a TabBroadcaster. send is the low-level,
// single-tab delivery primitive (e.g. chrome.tabs.sendMessage via a
// native-messaging host); NewTabBroadcaster wraps it with retry.
func NewTabBroadcaster(send TabSender, cfg config.Config, log *zap.Logger) *TabBroadcaster {
	return &TabBroadcaster{send: send, cfg: cfg, log: log}
}

// Broadcast implements coordinator.Broadcaster: every tab is sent to
// independently and concurrently; an individual tab's exhausted-retry
// failure is logged and does not affect delivery to the others.
func (b *TabBroadcaster) Broadcast(ctx context.Context, tabIDs []int, msg wtypes.StateChanged) error {
	var wg sync.WaitGroup
	for _, id := range tabIDs {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := SendWithRetry(ctx, b.cfg, func(ctx context.Context) error {
				return b.send(ctx, id, msg)
			})
			if err != nil {
				b.log.Warn("state broadcast to tab failed after retries", zap.Int("tabId", id), zap.Error(err))
			}
		}()
	}
	wg.Wait()
	return nil
}
