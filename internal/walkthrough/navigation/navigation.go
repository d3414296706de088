// navigation.go — the navigation watcher: maps browser-level URL events
// onto URL_CHANGED/PAGE_LOADED/NAVIGATION_TIMEOUT and owns the single
// navigation alarm (spec.md §4.3). Grounded on internal/bridge/conn.go's
// health-check/reconnect shape and cmd/dev-console/main_connection.go's
// restart-safe reconnection logic, adapted here into restart recovery for
// an in-flight NAVIGATING transition.
package navigation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/urlmatch"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Dispatcher is the slice of *coordinator.Coordinator the watcher needs.
// Kept as an interface so the watcher can be tested without a real
// coordinator/redis pair.
type Dispatcher interface {
	Dispatch(ctx context.Context, event wtypes.Event) (wtypes.WalkthroughState, error)
	GetState() wtypes.WalkthroughState
}

// Watcher owns the NAVIGATION_TIMEOUT alarm and translates raw browser
// navigation events for the coordinator.
type Watcher struct {
	coord  Dispatcher
	alarms AlarmService
	cfg    config.Config
	log    *zap.Logger
	now    func() time.Time
}

// New constructs a Watcher whose clock is time.Now.
func New(coord Dispatcher, alarms AlarmService, cfg config.Config, log *zap.Logger) *Watcher {
	return &Watcher{coord: coord, alarms: alarms, cfg: cfg, log: log, now: time.Now}
}

// Initialize implements restart recovery (spec.md §4.3): if the persisted
// state was mid-NAVIGATING when the process last stopped, either fire the
// timeout immediately (deadline already passed) or re-arm the remaining
// budget.
func (w *Watcher) Initialize(ctx context.Context) {
	state := w.coord.GetState()
	if state.MachineState != wtypes.StateNavigating {
		return
	}
	elapsed := w.now().Sub(state.Navigation.StartedAt)
	remaining := w.cfg.NavigationTimeout - elapsed
	if remaining <= 0 {
		w.fireTimeout(ctx)
		return
	}
	w.arm(ctx, remaining)
}

// OnURLChanged is called for every address-bar/history navigation on the
// primary tab. Restricted URLs (spec.md §4.3, wtypes.RestrictedURLPrefixes)
// never produce a URL_CHANGED event — the machine is left exactly where it
// was until the user reaches an observable page again.
func (w *Watcher) OnURLChanged(ctx context.Context, tabID int, url string) {
	if urlmatch.IsRestricted(url, wtypes.RestrictedURLPrefixes) {
		w.log.Debug("ignoring restricted url", zap.String("url", url))
		return
	}
	state := w.coord.GetState()
	if !state.IsActive() || tabID != state.Tabs.PrimaryTabID {
		return
	}
	if _, err := w.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventURLChanged, TabID: tabID, URL: url}); err != nil {
		w.log.Error("dispatch url_changed failed", zap.Error(err))
		return
	}
	w.arm(ctx, w.cfg.NavigationTimeout)
}

// OnPageLoaded is called once the new document has finished loading.
func (w *Watcher) OnPageLoaded(ctx context.Context, tabID int, url string) {
	w.alarms.Cancel(wtypes.AlarmName)
	if _, err := w.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventPageLoaded, TabID: tabID, URL: url}); err != nil {
		w.log.Error("dispatch page_loaded failed", zap.Error(err))
	}
}

// OnNavigationError is called when the browser reports a failed navigation
// on the primary tab (e.g. net::ERR_CONNECTION_REFUSED, a DNS failure). The
// browser has already told us the navigation will never complete, so this
// cancels the outstanding alarm and dispatches NAVIGATION_TIMEOUT directly
// rather than waiting out the rest of the timer (spec.md §4.3).
func (w *Watcher) OnNavigationError(ctx context.Context, tabID int, url string) {
	state := w.coord.GetState()
	if !state.IsActive() || tabID != state.Tabs.PrimaryTabID {
		return
	}
	w.alarms.Cancel(wtypes.AlarmName)
	w.fireTimeout(ctx)
}

func (w *Watcher) arm(ctx context.Context, d time.Duration) {
	w.alarms.Schedule(wtypes.AlarmName, d, func() {
		w.fireTimeout(ctx)
	})
}

func (w *Watcher) fireTimeout(ctx context.Context) {
	if _, err := w.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventNavigationTimeout}); err != nil {
		w.log.Error("dispatch navigation_timeout failed", zap.Error(err))
	}
}
