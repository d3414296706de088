// coordinator.go — the session coordinator: the single process-wide
// authority holding the current WalkthroughState (spec.md §4.2).
//
// Grounded on internal/queries/dispatcher.go's documented lock-ordering
// discipline and its commandNotify/queryNotify channel-signaling pattern,
// adapted here into a single-goroutine actor loop so "dispatches are
// totally ordered" (spec.md §5) is structural: every Dispatch call is a
// request into a channel drained by exactly one goroutine, which is the
// Go-idiomatic equivalent of the teacher's single promise-chain.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/machine"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/store"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Broadcaster delivers a state-changed message to a set of tabs. Delivery
// is at-least-once; failures (tab gone, no receiver) are the
// Broadcaster's concern to swallow or report — the coordinator logs
// whatever error comes back and moves on (spec.md §4.2).
type Broadcaster interface {
	Broadcast(ctx context.Context, tabIDs []int, msg wtypes.StateChanged) error
}

// Metrics is the coordinator's prometheus-backed instrumentation surface.
// Kept as an interface so tests can supply a no-op.
type Metrics interface {
	ObserveDispatch(from, event, to string)
	SetActiveSessions(n int)
	ObserveHealing(resolution string)
}

// Subscription is returned by Subscribe; call it to unsubscribe.
type Subscription func()

type dispatchRequest struct {
	ctx   context.Context
	event wtypes.Event
	resp  chan dispatchResult
}

type dispatchResult struct {
	state wtypes.WalkthroughState
	err   error
}

// ErrNoSession is returned by tab-scoped reads when no session is active
// for the requested tab.
var ErrNoSession = errors.New("walkthrough: no active session for tab")

// Coordinator is the single process-wide authority described by spec.md
// §4.2. Zero value is not usable; construct with New.
type Coordinator struct {
	cfg    config.Config
	store  *store.Store
	bcast  Broadcaster
	log    *zap.Logger
	metric Metrics
	tracer trace.Tracer
	now    func() time.Time

	mu      sync.RWMutex
	current wtypes.WalkthroughState

	reqCh chan dispatchRequest
	done  chan struct{}

	timerMu sync.Mutex
	timer   *time.Timer

	subMu sync.Mutex
	subs  map[int]func(wtypes.WalkthroughState)
	subID int

	execMu  sync.Mutex
	execLog []wtypes.ExecutionLogEntry
}

// New constructs a Coordinator. Call Start before dispatching.
func New(cfg config.Config, st *store.Store, bcast Broadcaster, log *zap.Logger, metric Metrics) *Coordinator {
	if metric == nil {
		metric = noopMetrics{}
	}
	c := &Coordinator{
		cfg:     cfg,
		store:   st,
		bcast:   bcast,
		log:     log,
		metric:  metric,
		tracer:  otel.Tracer("walkthrough/coordinator"),
		now:     time.Now,
		current: wtypes.NewIdleState(""),
		reqCh:   make(chan dispatchRequest, 64),
		done:    make(chan struct{}),
		subs:    make(map[int]func(wtypes.WalkthroughState)),
	}
	return c
}

// Start loads any persisted state (restart recovery) and launches the
// single-goroutine dispatch actor (spec.md §4.2 "initialize()").
func (c *Coordinator) Start(ctx context.Context) error {
	loaded, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.current = wtypes.NewIdleState("")
	case err != nil:
		return err
	default:
		if loaded.IsActive() && c.now().After(loaded.Timing.ExpiresAt) {
			_ = c.store.Delete(ctx)
			c.current = wtypes.NewIdleState(loaded.SessionID)
		} else {
			c.current = loaded
			if c.current.IsActive() {
				c.armTimer(time.Until(c.current.Timing.ExpiresAt))
			}
		}
	}

	go c.run()
	return nil
}

// Close stops the dispatch actor and the inactivity timer. Safe to call
// once after Start.
func (c *Coordinator) Close() {
	close(c.done)
	c.timerMu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerMu.Unlock()
}

func (c *Coordinator) run() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.reqCh:
			state, err := c.processDispatch(req.ctx, req.event)
			req.resp <- dispatchResult{state: state, err: err}
		}
	}
}

// Dispatch is the only mutation entry point (spec.md §4.2). Concurrent
// callers are serialized by the actor loop: the n-th dispatch's transition
// is computed only after the (n-1)-th's side effects have completed, and a
// failure in one dispatch never blocks subsequent ones.
func (c *Coordinator) Dispatch(ctx context.Context, event wtypes.Event) (wtypes.WalkthroughState, error) {
	resp := make(chan dispatchResult, 1)
	select {
	case c.reqCh <- dispatchRequest{ctx: ctx, event: event, resp: resp}:
	case <-c.done:
		return wtypes.WalkthroughState{}, errors.New("walkthrough: coordinator closed")
	case <-ctx.Done():
		return wtypes.WalkthroughState{}, ctx.Err()
	}

	select {
	case r := <-resp:
		return r.state, r.err
	case <-ctx.Done():
		return wtypes.WalkthroughState{}, ctx.Err()
	}
}

// processDispatch runs on the actor goroutine only; it is never called
// concurrently with itself.
func (c *Coordinator) processDispatch(ctx context.Context, event wtypes.Event) (state wtypes.WalkthroughState, err error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.dispatch",
		trace.WithAttributes(attribute.String("event", string(event.Type))))
	defer span.End()

	c.mu.RLock()
	prev := c.current
	c.mu.RUnlock()

	result := machine.Dispatch(prev, event, c.now)
	c.metric.ObserveDispatch(string(prev.MachineState), string(event.Type), string(result.State.MachineState))

	if !result.Changed {
		// spec.md §8: a no-op dispatch must have no observable side
		// effects — no persistence write, no broadcast.
		return prev, nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("dispatch side effect panicked", zap.Any("recover", r))
			err = nil // isolate: the computed state still stands, side effects just didn't all complete
		}
	}()

	c.mu.Lock()
	c.current = result.State
	c.mu.Unlock()

	c.rearmTimer(result.State)

	if persistErr := c.store.Save(ctx, result.State); persistErr != nil {
		c.log.Error("persist walkthrough state failed", zap.Error(persistErr))
	}

	c.broadcast(ctx, prev, result.State, event.Type)
	c.appendExecutionLog(result.State.SessionID, "dispatch", string(event.Type)+" -> "+string(result.State.MachineState))
	c.notifySubscribers(result.State)
	c.metric.SetActiveSessions(activeSessionCount(result.State))

	return result.State, nil
}

// broadcast implements spec.md §4.2 step 4: broadcast to the previous
// state's tabs when transitioning to IDLE (so tabs know to clean up),
// otherwise to the new state's tabs.
func (c *Coordinator) broadcast(ctx context.Context, prev, next wtypes.WalkthroughState, trigger wtypes.EventType) {
	if c.bcast == nil {
		return
	}
	targets := next.Tabs.ActiveTabIDs
	if next.MachineState == wtypes.StateIdle {
		targets = prev.Tabs.ActiveTabIDs
	}
	if len(targets) == 0 {
		return
	}
	msg := wtypes.StateChanged{Type: "WALKTHROUGH_STATE_CHANGED", State: next, Trigger: trigger}
	if err := c.bcast.Broadcast(ctx, targets, msg); err != nil {
		// Delivery failures are swallowed per spec.md §4.2 — logged only.
		c.log.Warn("broadcast delivery failed", zap.Error(err))
	}
}

func (c *Coordinator) notifySubscribers(state wtypes.WalkthroughState) {
	c.subMu.Lock()
	cbs := make([]func(wtypes.WalkthroughState), 0, len(c.subs))
	for _, cb := range c.subs {
		cbs = append(cbs, cb)
	}
	c.subMu.Unlock()

	for _, cb := range cbs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("subscriber panicked", zap.Any("recover", r))
				}
			}()
			cb(state)
		}()
	}
}

// rearmTimer restarts the inactivity timer for active states and stops it
// for terminal ones (spec.md §4.2 step 2).
func (c *Coordinator) rearmTimer(state wtypes.WalkthroughState) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !isTerminal(state) {
		c.timer = time.AfterFunc(time.Until(state.Timing.ExpiresAt), c.onTimeout)
	}
}

func (c *Coordinator) armTimer(d time.Duration) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if d <= 0 {
		d = time.Millisecond
	}
	c.timer = time.AfterFunc(d, c.onTimeout)
}

func (c *Coordinator) onTimeout() {
	c.EndSession(context.Background(), "timeout")
}

// isTerminal reports whether state needs no inactivity timer: IDLE, or a
// terminal ERROR/COMPLETED with nothing left to retry.
func isTerminal(state wtypes.WalkthroughState) bool {
	switch state.MachineState {
	case wtypes.StateIdle, wtypes.StateCompleted:
		return true
	case wtypes.StateError:
		return state.ErrorInfo.Type == wtypes.ErrorAPIError
	default:
		return false
	}
}

func activeSessionCount(state wtypes.WalkthroughState) int {
	if state.IsActive() {
		return 1
	}
	return 0
}

// AddTab is a direct (non-machine) update to tabs.
func (c *Coordinator) AddTab(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Tabs.ActiveTabIDs = wtypes.AddTab(c.current.Tabs.ActiveTabIDs, id)
}

// RemoveTab is a direct (non-machine) update to tabs. Removing the primary
// tab is equivalent to Dispatch(TAB_CLOSED) (spec.md §4.2).
func (c *Coordinator) RemoveTab(ctx context.Context, id int) (wtypes.WalkthroughState, error) {
	c.mu.RLock()
	isPrimary := id == c.current.Tabs.PrimaryTabID && c.current.IsActive()
	c.mu.RUnlock()
	if isPrimary {
		return c.Dispatch(ctx, wtypes.Event{Type: wtypes.EventTabClosed, TabID: id})
	}
	c.mu.Lock()
	c.current.Tabs.ActiveTabIDs = wtypes.RemoveTab(c.current.Tabs.ActiveTabIDs, id)
	c.current.Tabs.ReadyTabIDs = wtypes.RemoveTab(c.current.Tabs.ReadyTabIDs, id)
	state := c.current
	c.mu.Unlock()
	return state, nil
}

// EndSession is a convenience for Dispatch(EXIT).
func (c *Coordinator) EndSession(ctx context.Context, reason string) {
	c.log.Info("ending session", zap.String("reason", reason))
	if _, err := c.Dispatch(ctx, wtypes.Event{Type: wtypes.EventExit}); err != nil {
		c.log.Error("end session dispatch failed", zap.Error(err))
	}
}

// HandleTabReady answers the page-reload UI-restoration handshake
// (wtypes.TabReady, spec.md §6): whether this tab belongs to an active
// session and, if so, the current state, so the page can restore its UI
// immediately after a navigation or reload instead of waiting for the
// next broadcast.
func (c *Coordinator) HandleTabReady(_ context.Context, ready wtypes.TabReady) wtypes.TabReadyResponse {
	c.mu.RLock()
	state := c.current
	c.mu.RUnlock()

	if !state.IsActive() || !wtypes.ContainsTab(state.Tabs.ActiveTabIDs, ready.TabID) {
		return wtypes.TabReadyResponse{HasActiveSession: false}
	}
	out := state
	return wtypes.TabReadyResponse{HasActiveSession: true, State: &out}
}

// GetState is a read-only accessor.
func (c *Coordinator) GetState() wtypes.WalkthroughState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// GetStateForTab returns the state only if tabID is in activeTabIds.
func (c *Coordinator) GetStateForTab(tabID int) (wtypes.WalkthroughState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !wtypes.ContainsTab(c.current.Tabs.ActiveTabIDs, tabID) {
		return wtypes.WalkthroughState{}, ErrNoSession
	}
	return c.current, nil
}

// Subscribe registers a local in-process observer, called after every
// dispatch that changed state. Errors in callbacks are caught and logged
// (spec.md §4.2 step 5).
func (c *Coordinator) Subscribe(cb func(wtypes.WalkthroughState)) Subscription {
	c.subMu.Lock()
	id := c.subID
	c.subID++
	c.subs[id] = cb
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Coordinator) appendExecutionLog(sessionID, kind, detail string) {
	c.execMu.Lock()
	defer c.execMu.Unlock()
	c.execLog = append(c.execLog, wtypes.ExecutionLogEntry{
		SessionID: sessionID,
		At:        c.now().UnixMilli(),
		Kind:      kind,
		Detail:    detail,
	})
	const maxEntries = 2000
	if len(c.execLog) > maxEntries {
		c.execLog = c.execLog[len(c.execLog)-maxEntries:]
	}
}

// ExecutionLog returns a copy of the session's execution timeline
// (WALKTHROUGH_EXECUTION_LOG, spec.md §6; supplemented per SPEC_FULL.md §3).
func (c *Coordinator) ExecutionLog() []wtypes.ExecutionLogEntry {
	c.execMu.Lock()
	defer c.execMu.Unlock()
	out := make([]wtypes.ExecutionLogEntry, len(c.execLog))
	copy(out, c.execLog)
	return out
}

type noopMetrics struct{}

func (noopMetrics) ObserveDispatch(string, string, string) {}
func (noopMetrics) SetActiveSessions(int)                  {}
func (noopMetrics) ObserveHealing(string)                  {}
