// page.go — the page-side controller: the per-step find/show/attach/report
// cycle (spec.md §4.6). Grounded on cmd/dev-console/tools_interact_workflows.go's
// WorkflowStep/workflowResult timing-trace shape (renamed StepTrace here,
// one entry per phase of a step instead of per compound-tool call) and
// internal/recording/playback_engine.go's find -> execute -> record loop.
//
// DOM access, CDP control, and the overlay/tooltip rendering are external
// collaborators (spec.md §1 non-goals); ElementFinder and UI below are the
// seams a real content-script binding plugs into.
package page

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/action"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/healer"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Dispatcher is the coordinator slice the page controller needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, event wtypes.Event) (wtypes.WalkthroughState, error)
	GetState() wtypes.WalkthroughState
}

// ElementFinder resolves a step's target element against the live DOM,
// trying every recorded strategy and reporting which ones succeeded so the
// healer's candidate ladder has something to score.
type ElementFinder interface {
	Find(ctx context.Context, step wtypes.Step) (found bool, strategies map[string]bool)
}

// UI is the external overlay/tooltip collaborator (spec.md §4.6).
type UI interface {
	ShowStep(step wtypes.Step)
	ShowHealing()
	ShowHealedElement(ctx context.Context, candidate healer.Candidate, confidence float64) (confirmed bool)
	ShowError(info wtypes.ErrorInfo, onRetry, onSkip, onExit func())
	ShowCompleted()
	Destroy()
}

// StepTrace is one phase of one step's execution, kept by the controller
// and returned by Traces.
type StepTrace struct {
	StepIndex int
	Phase     string // find | heal | wait_action
	Status    string // ok | error
	TimingMs  int64
}

// Controller drives one tab's participation in a walkthrough.
type Controller struct {
	coord       Dispatcher
	finder      ElementFinder
	healerSvc   *healer.Healer
	ui          UI
	interceptor *action.ClickInterceptor
	cfg         config.Config
	log         *zap.Logger

	detector *action.Detector
	traces   []StepTrace
}

// New constructs a Controller.
func New(coord Dispatcher, finder ElementFinder, healerSvc *healer.Healer, ui UI, cfg config.Config, log *zap.Logger) *Controller {
	return &Controller{
		coord:       coord,
		finder:      finder,
		healerSvc:   healerSvc,
		ui:          ui,
		interceptor: action.NewClickInterceptor(),
		cfg:         cfg,
		log:         log,
	}
}

// Start enables the session-scoped click interceptor (spec.md §4.7).
func (c *Controller) Start() {
	c.interceptor.Enable(c.allowCurrentTarget, c.onClickBlocked)
}

// Stop tears down the interceptor at session end.
func (c *Controller) Stop() {
	c.interceptor.Disable()
	if c.ui != nil {
		c.ui.Destroy()
	}
}

// Interceptor exposes the click interceptor for the content-script binding
// to route raw capture-phase clicks through.
func (c *Controller) Interceptor() *action.ClickInterceptor {
	return c.interceptor
}

// OnStepShown runs the full SHOWING_STEP cycle for the given step: find the
// element (retrying up to MaxElementFindRetries), fall through to healing
// on failure, then render the step and attach the action detector (spec.md
// §4.6 steps 1-4).
func (c *Controller) OnStepShown(ctx context.Context, step wtypes.Step, currentValue string) {
	found, strategies := c.findWithRetries(ctx, step)

	if found {
		if _, err := c.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventElementFound}); err != nil {
			c.log.Error("dispatch element_found failed", zap.Error(err))
			return
		}
		c.showAndAttach(ctx, step, currentValue)
		return
	}

	if _, err := c.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventElementNotFound}); err != nil {
		c.log.Error("dispatch element_not_found failed", zap.Error(err))
		return
	}
	c.runHealing(ctx, step, strategies)
}

func (c *Controller) findWithRetries(ctx context.Context, step wtypes.Step) (bool, map[string]bool) {
	findCtx, cancel := context.WithTimeout(ctx, c.cfg.ElementFindTimeout)
	defer cancel()

	start := time.Now()
	var lastStrategies map[string]bool
	for attempt := 0; attempt <= c.cfg.MaxElementFindRetries; attempt++ {
		found, strategies := c.finder.Find(findCtx, step)
		lastStrategies = strategies
		if found {
			c.recordTrace(step.StepNumber, "find", "ok", time.Since(start))
			return true, strategies
		}
		select {
		case <-findCtx.Done():
			c.recordTrace(step.StepNumber, "find", "error", time.Since(start))
			return false, lastStrategies
		default:
		}
	}
	c.recordTrace(step.StepNumber, "find", "error", time.Since(start))
	return false, lastStrategies
}

func (c *Controller) runHealing(ctx context.Context, step wtypes.Step, strategies map[string]bool) {
	c.ui.ShowHealing()
	start := time.Now()

	result := c.healerSvc.Heal(ctx, step, healer.Options{
		AIEnabled: true,
		Found:     strategies,
		OnUserPrompt: func(ctx context.Context, candidate healer.Candidate, confidence float64) bool {
			return c.ui.ShowHealedElement(ctx, candidate, confidence)
		},
	})

	if result.Success {
		c.recordTrace(step.StepNumber, "heal", "ok", time.Since(start))
		if _, err := c.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventHealSuccess, HealedSelector: result.HealedSelector}); err != nil {
			c.log.Error("dispatch heal_success failed", zap.Error(err))
			return
		}
		c.showAndAttach(ctx, step, "")
		return
	}

	c.recordTrace(step.StepNumber, "heal", "error", time.Since(start))
	if _, err := c.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventHealFailed, Message: result.FailureReason}); err != nil {
		c.log.Error("dispatch heal_failed failed", zap.Error(err))
	}
}

func (c *Controller) showAndAttach(ctx context.Context, step wtypes.Step, currentValue string) {
	c.ui.ShowStep(step)
	c.interceptor.Retarget(func(path []string) bool {
		return c.allowCurrentTarget(path)
	})
	c.detector = action.Attach(step, currentValue, func(detected action.DetectedAction) {
		c.onDetected(ctx, step, detected)
	})
}

// onDetected validates a detected action and reports ACTION_DETECTED or
// ACTION_INVALID, then — once the per-action-type delay has elapsed —
// detaches listeners and dispatches NEXT_STEP, continuing the per-step
// cycle onto whichever step (or COMPLETED) the machine lands on (spec.md
// §4.6 steps 5-6, §4.1 TRANSITIONING -> NEXT_STEP).
func (c *Controller) onDetected(ctx context.Context, step wtypes.Step, detected action.DetectedAction) {
	result := action.Validate(step, detected)
	if !result.Valid {
		if _, err := c.coord.Dispatch(ctx, wtypes.Event{
			Type:                wtypes.EventActionInvalid,
			DetectedActionType: detected.ActionType,
			DetectedValue:       detected.Value,
			InvalidReason:       string(result.Reason),
		}); err != nil {
			c.log.Error("dispatch action_invalid failed", zap.Error(err))
		}
		return
	}

	if _, err := c.coord.Dispatch(ctx, wtypes.Event{
		Type:                wtypes.EventActionDetected,
		DetectedActionType: detected.ActionType,
		DetectedValue:       detected.Value,
	}); err != nil {
		c.log.Error("dispatch action_detected failed", zap.Error(err))
		return
	}

	delay := wtypes.AdvanceDelay(step.ActionType)
	time.AfterFunc(delay, func() {
		c.advanceAfterAction()
	})
}

// advanceAfterAction detaches the current step's listeners and dispatches
// NEXT_STEP, then drives whatever the machine lands on next: another
// SHOWING_STEP cycle or the completion UI. Runs on the timer goroutine, so
// it uses a fresh background context rather than one tied to the original
// detection call's lifetime.
func (c *Controller) advanceAfterAction() {
	c.detachListeners()

	ctx := context.Background()
	state, err := c.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventNextStep})
	if err != nil {
		c.log.Error("dispatch next_step failed", zap.Error(err))
		return
	}

	switch state.MachineState {
	case wtypes.StateShowingStep:
		if state.CurrentStepIndex >= 0 && state.CurrentStepIndex < len(state.Steps) {
			c.OnStepShown(ctx, state.Steps[state.CurrentStepIndex], "")
		}
	case wtypes.StateCompleted:
		c.ShowCompleted()
	}
}

func (c *Controller) detachListeners() {
	c.detector = nil
}

func (c *Controller) allowCurrentTarget(path []string) bool {
	state := c.coord.GetState()
	if state.CurrentStepIndex < 0 || state.CurrentStepIndex >= len(state.Steps) {
		return false
	}
	step := state.Steps[state.CurrentStepIndex]
	target := step.Selectors.DataTestID
	if target == "" {
		target = step.Selectors.Primary
	}
	if target == "" {
		target = step.Selectors.CSS
	}
	return action.PathContains(path, target)
}

func (c *Controller) onClickBlocked(path []string) {
	c.log.Debug("blocked off-target click", zap.Strings("composedPath", path))
}

func (c *Controller) recordTrace(stepIndex int, phase, status string, d time.Duration) {
	c.traces = append(c.traces, StepTrace{StepIndex: stepIndex, Phase: phase, Status: status, TimingMs: d.Milliseconds()})
}

// Traces returns a copy of every recorded step phase for this controller's
// lifetime, for diagnostics (SPEC_FULL.md §3).
func (c *Controller) Traces() []StepTrace {
	return append([]StepTrace(nil), c.traces...)
}

// ShowError renders the typed error UI with the three standard actions,
// wired to RETRY/SKIP_STEP/EXIT (spec.md §7). Terminal api_error offers
// only exit, matching the teacher's "terminal error, no retry" behavior.
func (c *Controller) ShowError(ctx context.Context, info wtypes.ErrorInfo, router interface {
	Retry(ctx context.Context) (wtypes.WalkthroughState, error)
	Skip(ctx context.Context) (wtypes.WalkthroughState, error)
}) {
	onRetry := func() { _, _ = router.Retry(ctx) }
	onSkip := func() { _, _ = router.Skip(ctx) }
	onExit := func() { _, _ = c.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventExit}) }
	if info.Type == wtypes.ErrorAPIError {
		onRetry, onSkip = nil, nil
	}
	c.ui.ShowError(info, onRetry, onSkip, onExit)
}

// ShowCompleted renders the completion UI.
func (c *Controller) ShowCompleted() {
	c.ui.ShowCompleted()
}
