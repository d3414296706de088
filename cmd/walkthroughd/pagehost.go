// pagehost.go — the default ElementFinder/UI implementation wired into
// page.Controller in main.go's run(). page.go documents these two interfaces
// as "the seams a real content-script binding plugs into"; a standalone
// daemon has no DOM to query or overlay to render, so this reference
// binding reports a step's declared selectors as found and logs every
// lifecycle callback instead, keeping the per-step cycle runnable end to
// end until a real extension binding is attached in its place.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/healer"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// referenceFinder reports a step found whenever it recorded any selector
// strategy at all; with no DOM to query, there is nothing more meaningful
// this binding can assert. Swap for a CDP/extension-backed ElementFinder
// in a real deployment.
type referenceFinder struct{}

func (referenceFinder) Find(_ context.Context, step wtypes.Step) (bool, map[string]bool) {
	found := map[string]bool{}
	if step.Selectors.DataTestID != "" {
		found["data_testid"] = true
	}
	if step.Selectors.Primary != "" {
		found["primary"] = true
	}
	if step.Selectors.CSS != "" {
		found["css"] = true
	}
	return len(found) > 0, found
}

// referenceUI renders nothing visual; it logs each lifecycle callback and
// auto-confirms healed-element prompts, standing in for the extension's
// overlay/tooltip rendering (spec.md §1 non-goal).
type referenceUI struct {
	log *zap.Logger
}

func (u *referenceUI) ShowStep(step wtypes.Step) {
	u.log.Info("show step", zap.Int("stepNumber", step.StepNumber), zap.String("instruction", step.Instruction))
}

func (u *referenceUI) ShowHealing() {
	u.log.Info("healing in progress")
}

func (u *referenceUI) ShowHealedElement(_ context.Context, candidate healer.Candidate, confidence float64) bool {
	u.log.Info("healed element awaiting confirmation",
		zap.String("strategy", candidate.Strategy), zap.Float64("confidence", confidence))
	return true
}

func (u *referenceUI) ShowError(info wtypes.ErrorInfo, _, _, _ func()) {
	u.log.Warn("walkthrough error", zap.String("type", string(info.Type)), zap.String("message", info.Message))
}

func (u *referenceUI) ShowCompleted() {
	u.log.Info("walkthrough completed")
}

func (u *referenceUI) Destroy() {}
