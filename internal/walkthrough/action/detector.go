// detector.go — per-step action detection, attached only to the current
// target element (or its form ancestor for submit) and torn down on detach
// (spec.md §4.7). The DOM event wiring itself lives in the extension's
// content script, outside this module's scope (spec.md §1 "the visual
// overlay/tooltip rendering" and DOM access are external collaborators);
// what lives here is the baseline-tracking and emission logic the content
// script calls into, which is what's actually worth testing without a DOM.
package action

import "github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"

// BaselineTracker implements the input_commit baseline-and-commit state
// machine described in spec.md §4.7.
type BaselineTracker struct {
	baseline    string
	hasBaseline bool
}

// NewBaselineTracker captures the initial value on attach.
func NewBaselineTracker(initial string) *BaselineTracker {
	return &BaselineTracker{baseline: initial, hasBaseline: true}
}

// OnFocusIn refreshes the baseline to the newly focused value.
func (t *BaselineTracker) OnFocusIn(value string) {
	t.baseline = value
	t.hasBaseline = true
}

// OnFocusOut compares the current value to the baseline and reports
// whether an input_commit should be emitted.
func (t *BaselineTracker) OnFocusOut(value string) (emit bool, emittedValue string) {
	if !t.hasBaseline {
		t.baseline = value
		t.hasBaseline = true
		return false, ""
	}
	if value == t.baseline {
		return false, ""
	}
	return true, value
}

// OnEnterKey implements the synchronous-navigation-on-Enter special case:
// Shift+Enter inside a textarea never commits; otherwise, if the value has
// changed, emit immediately and fold the new value into the baseline so a
// subsequent focusout (which will fire once the page navigates away) does
// not re-emit the same commit.
func (t *BaselineTracker) OnEnterKey(value string, shiftKey, isTextarea bool) (emit bool, emittedValue string) {
	if shiftKey && isTextarea {
		return false, ""
	}
	if !t.hasBaseline || value == t.baseline {
		return false, ""
	}
	t.baseline = value
	return true, value
}

// Callback receives a detected action for validation and reporting.
type Callback func(DetectedAction)

// Detector wires one step's action-type-specific listeners to a single
// emission callback. One Detector exists per WAITING_ACTION attach/detach
// cycle (spec.md §4.6 step 4-5).
type Detector struct {
	step     wtypes.Step
	baseline *BaselineTracker
	emit     Callback
}

// Attach begins listening for step's action type. initialValue seeds the
// input_commit baseline tracker when relevant; it is ignored otherwise.
func Attach(step wtypes.Step, initialValue string, emit Callback) *Detector {
	d := &Detector{step: step, emit: emit}
	if step.ActionType == wtypes.ActionInputCommit {
		d.baseline = NewBaselineTracker(initialValue)
	}
	return d
}

// OnClick handles a bubble-phase click on the target.
func (d *Detector) OnClick(targetMatches bool) {
	if d.step.ActionType != wtypes.ActionClick {
		return
	}
	d.emit(DetectedAction{ActionType: wtypes.ActionClick, TargetMatches: targetMatches})
}

// OnFocusIn refreshes the input_commit baseline.
func (d *Detector) OnFocusIn(value string) {
	if d.baseline != nil {
		d.baseline.OnFocusIn(value)
	}
}

// OnFocusOut may emit an input_commit.
func (d *Detector) OnFocusOut(targetMatches bool, value string) {
	if d.baseline == nil {
		return
	}
	if emit, v := d.baseline.OnFocusOut(value); emit {
		d.emit(DetectedAction{ActionType: wtypes.ActionInputCommit, TargetMatches: targetMatches, Value: v})
	}
}

// OnEnterKey may emit an input_commit ahead of a synchronous navigation.
func (d *Detector) OnEnterKey(targetMatches bool, value string, shiftKey, isTextarea bool) {
	if d.baseline == nil {
		return
	}
	if emit, v := d.baseline.OnEnterKey(value, shiftKey, isTextarea); emit {
		d.emit(DetectedAction{ActionType: wtypes.ActionInputCommit, TargetMatches: targetMatches, Value: v})
	}
}

// OnSelectChange handles a select element's change event.
func (d *Detector) OnSelectChange(targetMatches bool, value string) {
	if d.step.ActionType != wtypes.ActionSelectChange {
		return
	}
	d.emit(DetectedAction{ActionType: wtypes.ActionSelectChange, TargetMatches: targetMatches, Value: value})
}

// OnSubmit handles the nearest ancestor form's submit event. Validation
// checks only the event type, not the target, per spec.md §4.7.
func (d *Detector) OnSubmit() {
	if d.step.ActionType != wtypes.ActionSubmit {
		return
	}
	d.emit(DetectedAction{ActionType: wtypes.ActionSubmit, TargetMatches: true})
}

// OnCopy handles a document-level copy/cut event.
func (d *Detector) OnCopy(clipboardPreview string) {
	if d.step.ActionType != wtypes.ActionCopy && d.step.ActionType != wtypes.ActionCut {
		return
	}
	d.emit(DetectedAction{ActionType: d.step.ActionType, TargetMatches: true, ClipboardPreview: clipboardPreview})
}
