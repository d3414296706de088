// validator.go — per-action-type validation rules (spec.md §4.7).
// Grounded on the teacher's internal/redaction package shape: a small,
// single-purpose pass with a closed set of typed reasons, no shared
// mutable state beyond what's passed in.
package action

import "github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"

// InvalidReason enumerates why a detected action failed validation.
type InvalidReason string

const (
	ReasonWrongElement   InvalidReason = "wrong_element"
	ReasonWrongAction    InvalidReason = "wrong_action"
	ReasonWrongValue     InvalidReason = "wrong_value"
	ReasonNoValueChange  InvalidReason = "no_value_change"
	ReasonInvalidTarget  InvalidReason = "invalid_target"
)

// DetectedAction is what the page-side listeners observed.
type DetectedAction struct {
	ActionType      wtypes.ActionType
	TargetMatches   bool // event target is the expected element/descendant/composed-path member
	Value           string
	ClipboardPreview string
}

// ValidationResult is the outcome of validating a DetectedAction against a
// Step's recorded expectation.
type ValidationResult struct {
	Valid  bool
	Reason InvalidReason
}

// Validate checks a detected action against the step it should satisfy
// (spec.md §4.7). Each action type has its own rule; unlisted action types
// never validate (invalid_target) since only the listed types can be
// listened for in the first place.
func Validate(step wtypes.Step, detected DetectedAction) ValidationResult {
	if detected.ActionType != step.ActionType {
		return ValidationResult{Valid: false, Reason: ReasonWrongAction}
	}

	switch step.ActionType {
	case wtypes.ActionClick:
		if !detected.TargetMatches {
			return ValidationResult{Valid: false, Reason: ReasonWrongElement}
		}
		return ValidationResult{Valid: true}

	case wtypes.ActionInputCommit, wtypes.ActionSelectChange:
		if !detected.TargetMatches {
			return ValidationResult{Valid: false, Reason: ReasonWrongElement}
		}
		if detected.Value == "" {
			return ValidationResult{Valid: false, Reason: ReasonNoValueChange}
		}
		return ValidationResult{Valid: true}

	case wtypes.ActionSubmit:
		// Submit's target is the form itself, not the triggering button;
		// validation checks only that the event fired at all.
		return ValidationResult{Valid: true}

	case wtypes.ActionCopy, wtypes.ActionCut:
		expected := step.ActionData
		if expected == nil || expected.ClipboardPreview == "" {
			return ValidationResult{Valid: true}
		}
		if detected.ClipboardPreview == expected.ClipboardPreview {
			return ValidationResult{Valid: true}
		}
		// A recorded preview may have been truncated; allow prefix match.
		if len(detected.ClipboardPreview) >= len(expected.ClipboardPreview) &&
			detected.ClipboardPreview[:len(expected.ClipboardPreview)] == expected.ClipboardPreview {
			return ValidationResult{Valid: true}
		}
		return ValidationResult{Valid: false, Reason: ReasonWrongValue}

	default:
		return ValidationResult{Valid: false, Reason: ReasonInvalidTarget}
	}
}
