package action

import (
	"testing"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

func TestValidateClick(t *testing.T) {
	step := wtypes.Step{ActionType: wtypes.ActionClick}
	if r := Validate(step, DetectedAction{ActionType: wtypes.ActionClick, TargetMatches: true}); !r.Valid {
		t.Fatalf("expected valid click, got %+v", r)
	}
	if r := Validate(step, DetectedAction{ActionType: wtypes.ActionClick, TargetMatches: false}); r.Valid || r.Reason != ReasonWrongElement {
		t.Fatalf("expected wrong_element, got %+v", r)
	}
}

func TestValidateWrongActionType(t *testing.T) {
	step := wtypes.Step{ActionType: wtypes.ActionClick}
	r := Validate(step, DetectedAction{ActionType: wtypes.ActionSubmit, TargetMatches: true})
	if r.Valid || r.Reason != ReasonWrongAction {
		t.Fatalf("expected wrong_action, got %+v", r)
	}
}

func TestValidateInputCommitNoValueChange(t *testing.T) {
	step := wtypes.Step{ActionType: wtypes.ActionInputCommit}
	r := Validate(step, DetectedAction{ActionType: wtypes.ActionInputCommit, TargetMatches: true, Value: ""})
	if r.Valid || r.Reason != ReasonNoValueChange {
		t.Fatalf("expected no_value_change, got %+v", r)
	}
}

func TestValidateSubmitIgnoresTarget(t *testing.T) {
	step := wtypes.Step{ActionType: wtypes.ActionSubmit}
	r := Validate(step, DetectedAction{ActionType: wtypes.ActionSubmit, TargetMatches: false})
	if !r.Valid {
		t.Fatalf("expected submit to validate regardless of target, got %+v", r)
	}
}

func TestValidateCopyExactAndPrefixMatch(t *testing.T) {
	step := wtypes.Step{ActionType: wtypes.ActionCopy, ActionData: &wtypes.ActionData{ClipboardPreview: "hello world"}}

	if r := Validate(step, DetectedAction{ActionType: wtypes.ActionCopy, ClipboardPreview: "hello world"}); !r.Valid {
		t.Fatalf("expected exact clipboard match to validate, got %+v", r)
	}
	if r := Validate(step, DetectedAction{ActionType: wtypes.ActionCopy, ClipboardPreview: "hello world and more"}); !r.Valid {
		t.Fatalf("expected prefix superset to validate, got %+v", r)
	}
	if r := Validate(step, DetectedAction{ActionType: wtypes.ActionCopy, ClipboardPreview: "goodbye"}); r.Valid || r.Reason != ReasonWrongValue {
		t.Fatalf("expected wrong_value, got %+v", r)
	}
}

func TestValidateCopyNoRecordedPreviewAlwaysValid(t *testing.T) {
	step := wtypes.Step{ActionType: wtypes.ActionCopy}
	r := Validate(step, DetectedAction{ActionType: wtypes.ActionCopy, ClipboardPreview: "anything"})
	if !r.Valid {
		t.Fatalf("expected valid when no preview was recorded, got %+v", r)
	}
}
