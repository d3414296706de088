package healer

import (
	"context"
	"errors"
	"testing"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

func stepWithTestID() wtypes.Step {
	return wtypes.Step{
		ActionType: wtypes.ActionClick,
		Selectors:  wtypes.Selectors{DataTestID: "submit-btn", CSS: ".submit"},
	}
}

func TestScoreCandidatesOrdersByStrategy(t *testing.T) {
	candidates := ScoreCandidates(stepWithTestID(), map[string]bool{"data_testid": true, "css": true})
	if len(candidates) != 2 || candidates[0].Strategy != "data_testid" {
		t.Fatalf("expected data_testid first, got %+v", candidates)
	}
}

func TestHealAutoAcceptsHighConfidence(t *testing.T) {
	h := New(nil, nil)
	result := h.Heal(context.Background(), stepWithTestID(), Options{Found: map[string]bool{"data_testid": true}})
	if !result.Success || result.Resolution != "healed_auto" {
		t.Fatalf("expected healed_auto, got %+v", result)
	}
}

func TestHealFailsWithNoCandidates(t *testing.T) {
	h := New(nil, nil)
	result := h.Heal(context.Background(), stepWithTestID(), Options{Found: nil})
	if result.Success || result.Resolution != "failed" || result.FailureReason != "no_candidates" {
		t.Fatalf("expected failed/no_candidates, got %+v", result)
	}
}

func TestHealMediumConfidencePromptsUser(t *testing.T) {
	h := New(nil, nil)
	prompted := false
	result := h.Heal(context.Background(), stepWithTestID(), Options{
		Found: map[string]bool{"nearby_xy": true},
		OnUserPrompt: func(_ context.Context, c Candidate, confidence float64) bool {
			prompted = true
			return true
		},
	})
	if !prompted {
		t.Fatalf("expected user prompt for medium-confidence candidate")
	}
	if !result.Success || result.Resolution != "healed_user" {
		t.Fatalf("expected healed_user, got %+v", result)
	}
}

func TestHealLowConfidenceFailsOutright(t *testing.T) {
	h := New(nil, nil)
	result := h.Heal(context.Background(), stepWithTestID(), Options{Found: map[string]bool{"last_known": true}})
	if result.Success || result.Resolution != "failed" || result.FailureReason != "low_confidence" {
		t.Fatalf("expected failed/low_confidence, got %+v", result)
	}
}

type fakeAI struct {
	confidence float64
	err        error
}

func (f fakeAI) Validate(context.Context, wtypes.Step, Candidate) (float64, error) {
	return f.confidence, f.err
}

func TestHealMediumHighConsultsAIBeforeUser(t *testing.T) {
	h := New(fakeAI{confidence: 0.95}, nil)
	result := h.Heal(context.Background(), stepWithTestID(), Options{
		AIEnabled: true,
		Found:     map[string]bool{"css": true},
	})
	if !result.Success || result.Resolution != "healed_ai" {
		t.Fatalf("expected healed_ai, got %+v", result)
	}
}

func TestHealMediumHighFallsBackToUserOnAIFailure(t *testing.T) {
	h := New(fakeAI{err: errors.New("unavailable")}, nil)
	result := h.Heal(context.Background(), stepWithTestID(), Options{
		AIEnabled: true,
		Found:     map[string]bool{"css": true},
		OnUserPrompt: func(context.Context, Candidate, float64) bool {
			return true
		},
	})
	if !result.Success || result.Resolution != "healed_user" {
		t.Fatalf("expected fallback to healed_user, got %+v", result)
	}
}

func TestFragileTrackerNeedsTwoRuns(t *testing.T) {
	tr := NewFragileTracker()
	tr.Record([]RunOutcome{{Strategy: "css", Failed: true}})
	if len(tr.Fragile()) != 0 {
		t.Fatalf("expected no fragile strategies after a single run")
	}
	tr.Record([]RunOutcome{{Strategy: "css", Failed: true}})
	if !tr.Fragile()["css"] {
		t.Fatalf("expected css flagged fragile after 2/2 failures")
	}
}
