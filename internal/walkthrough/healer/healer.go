// healer.go — the external healer the core consumes through the
// healElement interface (spec.md §4.6, §6): score candidates, auto-accept
// above HIGH, consult AI between MEDIUM_HIGH and HIGH, otherwise prompt the
// user, reject below MEDIUM. Supplemented from the teacher's
// executeClickWithHealing/DetectFragileSelectors (SPEC_FULL.md §3).
package healer

import (
	"context"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// UserPromptFunc asks the UI to confirm a healed candidate and blocks until
// the user answers (spec.md §4.6 showHealedElement).
type UserPromptFunc func(ctx context.Context, candidate Candidate, confidence float64) bool

// Options configures one Heal invocation.
type Options struct {
	// AIEnabled gates whether the MEDIUM_HIGH..HIGH band consults an
	// AIValidator before falling back to a user prompt.
	AIEnabled bool
	// Found reports which selector strategies the page controller was
	// able to resolve an element for, keyed per ScoreCandidates.
	Found map[string]bool
	// OnUserPrompt is wired to the UI confirmation dialog; nil means no
	// confirmation is possible and MEDIUM/MEDIUM_HIGH bands fail closed.
	OnUserPrompt UserPromptFunc
}

// Healer implements the external healer interface.
type Healer struct {
	ai      AIValidator
	tracker *FragileTracker
}

// New constructs a Healer. ai may be nil to disable AI-assisted validation
// entirely (e.g. no API key configured).
func New(ai AIValidator, tracker *FragileTracker) *Healer {
	if tracker == nil {
		tracker = NewFragileTracker()
	}
	return &Healer{ai: ai, tracker: tracker}
}

// Heal scores candidates for step and resolves one per the confidence
// thresholds in wtypes (spec.md §4.1, §4.6).
func (h *Healer) Heal(ctx context.Context, step wtypes.Step, opts Options) wtypes.HealingResult {
	candidates := ScoreCandidates(step, opts.Found)
	result := wtypes.HealingResult{CandidatesEvaluated: len(candidates)}

	best, ok := Best(candidates)
	if !ok {
		result.Resolution = "failed"
		result.FailureReason = "no_candidates"
		h.recordOutcome(candidates, true)
		return result
	}

	switch {
	case best.Score >= wtypes.HealingConfidenceHigh:
		acceptAuto(&result, best)
	case best.Score >= wtypes.HealingConfidenceMediumHigh:
		if opts.AIEnabled && h.ai != nil {
			if aiConf, err := h.ai.Validate(ctx, step, best); err == nil {
				result.AIConfidence = &aiConf
				if aiConf >= wtypes.HealingConfidenceHigh {
					acceptAI(&result, best, aiConf)
					break
				}
			}
		}
		if !result.Success {
			promptUser(ctx, &result, best, opts.OnUserPrompt)
		}
	case best.Score >= wtypes.HealingConfidenceMedium:
		promptUser(ctx, &result, best, opts.OnUserPrompt)
	default:
		result.Resolution = "failed"
		result.FailureReason = "low_confidence"
	}

	h.recordOutcome(candidates, !result.Success)
	return result
}

// Fragile exposes the healer's accumulated fragile-selector set, a
// supplemented diagnostic surface (SPEC_FULL.md §3) for surfacing on a
// dashboard after several playback runs of the same workflow.
func (h *Healer) Fragile() map[string]bool {
	return h.tracker.Fragile()
}

func acceptAuto(result *wtypes.HealingResult, best Candidate) {
	result.Success = true
	result.Confidence = best.Score
	result.Resolution = "healed_auto"
	result.HealedSelector = &wtypes.HealedSelectorOverride{Selector: best.Selector, Strategy: best.Strategy, Confidence: best.Score}
}

func acceptAI(result *wtypes.HealingResult, best Candidate, aiConf float64) {
	result.Success = true
	result.Confidence = aiConf
	result.Resolution = "healed_ai"
	result.HealedSelector = &wtypes.HealedSelectorOverride{Selector: best.Selector, Strategy: best.Strategy, Confidence: aiConf}
}

func promptUser(ctx context.Context, result *wtypes.HealingResult, best Candidate, prompt UserPromptFunc) {
	if prompt == nil {
		result.Resolution = "failed"
		result.FailureReason = "no_confirmation_ui"
		return
	}
	if prompt(ctx, best, best.Score) {
		result.Success = true
		result.Confidence = best.Score
		result.Resolution = "healed_user"
		result.HealedSelector = &wtypes.HealedSelectorOverride{Selector: best.Selector, Strategy: best.Strategy, Confidence: best.Score}
		return
	}
	result.Resolution = "failed"
	result.FailureReason = "user_rejected"
}

func (h *Healer) recordOutcome(candidates []Candidate, failed bool) {
	if len(candidates) == 0 {
		return
	}
	outcomes := make([]RunOutcome, len(candidates))
	for i, c := range candidates {
		outcomes[i] = RunOutcome{Strategy: c.Strategy, Failed: failed && i == 0}
	}
	h.tracker.Record(outcomes)
}
