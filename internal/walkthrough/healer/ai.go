// ai.go — the optional AI-assisted validation step for healing candidates
// in the MEDIUM_HIGH..HIGH confidence band (spec.md §4.6/§6). Backed by
// github.com/anthropics/anthropic-sdk-go (the LLM client stack jordigilh-
// kubernaut brings into the pack) and guarded by github.com/sony/gobreaker
// so a flaky or rate-limited endpoint degrades to "skip AI, fall through to
// user prompt" instead of blocking the HEALING state.
package healer

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// AIValidator asks a model whether a candidate element plausibly matches
// the recorded step, given the step's element metadata.
type AIValidator interface {
	Validate(ctx context.Context, step wtypes.Step, candidate Candidate) (confidence float64, err error)
}

// AnthropicValidator implements AIValidator against the Claude messages API,
// wrapped in a circuit breaker so repeated failures open the breaker and
// short-circuit subsequent calls for a cooldown window rather than adding
// latency to every healing attempt.
type AnthropicValidator struct {
	client  anthropic.Client
	model   anthropic.Model
	breaker *gobreaker.CircuitBreaker[float64]
}

// NewAnthropicValidator constructs a validator. apiKey is required; model
// defaults to Claude 3.5 Haiku, which is fast enough for an inline healing
// check.
func NewAnthropicValidator(apiKey string) *AnthropicValidator {
	breaker := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "anthropic-heal-validate",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &AnthropicValidator{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   anthropic.ModelClaude3_5HaikuLatest,
		breaker: breaker,
	}
}

// Validate asks the model to rate, in [0,1], how confident it is that the
// candidate's element metadata matches the step's recorded target.
func (v *AnthropicValidator) Validate(ctx context.Context, step wtypes.Step, candidate Candidate) (float64, error) {
	out, err := v.breaker.Execute(func() (float64, error) {
		prompt := buildValidationPrompt(step, candidate)
		msg, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     v.model,
			MaxTokens: 16,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return 0, err
		}
		return parseConfidenceReply(msg), nil
	})
	if err != nil {
		return 0, fmt.Errorf("ai validation unavailable: %w", err)
	}
	return out, nil
}

func buildValidationPrompt(step wtypes.Step, candidate Candidate) string {
	return fmt.Sprintf(
		"Recorded target: tag=%s role=%s text=%q form=%s. Candidate strategy=%s selector=%q. "+
			"Reply with only a number from 0 to 1 for how confident you are this candidate is the same element.",
		step.ElementMeta.Tag, step.ElementMeta.Role, step.ElementMeta.Text, step.ElementMeta.FormContext,
		candidate.Strategy, candidate.Selector,
	)
}

func parseConfidenceReply(msg *anthropic.Message) float64 {
	if msg == nil || len(msg.Content) == 0 {
		return 0
	}
	var value float64
	if _, err := fmt.Sscanf(msg.Content[0].Text, "%f", &value); err != nil {
		return 0
	}
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
