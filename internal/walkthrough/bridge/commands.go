// commands.go — maps the typed Command envelope (wtypes.Command) onto the
// router/coordinator surface, implementing the gateway's Dispatcher seam.
// Grounded on cmd/dev-console/tools_interact_workflows.go's command-name
// switch dispatching into the playback engine's typed methods.
package bridge

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/router"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Coordinator is the slice of *coordinator.Coordinator the command router
// needs beyond what router.Router already exposes.
type Coordinator interface {
	router.Dispatcher
}

// CommandDispatcher adapts wtypes.Command envelopes onto a router.Router
// and the underlying coordinator, implementing bridge.Dispatcher.
type CommandDispatcher struct {
	coord  Coordinator
	router *router.Router
}

// NewCommandDispatcher constructs a CommandDispatcher.
func NewCommandDispatcher(coord Coordinator, r *router.Router) *CommandDispatcher {
	return &CommandDispatcher{coord: coord, router: r}
}

type startPayload struct {
	WorkflowID   string       `json:"workflowId"`
	WorkflowName string       `json:"workflowName"`
	StartingURL  string       `json:"startingUrl"`
	Steps        []wtypes.Step `json:"steps"`
	TabID        int          `json:"tabId"`
}

type jumpPayload struct {
	StepIndex int `json:"stepIndex"`
}

type actionReportPayload struct {
	ActionType    wtypes.ActionType `json:"actionType"`
	Value         string            `json:"value"`
	InvalidReason string            `json:"invalidReason,omitempty"`
}

// HandleCommand implements Dispatcher.
func (d *CommandDispatcher) HandleCommand(ctx context.Context, cmd wtypes.Command) (wtypes.WalkthroughState, error) {
	switch cmd.Command {
	case wtypes.CommandStart:
		var p startPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return wtypes.WalkthroughState{}, err
		}
		if _, err := d.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventStart, WorkflowID: p.WorkflowID, TabID: p.TabID}); err != nil {
			return wtypes.WalkthroughState{}, err
		}
		return d.coord.Dispatch(ctx, wtypes.Event{
			Type:         wtypes.EventDataLoaded,
			WorkflowName: p.WorkflowName,
			StartingURL:  p.StartingURL,
			Steps:        p.Steps,
		})

	case wtypes.CommandNext:
		return routerResult(d.router.Next(ctx))
	case wtypes.CommandPrev:
		return routerResult(d.router.Previous(ctx))
	case wtypes.CommandRetry:
		return d.router.Retry(ctx)
	case wtypes.CommandSkip:
		return d.router.Skip(ctx)
	case wtypes.CommandExit:
		return d.coord.Dispatch(ctx, wtypes.Event{Type: wtypes.EventExit})
	case wtypes.CommandGetState:
		return d.coord.GetState(), nil

	case wtypes.CommandJumpTo:
		var p jumpPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return wtypes.WalkthroughState{}, err
		}
		return routerResult(d.router.JumpTo(ctx, p.StepIndex))

	case wtypes.CommandReportAction:
		var p actionReportPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return wtypes.WalkthroughState{}, err
		}
		event := wtypes.Event{Type: wtypes.EventActionDetected, DetectedActionType: p.ActionType, DetectedValue: p.Value}
		if p.InvalidReason != "" {
			event.Type = wtypes.EventActionInvalid
			event.InvalidReason = p.InvalidReason
		}
		return d.coord.Dispatch(ctx, event)

	default:
		return wtypes.WalkthroughState{}, errors.New("walkthrough: unknown command " + string(cmd.Command))
	}
}

// routerResult translates the router's {success, navigating?, reason?}
// shape onto HandleCommand's (state, error) contract: a pending navigation
// is success with no error, anything else failing surfaces its reason as
// the error string.
func routerResult(res router.Result) (wtypes.WalkthroughState, error) {
	if !res.Success {
		return res.State, errors.New(res.Reason)
	}
	return res.State, nil
}
