// messages.go — the typed message schema crossing the coordinator/page
// boundary (spec.md §6). Mirrors the teacher's internal/mcp/protocol.go
// JSON-RPC envelope shape.
package wtypes

import "encoding/json"

// CommandType enumerates WALKTHROUGH_COMMAND.command values.
type CommandType string

const (
	CommandStart        CommandType = "START"
	CommandNext         CommandType = "NEXT"
	CommandPrev         CommandType = "PREV"
	CommandJumpTo       CommandType = "JUMP_TO"
	CommandRetry        CommandType = "RETRY"
	CommandSkip         CommandType = "SKIP"
	CommandExit         CommandType = "EXIT"
	CommandGetState     CommandType = "GET_STATE"
	CommandReportAction CommandType = "REPORT_ACTION"
)

// Command is the page -> coordinator command envelope.
type Command struct {
	Type    string          `json:"type"` // "WALKTHROUGH_COMMAND"
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CommandResponse is the coordinator's reply to a Command.
type CommandResponse struct {
	Success bool              `json:"success"`
	State   *WalkthroughState `json:"state,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ElementStatusReport is WALKTHROUGH_ELEMENT_STATUS.
type ElementStatusReport struct {
	StepIndex int  `json:"stepIndex"`
	Found     bool `json:"found"`
	TabID     int  `json:"tabId"`
}

// HealingResult is the outcome of a healer invocation, consumed verbatim
// per spec.md §6's healer interface.
type HealingResult struct {
	Success             bool        `json:"success"`
	Confidence          float64     `json:"confidence"`
	Resolution          string      `json:"resolution"` // healed_auto | healed_ai | healed_user | failed
	CandidatesEvaluated int         `json:"candidatesEvaluated"`
	AIConfidence        *float64    `json:"aiConfidence,omitempty"`
	HealedSelector      *HealedSelectorOverride `json:"healedSelector,omitempty"`
	FailureReason       string      `json:"failureReason,omitempty"`
}

// HealingResultReport is WALKTHROUGH_HEALING_RESULT.
type HealingResultReport struct {
	StepIndex int           `json:"stepIndex"`
	Result    HealingResult `json:"result"`
}

// ExecutionLogEntry is one entry of WALKTHROUGH_EXECUTION_LOG — a
// supplemented feature (SPEC_FULL.md §3) modeled on the teacher's audit
// trail, giving each session a replayable timeline.
type ExecutionLogEntry struct {
	SessionID string `json:"sessionId"`
	At        int64  `json:"atUnixMs"`
	Kind      string `json:"kind"` // the coordinator writes only "dispatch"
	Detail    string `json:"detail"`
}

// TabReady is the page -> coordinator load handshake.
type TabReady struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}

// TabReadyResponse answers the handshake so the page can restore UI after
// a navigation.
type TabReadyResponse struct {
	HasActiveSession bool              `json:"hasActiveSession"`
	State            *WalkthroughState `json:"state,omitempty"`
}

// StateChanged is the coordinator -> page broadcast (spec.md §6).
type StateChanged struct {
	Type    string           `json:"type"` // "WALKTHROUGH_STATE_CHANGED"
	State   WalkthroughState `json:"state"`
	Trigger EventType        `json:"trigger"`
}

// DashboardStart is the window-level message the dashboard origin gateway
// accepts, provided it originates from an allowlisted origin.
type DashboardStart struct {
	Source  string `json:"source"` // "overlay-dashboard"
	Type    string `json:"type"`   // "START_WALKTHROUGH"
	Payload struct {
		WorkflowID string `json:"workflowId"`
	} `json:"payload"`
}
