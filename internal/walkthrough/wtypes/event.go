// event.go — the event union the pure state machine dispatches on. Each
// event carries only plain data (spec.md §4.1).
package wtypes

// EventType discriminates the Event union.
type EventType string

const (
	EventStart       EventType = "START"
	EventDataLoaded  EventType = "DATA_LOADED"
	EventInitFailed  EventType = "INIT_FAILED"
	EventExit        EventType = "EXIT"
	EventNextStep    EventType = "NEXT_STEP"
	EventPrevStep    EventType = "PREV_STEP"
	EventJumpToStep  EventType = "JUMP_TO_STEP"
	EventRetry       EventType = "RETRY"
	EventSkipStep    EventType = "SKIP_STEP"

	EventElementFound    EventType = "ELEMENT_FOUND"
	EventElementNotFound EventType = "ELEMENT_NOT_FOUND"

	EventActionDetected EventType = "ACTION_DETECTED"
	EventActionInvalid  EventType = "ACTION_INVALID"

	EventHealingStarted EventType = "HEALING_STARTED"
	EventHealSuccess    EventType = "HEAL_SUCCESS"
	EventHealFailed     EventType = "HEAL_FAILED"

	EventURLChanged        EventType = "URL_CHANGED"
	EventPageLoaded        EventType = "PAGE_LOADED"
	EventNavigationTimeout EventType = "NAVIGATION_TIMEOUT"

	EventTabReady  EventType = "TAB_READY"
	EventTabClosed EventType = "TAB_CLOSED"
)

// Event is a single machine input. Only the fields relevant to Type are
// expected to be populated; the machine reads them by convention per event,
// matching the teacher's duck-typed JSON-RPC params pattern but kept
// strongly typed here since the event set is closed.
type Event struct {
	Type EventType

	// START
	WorkflowID string
	TabID      int // also used by PAGE_LOADED, TAB_READY, TAB_CLOSED

	// DATA_LOADED
	WorkflowName string
	StartingURL  string
	Steps        []Step

	// INIT_FAILED / HEAL_FAILED (ACTION_INVALID's terminal message comes
	// from InvalidReason)
	Message string

	// JUMP_TO_STEP
	StepIndex int

	// ACTION_DETECTED / ACTION_INVALID
	DetectedActionType ActionType
	DetectedValue       string
	InvalidReason       string

	// HEAL_SUCCESS
	HealedSelector *HealedSelectorOverride

	// HEALING_STARTED
	CandidateCount int
	BestScore      float64
	AIRequested    bool

	// URL_CHANGED / PAGE_LOADED
	URL string
}
