// constants.go — Numerical constants and thresholds shared across the
// walkthrough playback core; these are the design defaults. config.Config
// carries the same values, but only NavigationTimeout, ElementFindTimeout
// and MaxElementFindRetries are read from it; every other constant here is
// used as is.
package wtypes

import "time"

const (
	// SessionTimeout is how long a session may sit idle before the
	// coordinator ends it automatically.
	SessionTimeout = 30 * time.Minute

	// NavigationTimeout bounds how long a NAVIGATING transition may stay
	// unresolved before the navigation watcher forces NAVIGATION_TIMEOUT.
	NavigationTimeout = 30 * time.Second

	// ElementFindTimeout bounds how long the page controller polls for a
	// step's target element before reporting ELEMENT_NOT_FOUND.
	ElementFindTimeout = 5 * time.Second

	// TabReadyTimeout is the design bound for a newly opened tab to send
	// WALKTHROUGH_TAB_READY; no component in this module waits on it.
	TabReadyTimeout = 10 * time.Second

	// MaxActionRetries is the count of ACTION_INVALID reports on one step
	// at which the machine transitions WAITING_ACTION -> ERROR; the
	// reports before it leave the machine in WAITING_ACTION.
	MaxActionRetries = 3

	// MaxElementFindRetries is the number of extra element-find polls made
	// after the first one fails, before the page controller gives up and
	// reports ELEMENT_NOT_FOUND.
	MaxElementFindRetries = 2

	// MaxHealingRetries is the design bound on heal retries; the page
	// controller runs healing once per step visit and does not read it.
	MaxHealingRetries = 1

	// HealingConfidenceHigh is the confidence at or above which a healed
	// candidate is auto-accepted without user confirmation.
	HealingConfidenceHigh = 0.85

	// HealingConfidenceMediumHigh is the floor above which AI validation
	// may be consulted before falling back to a user prompt.
	HealingConfidenceMediumHigh = 0.70

	// HealingConfidenceMedium is the floor below which a healing candidate
	// is rejected outright.
	HealingConfidenceMedium = 0.60
)

// AdvanceDelay returns the UI-visible confirmation delay applied before
// detaching step UI after a valid action is detected, so the user sees
// visual confirmation of their action before the walkthrough moves on.
func AdvanceDelay(actionType ActionType) time.Duration {
	switch actionType {
	case ActionClick:
		return 60 * time.Millisecond
	case ActionSelectChange:
		return 120 * time.Millisecond
	case ActionInputCommit:
		return 150 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// RestrictedURLPrefixes are schemes/prefixes the navigation watcher must
// never turn into a URL_CHANGED event — the machine stays in its current
// state and the user is effectively in a dead zone until they navigate
// somewhere observable again.
var RestrictedURLPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"edge://",
	"about:",
	"data:",
	"javascript:",
	"file://",
}

// PersistedStateKey is the single session-scoped store key the coordinator
// owns exclusively.
const PersistedStateKey = "walkthrough_session_v2"

// AlarmName is the host alarm service name used for NAVIGATION_TIMEOUT.
const AlarmName = "walkthrough-navigation-timeout"
