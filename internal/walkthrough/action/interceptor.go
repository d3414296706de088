// interceptor.go — the session-scoped click interceptor (spec.md §4.7):
// enabled for the whole walkthrough, blocks every click that doesn't
// target the current step's element or an explicitly allowed one.
package action

import "sync"

// PathPredicate decides whether a composed click path (innermost element
// first; the content script supplies this from Event.composedPath()) is
// allowed through.
type PathPredicate func(composedPath []string) bool

// BlockedCallback fires once per blocked click, for toast-style feedback.
type BlockedCallback func(composedPath []string)

// ClickInterceptor is enabled once per session and retargeted per step.
type ClickInterceptor struct {
	mu        sync.Mutex
	enabled   bool
	isAllowed PathPredicate
	onBlocked BlockedCallback
}

// NewClickInterceptor returns a disabled interceptor.
func NewClickInterceptor() *ClickInterceptor {
	return &ClickInterceptor{}
}

// Enable arms the interceptor for the session. isAllowed is re-supplied by
// the caller every time the current step's target changes.
func (c *ClickInterceptor) Enable(isAllowed PathPredicate, onBlocked BlockedCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
	c.isAllowed = isAllowed
	c.onBlocked = onBlocked
}

// Retarget swaps the allow predicate without disabling the interceptor,
// for moving from one step's target to the next.
func (c *ClickInterceptor) Retarget(isAllowed PathPredicate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.isAllowed = isAllowed
	}
}

// Disable is called at session end.
func (c *ClickInterceptor) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
	c.isAllowed = nil
	c.onBlocked = nil
}

// ShouldBlock reports whether a capture-phase document click on
// composedPath should be blocked. The caller is responsible for actually
// calling preventDefault/stopPropagation/stopImmediatePropagation and
// triggering the visual pulse when this returns true.
func (c *ClickInterceptor) ShouldBlock(composedPath []string) bool {
	c.mu.Lock()
	enabled, isAllowed, onBlocked := c.enabled, c.isAllowed, c.onBlocked
	c.mu.Unlock()

	if !enabled {
		return false
	}
	if isAllowed != nil && isAllowed(composedPath) {
		return false
	}
	if onBlocked != nil {
		onBlocked(composedPath)
	}
	return true
}

// AllowMarker is the attribute the content script checks for on any
// element in the composed path to explicitly allow a click through
// (spec.md §4.7: "any element with a [data-walkthrough-allow] attribute").
const AllowMarker = "[data-walkthrough-allow]"

// PathContains is a small helper predicate: true if target (or AllowMarker)
// appears anywhere in composedPath.
func PathContains(composedPath []string, target string) bool {
	for _, el := range composedPath {
		if el == target || el == AllowMarker {
			return true
		}
	}
	return false
}
