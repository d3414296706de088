// tabs.go — the tab manager: read-through queries over the coordinator's
// tab bookkeeping plus the primary-tab-close -> session-end rule (spec.md
// §4.5). Grounded on internal/session/client_registry_test.go's
// map-of-live-clients-keyed-by-id shape; here the "registry" is simply the
// coordinator's WalkthroughState.Tabs, since the coordinator is already the
// single source of truth and a parallel registry would drift from it.
package tabs

import (
	"context"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Coordinator is the slice of *coordinator.Coordinator the tab manager
// needs.
type Coordinator interface {
	GetState() wtypes.WalkthroughState
	AddTab(id int)
	RemoveTab(ctx context.Context, id int) (wtypes.WalkthroughState, error)
}

// Manager answers tab-membership queries and routes close events.
type Manager struct {
	coord Coordinator
}

// New constructs a Manager.
func New(coord Coordinator) *Manager {
	return &Manager{coord: coord}
}

// OpenTab registers a newly opened tab as session-scoped (spec.md §4.5 —
// tabs opened by the walkthrough, e.g. via a navigate step in a new tab,
// join the session without becoming primary).
func (m *Manager) OpenTab(id int) {
	m.coord.AddTab(id)
}

// CloseTab reports a tab closing. If id is the primary tab, this ends the
// session (equivalent to dispatching TAB_CLOSED); otherwise it is a plain
// membership removal.
func (m *Manager) CloseTab(ctx context.Context, id int) (wtypes.WalkthroughState, error) {
	return m.coord.RemoveTab(ctx, id)
}

// PrimaryTabID returns the current session's primary tab, or 0 if none.
func (m *Manager) PrimaryTabID() int {
	return m.coord.GetState().Tabs.PrimaryTabID
}

// ActiveTabIDs returns every tab currently associated with the session.
func (m *Manager) ActiveTabIDs() []int {
	return append([]int(nil), m.coord.GetState().Tabs.ActiveTabIDs...)
}

// IsSessionTab reports whether id belongs to the active session.
func (m *Manager) IsSessionTab(id int) bool {
	return wtypes.ContainsTab(m.coord.GetState().Tabs.ActiveTabIDs, id)
}

// IsPrimaryTab reports whether id is the session's primary tab.
func (m *Manager) IsPrimaryTab(id int) bool {
	state := m.coord.GetState()
	return state.IsActive() && state.Tabs.PrimaryTabID == id
}
