// navigator.go — router.Navigator's production implementation: forwards a
// navigate-to-URL instruction through the same queued-send shape
// TabBroadcaster uses for state broadcasts (cmd/walkthroughd wires both
// through a channel drained by the extension's native-messaging binding).
package bridge

import "context"

// NavigateSender delivers one navigate-to-URL instruction to a tab.
type NavigateSender func(ctx context.Context, tabID int, url string) error

// TabNavigator implements router.Navigator over a NavigateSender.
type TabNavigator struct {
	send NavigateSender
}

// NewTabNavigator constructs a TabNavigator.
func NewTabNavigator(send NavigateSender) *TabNavigator {
	return &TabNavigator{send: send}
}

// Navigate implements router.Navigator.
func (n *TabNavigator) Navigate(ctx context.Context, tabID int, url string) error {
	return n.send(ctx, tabID, url)
}
