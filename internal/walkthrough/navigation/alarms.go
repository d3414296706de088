// alarms.go — AlarmService abstracts the browser extension's alarms API,
// the host primitive the spec's navigation watcher relies on for a
// restart-safe NAVIGATION_TIMEOUT (spec.md §4.3). The in-process
// TimerAlarmService is the correct stand-in for a single Go process: no
// pack library models "a timer that survives a process restart" better
// than persisting the deadline (timing.expiresAt/navigation.startedAt,
// already durable in store.Store) and re-arming on Initialize, which is
// exactly what this package does. See DESIGN.md.
package navigation

import (
	"sync"
	"time"
)

// AlarmService schedules and cancels a single named, one-shot timer.
// Scheduling a name that is already pending replaces it.
type AlarmService interface {
	Schedule(name string, d time.Duration, fn func())
	Cancel(name string)
}

// TimerAlarmService implements AlarmService with stdlib time.AfterFunc.
type TimerAlarmService struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTimerAlarmService constructs an empty TimerAlarmService.
func NewTimerAlarmService() *TimerAlarmService {
	return &TimerAlarmService{timers: make(map[string]*time.Timer)}
}

func (a *TimerAlarmService) Schedule(name string, d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[name]; ok {
		t.Stop()
	}
	if d <= 0 {
		d = time.Millisecond
	}
	a.timers[name] = time.AfterFunc(d, fn)
}

func (a *TimerAlarmService) Cancel(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.timers[name]; ok {
		t.Stop()
		delete(a.timers, name)
	}
}
