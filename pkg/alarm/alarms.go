// Package alarm tracks active failure conditions so they are reported on change rather than on every occurrence.
package alarm

import (
	"sort"
	"sync"
)

type ActiveAlarms struct {
	activeAlarms map[string]string
	sync.RWMutex
}

// Raise activates alarm with message and returns true if it was not already active.
func (a *ActiveAlarms) Raise(alarm, message string) bool {
	a.Lock()
	defer a.Unlock()
	if a.activeAlarms == nil {
		a.activeAlarms = make(map[string]string)
	}
	_, exists := a.activeAlarms[alarm]
	a.activeAlarms[alarm] = message
	return !exists
}

// Resolve deactivates alarm and returns true if it was active.
func (a *ActiveAlarms) Resolve(alarm string) bool {
	a.Lock()
	defer a.Unlock()
	_, exists := a.activeAlarms[alarm]
	delete(a.activeAlarms, alarm)
	return exists
}

func (a *ActiveAlarms) Clear() bool {
	a.Lock()
	defer a.Unlock()
	hasActive := len(a.activeAlarms) > 0
	a.activeAlarms = nil
	return hasActive
}

// Active returns the active alarm names sorted.
func (a *ActiveAlarms) Active() []string {
	a.RLock()
	defer a.RUnlock()
	out := make([]string, 0, len(a.activeAlarms))
	for name := range a.activeAlarms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
