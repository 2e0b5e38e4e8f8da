package featureflags

import (
	"os"
	"strings"
)

const (
	// StrictTaskTransitions enforces the task status state machine.
	StrictTaskTransitions = "strict_task_transitions"
	// DashboardStream enables the websocket dashboard feed.
	DashboardStream = "dashboard_stream"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return parse(os.Getenv("FLAG_" + strings.ToUpper(name)))
}

func parse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Func is a flag lookup, injectable for tests.
type Func func(name string) bool

// Static returns a lookup that reports only the named flags as enabled.
func Static(enabled ...string) Func {
	set := make(map[string]bool, len(enabled))
	for _, n := range enabled {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}
