package models

import "fmt"

// Architecture is the deployment topology selected at install time.
// It determines which long-running process definitions get materialized.
type Architecture string

const (
	// ArchConsole installs an auto-login console session that attaches to
	// a persistent multiplexed session running the interactive entry point.
	ArchConsole Architecture = "console"
	// ArchHeadless installs a background network service bound to a
	// configurable host/port, auto-restarting on failure.
	ArchHeadless Architecture = "headless"
	// ArchFull installs both of the above.
	ArchFull Architecture = "full"
)

func (a Architecture) String() string {
	return string(a)
}

// HasConsole reports whether the topology includes the console session.
func (a Architecture) HasConsole() bool {
	return a == ArchConsole || a == ArchFull
}

// HasHeadless reports whether the topology includes the network service.
func (a Architecture) HasHeadless() bool {
	return a == ArchHeadless || a == ArchFull
}

/**
 * Parse an architecture name
 * @param {string} name - One of "console", "headless", "full"
 * @returns {(Architecture, error)} Returns the parsed value or an error for unknown names
 */
func ParseArchitecture(name string) (Architecture, error) {
	switch name {
	case "console":
		return ArchConsole, nil
	case "headless":
		return ArchHeadless, nil
	case "full":
		return ArchFull, nil
	default:
		return "", fmt.Errorf("unknown architecture %q (expected console, headless or full)", name)
	}
}
