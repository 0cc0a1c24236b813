// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by the version command.
func String() string {
	return fmt.Sprintf("repo2text %s (commit %s, built %s)", Version, Commit, Date)
}
