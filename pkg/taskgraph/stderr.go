package taskgraph

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultBenignMarkers are stderr fragments that build tools print even on
// success. Yarn reports peer dependency noise on stderr in silent mode.
var DefaultBenignMarkers = []string{"peer dependency"}

// FilterStderr drops empty lines, lines mentioning "warning" and lines
// containing any of markers. The remaining lines are what demotes a
// successful pipeline to completed_with_warnings.
func FilterStderr(stderr string, markers []string) string {
	lines := lo.Filter(strings.Split(stderr, "\n"), func(line string, _ int) bool {
		if strings.TrimSpace(line) == "" {
			return false
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "warning") {
			return false
		}
		return !lo.SomeBy(markers, func(marker string) bool {
			return strings.Contains(lower, strings.ToLower(marker))
		})
	})
	return strings.Join(lines, "\n")
}
