package reporting

import (
	"regexp"
	"strings"
)

// internalFrames matches stack frames that belong to the runner rather than
// to the spec file.
var internalFrames = regexp.MustCompile(strings.Join([]string{
	`^github\.com/ethereum-optimism/infra/kizu/(assertions|expect|worker|types)\.`,
	`^github\.com/pkg/errors\.`,
	`^runtime/debug\.Stack`,
	`^runtime\.(gopanic|goexit|main)`,
	`^panic\(`,
	`^reflect\.Value\.`,
	`^testing\.tRunner`,
}, "|"))

// FilterStackTrace drops runner frames from a Go stack trace. A frame is a
// function line followed by its tab-indented file line; both are dropped.
func FilterStackTrace(stack string) string {
	lines := strings.Split(strings.TrimRight(stack, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, "\t") && internalFrames.MatchString(line) {
			if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\t") {
				i++
			}
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
