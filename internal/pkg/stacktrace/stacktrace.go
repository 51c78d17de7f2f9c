// Package stacktrace trims raw goroutine stacks down to project frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" frames of a debug.Stack dump.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		_, rest, found := strings.Cut(line, "/internal/")
		if !found || !strings.Contains(rest, ".go:") {
			continue
		}
		if sp := strings.IndexByte(rest, ' '); sp != -1 {
			rest = rest[:sp]
		}
		paths = append(paths, "internal/"+rest)
	}
	return paths
}
