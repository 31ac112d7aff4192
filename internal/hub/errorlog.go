package hub

import (
	"strings"
)

const maxErrorLines = 60

// ExtractError pulls the error excerpt out of a raw build log. It returns
// the last Python traceback when one exists, otherwise the ERROR-marked
// lines, otherwise "" — which the debug loop reads as a clean build.
func ExtractError(buildLog string) string {
	if strings.TrimSpace(buildLog) == "" {
		return ""
	}

	lines := strings.Split(buildLog, "\n")

	// Prefer the last traceback block: it carries the exception name the
	// classifier keys on.
	start := -1
	for i, line := range lines {
		if strings.Contains(line, "Traceback (most recent call last):") {
			start = i
		}
	}
	if start >= 0 {
		block := tracebackBlock(lines, start)
		return strings.TrimSpace(strings.Join(block, "\n"))
	}

	var errLines []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed to build") {
			errLines = append(errLines, line)
		}
	}
	if len(errLines) > maxErrorLines {
		errLines = errLines[len(errLines)-maxErrorLines:]
	}
	return strings.TrimSpace(strings.Join(errLines, "\n"))
}

// tracebackBlock returns the traceback plus everything up to the first
// blank line after the exception line, capped at maxErrorLines.
func tracebackBlock(lines []string, start int) []string {
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			end = i
			break
		}
	}
	block := lines[start:end]
	if len(block) > maxErrorLines {
		block = block[:maxErrorLines]
	}
	return block
}
