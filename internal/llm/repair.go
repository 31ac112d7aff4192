package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats tracks what a repair attempt had to do.
type RepairStats struct {
	OriginalBytes    int      `json:"original_bytes"`
	RepairedBytes    int      `json:"repaired_bytes"`
	RepairStrategies []string `json:"repair_strategies"`
	WasRepaired      bool     `json:"was_repaired"`
}

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// RepairJSON makes malformed model JSON parseable. Strategies, in order:
// strip surrounding code fences, remove trailing commas, then the jsonrepair
// library as the heavyweight fallback. Valid input passes through untouched.
func RepairJSON(raw string) (string, RepairStats, error) {
	stats := RepairStats{OriginalBytes: len(raw)}

	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		stats.RepairedBytes = len(raw)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if stripped := stripCodeFences(repaired); stripped != repaired {
		repaired = stripped
		stats.RepairStrategies = append(stats.RepairStrategies, "code_fences")
	}
	if fixed := trailingCommaPattern.ReplaceAllString(repaired, "$1"); fixed != repaired {
		repaired = fixed
		stats.RepairStrategies = append(stats.RepairStrategies, "trailing_commas")
	}

	if json.Unmarshal([]byte(repaired), &probe) == nil {
		stats.RepairedBytes = len(repaired)
		return repaired, stats, nil
	}

	libraryRepaired, err := jsonrepair.JSONRepair(repaired)
	if err != nil {
		return "", stats, err
	}
	stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
	stats.RepairedBytes = len(libraryRepaired)
	return libraryRepaired, stats, nil
}

func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// drop an optional language tag on the opening fence
		firstLine := trimmed[:idx]
		if !strings.ContainsAny(firstLine, "{}[]") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
