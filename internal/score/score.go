// Package score reduces a finding list to a single compliance score.
package score

import "github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"

// Per-severity penalties. The exact weights are calibration constants, not
// regulatory dogma; change them here and nowhere else.
const (
	weightCritical = 15
	weightMajor    = 7
	weightMinor    = 2
)

// Score band floors, checked top-down.
const (
	bandExcellent = 90
	bandGood      = 70
	bandFair      = 50
	bandPoor      = 30
)

// Calculate computes the deterministic compliance score: start at 100,
// subtract the per-severity weight for every finding, clamp at 0.
func Calculate(findings []schema.Finding) schema.ComplianceScore {
	breakdown := map[schema.Severity]int{
		schema.SeverityCritical: 0,
		schema.SeverityMajor:    0,
		schema.SeverityMinor:    0,
	}

	total := 100
	for _, f := range findings {
		breakdown[f.Severity]++
		switch f.Severity {
		case schema.SeverityCritical:
			total -= weightCritical
		case schema.SeverityMajor:
			total -= weightMajor
		case schema.SeverityMinor:
			total -= weightMinor
		}
	}
	if total < 0 {
		total = 0
	}

	return schema.ComplianceScore{
		Score:     total,
		Level:     Level(total),
		Breakdown: breakdown,
	}
}

// Level maps a score to its compliance band.
func Level(score int) schema.ComplianceLevel {
	switch {
	case score >= bandExcellent:
		return schema.LevelExcellent
	case score >= bandGood:
		return schema.LevelGood
	case score >= bandFair:
		return schema.LevelFair
	case score >= bandPoor:
		return schema.LevelPoor
	default:
		return schema.LevelCritical
	}
}
