package score

import (
	"testing"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

func makeFindings(severities ...schema.Severity) []schema.Finding {
	fs := make([]schema.Finding, len(severities))
	for i, s := range severities {
		fs[i] = schema.Finding{Severity: s}
	}
	return fs
}

func TestCalculate_NoFindings(t *testing.T) {
	got := Calculate(nil)
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if got.Level != schema.LevelExcellent {
		t.Errorf("Level = %s, want Excellent", got.Level)
	}
}

func TestCalculate_OneCritical(t *testing.T) {
	got := Calculate(makeFindings(schema.SeverityCritical))
	if got.Score != 85 {
		t.Errorf("Score = %d, want 85", got.Score)
	}
	if got.Level != schema.LevelGood {
		t.Errorf("Level = %s, want Good", got.Level)
	}
}

func TestCalculate_Mixed(t *testing.T) {
	// 100 - 15 - 2*7 - 3*2 = 65
	got := Calculate(makeFindings(
		schema.SeverityCritical,
		schema.SeverityMajor, schema.SeverityMajor,
		schema.SeverityMinor, schema.SeverityMinor, schema.SeverityMinor,
	))
	if got.Score != 65 {
		t.Errorf("Score = %d, want 65", got.Score)
	}
	if got.Level != schema.LevelFair {
		t.Errorf("Level = %s, want Fair", got.Level)
	}
}

func TestCalculate_ClampsAtZero(t *testing.T) {
	// 8 Critical = -120, clamped to 0.
	got := Calculate(makeFindings(
		schema.SeverityCritical, schema.SeverityCritical, schema.SeverityCritical,
		schema.SeverityCritical, schema.SeverityCritical, schema.SeverityCritical,
		schema.SeverityCritical, schema.SeverityCritical,
	))
	if got.Score != 0 {
		t.Errorf("Score = %d, want 0 (clamped)", got.Score)
	}
	if got.Level != schema.LevelCritical {
		t.Errorf("Level = %s, want Critical", got.Level)
	}
}

func TestCalculate_BreakdownAlwaysCarriesAllSeverities(t *testing.T) {
	got := Calculate(makeFindings(schema.SeverityMajor))
	for _, s := range []schema.Severity{schema.SeverityCritical, schema.SeverityMajor, schema.SeverityMinor} {
		if _, ok := got.Breakdown[s]; !ok {
			t.Errorf("breakdown missing %s entry", s)
		}
	}
	if got.Breakdown[schema.SeverityMajor] != 1 {
		t.Errorf("Major count = %d, want 1", got.Breakdown[schema.SeverityMajor])
	}
	if got.Breakdown[schema.SeverityCritical] != 0 {
		t.Errorf("Critical count = %d, want 0", got.Breakdown[schema.SeverityCritical])
	}
}

func TestLevel_BandEdges(t *testing.T) {
	tests := []struct {
		score int
		want  schema.ComplianceLevel
	}{
		{100, schema.LevelExcellent},
		{90, schema.LevelExcellent},
		{89, schema.LevelGood},
		{70, schema.LevelGood},
		{69, schema.LevelFair},
		{50, schema.LevelFair},
		{49, schema.LevelPoor},
		{30, schema.LevelPoor},
		{29, schema.LevelCritical},
		{0, schema.LevelCritical},
	}
	for _, tt := range tests {
		if got := Level(tt.score); got != tt.want {
			t.Errorf("Level(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCalculate_MoreFindingsNeverRaiseScore(t *testing.T) {
	base := Calculate(makeFindings(schema.SeverityMajor)).Score
	more := Calculate(makeFindings(schema.SeverityMajor, schema.SeverityMinor)).Score
	if more > base {
		t.Errorf("adding a finding raised the score: %d -> %d", base, more)
	}
}
