package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

func sampleResult() *schema.AnalysisResult {
	return &schema.AnalysisResult{
		ID:         "res-1",
		DocumentID: "doc-1",
		Findings: []schema.Finding{
			{
				Source:      schema.SourceRuleEngine,
				RuleRef:     "core-section-approvals",
				Title:       `Missing mandatory section: "Approvals"`,
				Description: `The document does not contain an "Approvals" section.`,
				Severity:    schema.SeverityCritical,
				Confidence:  1.0,
			},
			{
				Source:      schema.SourceAIAuditor,
				Title:       "Scope lacks exclusions",
				Description: "Out-of-scope systems are not listed.",
				Explanation: "Ambiguous scope weakens the SOP.",
				Severity:    schema.SeverityMinor,
				SectionRef:  &schema.SectionRef{Position: 1, Heading: "Scope"},
				Confidence:  0.8,
			},
		},
		Score: schema.ComplianceScore{
			Score: 83,
			Level: schema.LevelGood,
			Breakdown: map[schema.Severity]int{
				schema.SeverityCritical: 1,
				schema.SeverityMajor:    0,
				schema.SeverityMinor:    1,
			},
		},
		Degraded:    []schema.Degradation{{Component: "ai-auditor", Subject: "chunk-1 (sections 4–7)", Reason: "model call failed after 3 attempts"}},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewRenderer_UnknownFormat(t *testing.T) {
	if _, err := NewRenderer("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestJSONRenderer_RoundTrips(t *testing.T) {
	r, err := NewRenderer("json")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render(sampleResult())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var parsed schema.AnalysisResult
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Score.Score != 83 || len(parsed.Findings) != 2 {
		t.Errorf("round-trip lost data: %+v", parsed)
	}
}

func TestMarkdownRenderer_Content(t *testing.T) {
	r, err := NewRenderer("md")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render(sampleResult())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"83/100",
		"Good",
		"Missing mandatory section",
		"Scope lacks exclusions",
		"Partial analysis",
		"Degraded Checks",
		"model call failed after 3 attempts",
		"Section 1 (Scope)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownRenderer_CleanResult(t *testing.T) {
	result := &schema.AnalysisResult{
		ID:         "res-2",
		DocumentID: "doc-2",
		Score: schema.ComplianceScore{
			Score: 100,
			Level: schema.LevelExcellent,
			Breakdown: map[schema.Severity]int{
				schema.SeverityCritical: 0,
				schema.SeverityMajor:    0,
				schema.SeverityMinor:    0,
			},
		},
		GeneratedAt: time.Now().UTC(),
	}
	r, _ := NewRenderer("md")
	out, err := r.Render(result)
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)
	if !strings.Contains(md, "No compliance issues found") {
		t.Errorf("clean report missing all-clear line:\n%s", md)
	}
	if strings.Contains(md, "Partial analysis") {
		t.Error("clean report should not carry a partial notice")
	}
}
