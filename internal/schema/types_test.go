package schema

import "testing"

func TestSeverityOrdinal_Ordering(t *testing.T) {
	if SeverityOrdinal(SeverityCritical) <= SeverityOrdinal(SeverityMajor) {
		t.Error("Critical should outrank Major")
	}
	if SeverityOrdinal(SeverityMajor) <= SeverityOrdinal(SeverityMinor) {
		t.Error("Major should outrank Minor")
	}
}

func TestSeverityOrdinal_Unknown(t *testing.T) {
	if got := SeverityOrdinal(Severity("Blocker")); got != -1 {
		t.Errorf("SeverityOrdinal(Blocker) = %d, want -1", got)
	}
}

func TestIsValidSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityCritical, SeverityMajor, SeverityMinor} {
		if !IsValidSeverity(s) {
			t.Errorf("IsValidSeverity(%s) = false, want true", s)
		}
	}
	if IsValidSeverity(Severity("critical")) {
		t.Error("severity values are case-sensitive; lowercase should be invalid")
	}
	if IsValidSeverity(Severity("")) {
		t.Error("empty severity should be invalid")
	}
}

func TestFullText_IncludesHeadingsInOrder(t *testing.T) {
	doc := &Document{
		Sections: []Section{
			{Heading: "Purpose", Text: "Defines intent.", Position: 0},
			{Text: "Unheaded preamble.", Position: 1},
			{Heading: "Scope", Text: "Applies to all sites.", Position: 2},
		},
	}
	got := doc.FullText()
	want := "Purpose\nDefines intent.\nUnheaded preamble.\nScope\nApplies to all sites.\n"
	if got != want {
		t.Errorf("FullText = %q, want %q", got, want)
	}
}

func TestPartial(t *testing.T) {
	r := &AnalysisResult{}
	if r.Partial() {
		t.Error("result with no degradations should not be partial")
	}
	r.Degraded = append(r.Degraded, Degradation{Component: "ai-auditor", Subject: "chunk-0", Reason: "timeout"})
	if !r.Partial() {
		t.Error("result with a degradation should be partial")
	}
}
