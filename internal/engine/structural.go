package engine

import (
	"fmt"
	"strings"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// checkPresence verifies that a section with the given heading exists.
// Headings match case-insensitively in either containment direction, so
// "Scope" matches a section headed "2. Scope and Applicability".
func checkPresence(doc *schema.Document, r schema.Rule, heading string) []schema.Finding {
	if findSection(doc, heading) >= 0 {
		return nil
	}
	return []schema.Finding{{
		Source:      schema.SourceRuleEngine,
		RuleRef:     r.ID,
		Title:       fmt.Sprintf("Missing mandatory section: %q", heading),
		Description: fmt.Sprintf("The document does not contain a %q section.", heading),
		Explanation: r.Text,
		Severity:    r.Severity,
		Confidence:  1.0,
	}}
}

// checkOrdering verifies that the sections which are present appear in the
// required relative order. Absent sections are the presence checks'
// business; ordering only compares what exists.
func checkOrdering(doc *schema.Document, r schema.Rule, ordered []string) []schema.Finding {
	var findings []schema.Finding
	lastPos := -1
	lastHeading := ""
	for _, h := range ordered {
		pos := findSection(doc, h)
		if pos < 0 {
			continue
		}
		if pos < lastPos {
			findings = append(findings, schema.Finding{
				Source:      schema.SourceRuleEngine,
				RuleRef:     r.ID,
				Title:       fmt.Sprintf("Section %q out of order", h),
				Description: fmt.Sprintf("Section %q (position %d) must appear after %q (position %d).", h, pos, lastHeading, lastPos),
				Explanation: r.Text,
				Severity:    r.Severity,
				SectionRef:  &schema.SectionRef{Position: pos, Heading: doc.Sections[pos].Heading},
				Confidence:  1.0,
			})
			continue
		}
		lastPos, lastHeading = pos, h
	}
	return findings
}

// findSection returns the position of the first section whose heading
// matches the keyword, or -1.
func findSection(doc *schema.Document, keyword string) int {
	want := strings.ToLower(strings.TrimSpace(keyword))
	for _, s := range doc.Sections {
		got := strings.ToLower(strings.TrimSpace(s.Heading))
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return s.Position
		}
	}
	return -1
}
