package auditor

import (
	"fmt"
	"strings"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/retrieval"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

const systemPrompt = `You are an expert GxP compliance auditor for pharmaceutical and medical device documentation. Your job is to identify compliance findings in the document excerpt you are given.

Severity rules:
- Critical: missing mandatory sections, missing approvals, major regulatory non-compliance
- Major: inadequate content, missing metadata, poor procedure clarity, custom rule violations
- Minor: formatting issues, small omissions that do not significantly affect compliance

Anti-hallucination rules:
- Only cite sections that exist in the provided excerpt (sections are prefixed S0:, S3:, etc. — the number is the section's position in the document)
- Do not invent requirements beyond the rules you are given and baseline GxP practice
- Every finding that concerns a specific passage must carry the section it occurs in

Output rules:
- Return a JSON array only — no prose, no markdown fences, no explanation
- Each element must match the provided schema exactly
- If the excerpt is fully compliant, return []
- Do not compute scores — scoring happens externally`

const schemaExample = `[
  {
    "title": "Short title describing the issue",
    "description": "What is wrong in the document",
    "explanation": "Why this matters for GxP compliance",
    "severity": "Critical",
    "rule_ref": "the requirement id this finding answers, omit otherwise",
    "section": {"position": 3, "heading": "Revision History"}
  }
]`

// buildUserPrompt assembles the per-chunk request: the section excerpt,
// the rule requirements the deterministic engine could not resolve, and
// any retrieved reference passages trimmed to the character budget.
func buildUserPrompt(chunk Chunk, rulePrompts []schema.Rule, passages []retrieval.Passage, passageBudget int) string {
	var sb strings.Builder

	sb.WriteString("Audit the following document excerpt for compliance findings.\n\n")

	sb.WriteString("<document>\n")
	for _, s := range chunk.Sections {
		if s.Heading != "" {
			fmt.Fprintf(&sb, "S%d: ## %s\n", s.Position, s.Heading)
		} else {
			fmt.Fprintf(&sb, "S%d:\n", s.Position)
		}
		sb.WriteString(s.Text)
		if !strings.HasSuffix(s.Text, "\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("</document>\n")

	if len(rulePrompts) > 0 {
		sb.WriteString("\nCheck these requirements in addition to baseline GxP practice:\n")
		for i, r := range rulePrompts {
			fmt.Fprintf(&sb, "%d. [%s] (id: %s) %s\n", i+1, r.Severity, r.ID, r.Text)
		}
		sb.WriteString("When a finding answers one of these requirements, set its \"rule_ref\" field to that requirement's id.\n")
	}

	if ref := formatPassages(passages, passageBudget); ref != "" {
		sb.WriteString("\n")
		sb.WriteString(ref)
	}

	sb.WriteString("\nReturn your findings as a JSON array with this structure:\n")
	sb.WriteString(schemaExample)

	return sb.String()
}

// formatPassages wraps retrieved passages in reference tags, stopping once
// the character budget is spent. Passages arrive ordered by similarity, so
// truncation drops the least relevant first.
func formatPassages(passages []retrieval.Passage, budget int) string {
	if len(passages) == 0 || budget <= 0 {
		return ""
	}
	var sb strings.Builder
	used := 0
	for i, p := range passages {
		if used+len(p.Text) > budget {
			break
		}
		fmt.Fprintf(&sb, "<reference index=%q similarity=%.2f>\n", fmt.Sprint(i+1), p.Similarity)
		sb.WriteString(p.Text)
		if !strings.HasSuffix(p.Text, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("</reference>\n")
		used += len(p.Text)
	}
	if sb.Len() == 0 {
		return ""
	}
	return "Relevant regulatory reference material:\n" + sb.String()
}

// retrievalQuery derives the knowledge-base query for a chunk from its
// headings, falling back to the start of its text.
func retrievalQuery(chunk Chunk) string {
	var headings []string
	for _, s := range chunk.Sections {
		if s.Heading != "" {
			headings = append(headings, s.Heading)
		}
	}
	if len(headings) > 0 {
		return "GxP compliance requirements for " + strings.Join(headings, ", ")
	}
	for _, s := range chunk.Sections {
		if t := strings.TrimSpace(s.Text); t != "" {
			if len(t) > 200 {
				t = t[:200]
			}
			return t
		}
	}
	return ""
}
