package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// checkLexical evaluates a phrase presence/absence condition against every
// section. Negated checks flag each section where a banned phrase appears;
// positive checks flag each required phrase missing from the whole document.
func checkLexical(doc *schema.Document, r schema.Rule, check rules.Check) []schema.Finding {
	if check.Negated {
		return checkBannedPhrases(doc, r, check.Phrases)
	}
	return checkRequiredPhrases(doc, r, check.Phrases)
}

func checkBannedPhrases(doc *schema.Document, r schema.Rule, phrases []string) []schema.Finding {
	var findings []schema.Finding
	for _, phrase := range phrases {
		re := phrasePattern(phrase)
		for _, s := range doc.Sections {
			text := s.Heading + "\n" + s.Text
			loc := re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			findings = append(findings, schema.Finding{
				Source:      schema.SourceRuleEngine,
				RuleRef:     r.ID,
				Title:       fmt.Sprintf("Prohibited text %q found", phrase),
				Description: fmt.Sprintf("Section %d contains %q: ...%s...", s.Position, phrase, surrounding(text, loc[0], loc[1])),
				Explanation: r.Text,
				Severity:    r.Severity,
				SectionRef:  &schema.SectionRef{Position: s.Position, Heading: s.Heading},
				Confidence:  1.0,
			})
		}
	}
	return findings
}

func checkRequiredPhrases(doc *schema.Document, r schema.Rule, phrases []string) []schema.Finding {
	full := doc.FullText()
	var findings []schema.Finding
	for _, phrase := range phrases {
		if phrasePattern(phrase).MatchString(full) {
			continue
		}
		findings = append(findings, schema.Finding{
			Source:      schema.SourceRuleEngine,
			RuleRef:     r.ID,
			Title:       fmt.Sprintf("Required text %q not found", phrase),
			Description: fmt.Sprintf("The document does not mention %q anywhere.", phrase),
			Explanation: r.Text,
			Severity:    r.Severity,
			Confidence:  1.0,
		})
	}
	return findings
}

// phrasePattern compiles a case-insensitive, word-boundary-aware matcher
// for a literal phrase.
func phrasePattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// surrounding extracts up to contextRunes characters around a match for
// inclusion in the finding description.
const contextRunes = 50

func surrounding(text string, start, end int) string {
	from := start - contextRunes
	if from < 0 {
		from = 0
	}
	to := end + contextRunes
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(strings.ReplaceAll(text[from:to], "\n", " "))
}
