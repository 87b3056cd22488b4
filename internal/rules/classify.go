package rules

import (
	"regexp"
	"strings"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// Class is the evaluation strategy selected for a rule. Natural-language
// rule text is never interpreted as executable logic; classification picks
// one of three fixed variants.
type Class int

const (
	// ClassStructural checks section presence or ordering.
	ClassStructural Class = iota
	// ClassLexical checks phrase presence or absence in section text.
	ClassLexical
	// ClassModelEvaluated rules cannot be reduced to a deterministic
	// check and are forwarded to the AI auditor as rule prompts.
	ClassModelEvaluated
)

// Check is the deterministic condition derived from a rule's text.
type Check struct {
	Class Class

	// Heading is the required section heading for structural presence
	// checks.
	Heading string
	// Ordered lists headings that must appear in this relative order;
	// set only for structural ordering checks.
	Ordered []string

	// Phrases are the words or phrases a lexical check looks for.
	Phrases []string
	// Negated inverts a lexical check: the phrases must NOT appear.
	Negated bool
}

var quotedPhrase = regexp.MustCompile(`['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)

var negationCues = regexp.MustCompile(`(?i)\b(must not|should not|shall not|may not|cannot|never|without|prohibited|forbidden|avoid|not contain|no longer)\b`)

var orderingCues = regexp.MustCompile(`(?i)\b(in (?:this|the following) order|appear before|precede|followed by)\b`)

// Classify derives the evaluation strategy for a rule. The derivation is a
// fixed lexical heuristic over the rule text, so the same rule always
// classifies the same way.
func Classify(r schema.Rule) Check {
	switch r.Kind {
	case schema.KindStructural:
		return classifyStructural(r.Text)
	case schema.KindPattern:
		return classifyLexical(r.Text)
	default:
		return classifyCustom(r.Text)
	}
}

func classifyStructural(text string) Check {
	phrases := extractQuoted(text)
	if orderingCues.MatchString(text) && len(phrases) >= 2 {
		return Check{Class: ClassStructural, Ordered: phrases}
	}
	if len(phrases) > 0 {
		return Check{Class: ClassStructural, Heading: phrases[0]}
	}
	// A structural rule with no extractable section name cannot be
	// checked deterministically; hand it to the auditor.
	return Check{Class: ClassModelEvaluated}
}

func classifyLexical(text string) Check {
	phrases := extractQuoted(text)
	if len(phrases) == 0 {
		return Check{Class: ClassModelEvaluated}
	}
	return Check{
		Class:   ClassLexical,
		Phrases: phrases,
		Negated: negationCues.MatchString(text),
	}
}

// classifyCustom tries to reduce user-authored rule text to a lexical
// check. Rules that quote concrete phrases become lexical; everything else
// is model-evaluated. Customs are never dropped.
func classifyCustom(text string) Check {
	phrases := extractQuoted(text)
	if len(phrases) == 0 {
		return Check{Class: ClassModelEvaluated}
	}

	// Ordering language beats presence language when both appear.
	if orderingCues.MatchString(text) && len(phrases) >= 2 {
		return Check{Class: ClassStructural, Ordered: phrases}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "section") && len(phrases) == 1 {
		return Check{Class: ClassStructural, Heading: phrases[0]}
	}

	return Check{
		Class:   ClassLexical,
		Phrases: phrases,
		Negated: negationCues.MatchString(text),
	}
}

func extractQuoted(text string) []string {
	matches := quotedPhrase.FindAllStringSubmatch(text, -1)
	phrases := make([]string, 0, len(matches))
	for _, m := range matches {
		p := strings.TrimSpace(m[1])
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}
