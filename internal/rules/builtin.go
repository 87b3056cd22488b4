package rules

import (
	"fmt"
	"time"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// MandatorySections are the headings every GxP document must carry, in
// their canonical order.
var MandatorySections = []string{
	"Purpose",
	"Scope",
	"Responsibilities",
	"Revision History",
	"Approvals",
}

// placeholderPhrases mark incomplete content. Matched case-insensitively
// on word boundaries.
var placeholderPhrases = []string{
	"TBD",
	"TODO",
	"FIXME",
	"lorem ipsum",
	"to be decided",
	"placeholder",
	"insert text here",
	"add content",
	"fill in",
	"replace this",
}

// builtinCreatedAt pins the built-in rules to a fixed timestamp so repeated
// analyses see byte-identical rule sets.
var builtinCreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Builtin returns the non-negotiable baseline rule set: one structural
// presence rule per mandatory section, one structural ordering rule, and
// one pattern rule banning placeholder text. IDs are stable across runs.
func Builtin() []schema.Rule {
	rs := make([]schema.Rule, 0, len(MandatorySections)+2)

	for _, section := range MandatorySections {
		rs = append(rs, schema.Rule{
			ID:        fmt.Sprintf("core-section-%s", slug(section)),
			Scope:     schema.ScopeGlobal,
			Text:      fmt.Sprintf("The document must include a %q section.", section),
			Kind:      schema.KindStructural,
			Severity:  schema.SeverityCritical,
			CreatedAt: builtinCreatedAt,
		})
	}

	rs = append(rs, schema.Rule{
		ID:    "core-section-order",
		Scope: schema.ScopeGlobal,
		Text: fmt.Sprintf("Sections must appear in the following order: %q, %q, %q, %q, %q.",
			MandatorySections[0], MandatorySections[1], MandatorySections[2],
			MandatorySections[3], MandatorySections[4]),
		Kind:      schema.KindStructural,
		Severity:  schema.SeverityMajor,
		CreatedAt: builtinCreatedAt,
	})

	rs = append(rs, schema.Rule{
		ID:        "core-no-placeholders",
		Scope:     schema.ScopeGlobal,
		Text:      "The document must not contain placeholder text such as " + quoteList(placeholderPhrases) + ".",
		Kind:      schema.KindPattern,
		Severity:  schema.SeverityMajor,
		CreatedAt: builtinCreatedAt,
	})

	return rs
}

func slug(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c == ' ':
			out = append(out, '-')
		}
	}
	return string(out)
}

func quoteList(phrases []string) string {
	var b []byte
	for i, p := range phrases {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '\'')
		b = append(b, p...)
		b = append(b, '\'')
	}
	return string(b)
}
