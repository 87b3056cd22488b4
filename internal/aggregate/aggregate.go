// Package aggregate merges rule-engine and AI findings into one ordered,
// deduplicated list.
package aggregate

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// similarityCutoff is the lexical overlap ratio above which two findings
// addressing the same section are considered duplicates.
const similarityCutoff = 0.7

// Merge deduplicates and orders findings from both sources. On a duplicate
// the higher-confidence finding survives; on a confidence tie the
// rule-engine finding wins because the deterministic source outranks the
// probabilistic one. Non-duplicate findings that disagree on severity both
// stand — no automatic override. Merge is idempotent.
func Merge(ruleFindings, aiFindings []schema.Finding) []schema.Finding {
	var kept []schema.Finding

	consider := func(f schema.Finding) {
		for i, k := range kept {
			if !duplicates(k, f) {
				continue
			}
			if betterThan(f, k) {
				kept[i] = f
			}
			return
		}
		kept = append(kept, f)
	}

	for _, f := range ruleFindings {
		consider(f)
	}
	for _, f := range aiFindings {
		consider(f)
	}

	sortFindings(kept)
	return kept
}

// duplicates reports whether two findings describe the same issue: same
// section reference (or both unset) and lexically similar text.
func duplicates(a, b schema.Finding) bool {
	if !sameSection(a.SectionRef, b.SectionRef) {
		return false
	}
	return similarity(text(a), text(b)) >= similarityCutoff
}

func sameSection(a, b *schema.SectionRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Position == b.Position
}

func text(f schema.Finding) string {
	return strings.ToLower(f.Title + " " + f.Description)
}

// similarity computes the lexical overlap ratio of two strings: twice the
// length of their common text over their combined length, in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	return float64(2*common) / float64(len(a)+len(b))
}

// betterThan reports whether candidate should replace kept among
// duplicates: strictly higher confidence, or equal confidence with the
// deterministic source.
func betterThan(candidate, kept schema.Finding) bool {
	if candidate.Confidence != kept.Confidence {
		return candidate.Confidence > kept.Confidence
	}
	return candidate.Source == schema.SourceRuleEngine && kept.Source != schema.SourceRuleEngine
}

// sortFindings orders by severity (Critical first), then section position
// (document-level findings first), then source (rule-engine before
// ai-auditor), then title for full stability across runs.
func sortFindings(fs []schema.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if sa, sb := schema.SeverityOrdinal(a.Severity), schema.SeverityOrdinal(b.Severity); sa != sb {
			return sa > sb
		}
		if pa, pb := position(a), position(b); pa != pb {
			return pa < pb
		}
		if a.Source != b.Source {
			return a.Source == schema.SourceRuleEngine
		}
		return a.Title < b.Title
	})
}

func position(f schema.Finding) int {
	if f.SectionRef == nil {
		return -1
	}
	return f.SectionRef.Position
}
