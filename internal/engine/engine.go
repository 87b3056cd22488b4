// Package engine evaluates deterministic rules against parsed documents.
// It never calls the network and always returns the same finding set for
// the same (document, rules) pair.
package engine

import (
	"fmt"
	"sort"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// Result holds everything one engine pass produces.
type Result struct {
	Findings []schema.Finding
	// Forwarded are the rules classified as model-evaluated; the auditor
	// turns them into rule prompts. They are never silently dropped.
	Forwarded []schema.Rule
	// Degraded records rules whose evaluation failed. A failed rule never
	// aborts evaluation of the others.
	Degraded []schema.Degradation
}

// Evaluate runs every rule against the document. Rules are evaluated in
// ID order so the output sequence is stable regardless of how the caller
// assembled the rule set.
func Evaluate(doc *schema.Document, ruleSet []schema.Rule) Result {
	ordered := make([]schema.Rule, len(ruleSet))
	copy(ordered, ruleSet)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var res Result
	for _, r := range ordered {
		findings, forward, err := evaluateOne(doc, r)
		if err != nil {
			res.Degraded = append(res.Degraded, schema.Degradation{
				Component: string(schema.SourceRuleEngine),
				Subject:   r.ID,
				Reason:    err.Error(),
			})
			continue
		}
		if forward {
			res.Forwarded = append(res.Forwarded, r)
			continue
		}
		res.Findings = append(res.Findings, findings...)
	}
	return res
}

// evaluateOne evaluates a single rule in isolation. A panic inside a check
// is converted to an error so one malformed rule cannot take down the pass.
func evaluateOne(doc *schema.Document, r schema.Rule) (findings []schema.Finding, forward bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			findings, forward = nil, false
			err = fmt.Errorf("rule evaluation panicked: %v", p)
		}
	}()

	check := rules.Classify(r)
	switch check.Class {
	case rules.ClassStructural:
		if len(check.Ordered) > 0 {
			return checkOrdering(doc, r, check.Ordered), false, nil
		}
		return checkPresence(doc, r, check.Heading), false, nil
	case rules.ClassLexical:
		return checkLexical(doc, r, check), false, nil
	default:
		return nil, true, nil
	}
}
