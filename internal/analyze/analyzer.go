// Package analyze exposes the single public entry point that runs a full
// compliance analysis: deterministic rule evaluation and AI audit in
// parallel, then aggregation and scoring.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/aggregate"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/auditor"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/engine"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/score"
)

// Analyzer runs compliance analyses. The auditor is optional: without one
// (offline mode) analyses complete on rule-engine findings alone, with the
// forwarded rules recorded as degraded.
type Analyzer struct {
	auditor *auditor.Auditor
	logger  *slog.Logger
}

// New creates an Analyzer. aud and logger may be nil.
func New(aud *auditor.Auditor, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{auditor: aud, logger: logger}
}

// Analyze evaluates the document against the union of global and
// document-scoped rules and returns a scored result.
//
// Only input errors fail the call. Every other failure class — a broken
// rule, an unreachable model, malformed model output — degrades to a
// smaller but valid finding set, recorded in the result's Degraded list.
func (a *Analyzer) Analyze(ctx context.Context, doc *schema.Document, globalRules, documentRules []schema.Rule) (*schema.AnalysisResult, error) {
	ruleSet := append(append([]schema.Rule{}, globalRules...), documentRules...)
	if err := validateInput(doc, ruleSet); err != nil {
		return nil, err
	}

	// Rule classification is deterministic and cheap, so the forwarded
	// set is known up front and the engine and auditor share no data
	// dependency: both run concurrently.
	var forwarded []schema.Rule
	for _, r := range ruleSet {
		if rules.Classify(r).Class == rules.ClassModelEvaluated {
			forwarded = append(forwarded, r)
		}
	}

	started := time.Now()
	engineCh := make(chan engine.Result, 1)
	go func() {
		engineCh <- engine.Evaluate(doc, ruleSet)
	}()

	var auditRes auditor.Result
	if a.auditor != nil {
		auditRes = a.auditor.Audit(ctx, doc, forwarded)
	} else {
		for _, r := range forwarded {
			auditRes.Degraded = append(auditRes.Degraded, schema.Degradation{
				Component: string(schema.SourceAIAuditor),
				Subject:   r.ID,
				Reason:    "no model configured; rule requires model evaluation",
			})
		}
	}

	// Synchronization barrier: aggregation only runs once both sources
	// (or their degraded placeholders) have resolved.
	engineRes := <-engineCh

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings := aggregate.Merge(engineRes.Findings, auditRes.Findings)
	result := &schema.AnalysisResult{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		Findings:    findings,
		Score:       score.Calculate(findings),
		Degraded:    append(engineRes.Degraded, auditRes.Degraded...),
		GeneratedAt: time.Now().UTC(),
	}

	a.logger.Info("analysis complete",
		"document", doc.ID,
		"findings", len(findings),
		"score", result.Score.Score,
		"level", result.Score.Level,
		"degraded", len(result.Degraded),
		"duration", time.Since(started).Round(time.Millisecond),
	)
	return result, nil
}

// validateInput rejects malformed documents and rules before any
// evaluation or network work begins.
func validateInput(doc *schema.Document, ruleSet []schema.Rule) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", schema.ErrInvalidInput)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: document has no ID", schema.ErrInvalidInput)
	}
	if len(doc.Sections) == 0 {
		return fmt.Errorf("%w: document %q has no sections", schema.ErrInvalidInput, doc.Filename)
	}
	for i, r := range ruleSet {
		if r.ID == "" {
			return fmt.Errorf("%w: rule[%d] has no ID", schema.ErrInvalidInput, i)
		}
		if r.Text == "" {
			return fmt.Errorf("%w: rule %s has no text", schema.ErrInvalidInput, r.ID)
		}
		if !schema.IsValidSeverity(r.Severity) {
			return fmt.Errorf("%w: rule %s has invalid severity %q", schema.ErrInvalidInput, r.ID, r.Severity)
		}
		if r.Scope == schema.ScopeDocument && r.DocumentID == "" {
			return fmt.Errorf("%w: rule %s is document-scoped but has no document_id", schema.ErrInvalidInput, r.ID)
		}
	}
	return nil
}
