// Package auditor orchestrates AI-assisted compliance audits: it chunks
// documents to fit the model's context budget, grounds prompts with
// retrieved reference passages, invokes the model, and parses structured
// findings out of its responses.
package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/llm"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/retrieval"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema/validate"
)

const (
	defaultChunkBudget   = 12000 // characters per chunk
	defaultChunkOverlap  = 1     // sections repeated across a boundary
	defaultTopK          = 3
	defaultPassageBudget = 2000 // characters of reference text per prompt
	defaultMaxAttempts   = 3    // transport attempts per model call
	defaultCallTimeout   = 90 * time.Second
	defaultConcurrency   = 4

	// aiConfidence is assigned to model findings; deterministic findings
	// are always 1.0, so ties in deduplication resolve toward the engine.
	aiConfidence = 0.8
)

// Config tunes the auditor. Zero values select the defaults above.
type Config struct {
	ChunkBudget   int
	ChunkOverlap  int
	TopK          int
	PassageBudget int
	MaxAttempts   int
	CallTimeout   time.Duration
	Concurrency   int
	Temperature   float64
	MaxTokens     int
	// RequestsPerSecond bounds the model call rate across chunks to
	// respect provider rate limits. Zero means no limit.
	RequestsPerSecond float64
}

func (c Config) withDefaults() Config {
	if c.ChunkBudget <= 0 {
		c.ChunkBudget = defaultChunkBudget
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = defaultChunkOverlap
	}
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	if c.PassageBudget <= 0 {
		c.PassageBudget = defaultPassageBudget
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}

// Auditor runs model-backed audits. The retriever is optional: with a nil
// retriever prompts simply go out ungrounded.
type Auditor struct {
	provider  llm.Provider
	retriever retrieval.Retriever
	limiter   *rate.Limiter
	logger    *slog.Logger
	cfg       Config
}

// New creates an Auditor. provider is required; retriever and logger may
// be nil.
func New(provider llm.Provider, retriever retrieval.Retriever, logger *slog.Logger, cfg Config) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Auditor{
		provider:  provider,
		retriever: retriever,
		limiter:   limiter,
		logger:    logger,
		cfg:       cfg,
	}
}

// Result carries one audit's findings and any per-chunk degradations.
type Result struct {
	Findings []schema.Finding
	Degraded []schema.Degradation
}

// Audit runs the model over every chunk of the document. rulePrompts are
// the requirements the deterministic engine forwarded. Chunk pipelines run
// concurrently up to the configured limit; a chunk that fails after all
// retries contributes nothing except a degradation record. Audit never
// returns an error: the worst case is an empty, fully degraded result.
func (a *Auditor) Audit(ctx context.Context, doc *schema.Document, rulePrompts []schema.Rule) Result {
	chunks := chunkDocument(doc, a.cfg.ChunkBudget, a.cfg.ChunkOverlap)
	a.logger.Info("starting audit",
		"document", doc.ID,
		"chunks", len(chunks),
		"rule_prompts", len(rulePrompts),
	)

	type chunkOutcome struct {
		findings []schema.Finding
		degraded *schema.Degradation
	}
	outcomes := make([]chunkOutcome, len(chunks))

	sem := make(chan struct{}, a.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk Chunk) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i].degraded = a.degradation(chunk, ctx.Err())
				return
			}
			findings, err := a.auditChunk(ctx, doc, chunk, rulePrompts)
			if err != nil {
				outcomes[i].degraded = a.degradation(chunk, err)
				return
			}
			outcomes[i].findings = findings
		}(i, chunk)
	}
	wg.Wait()

	// Concatenate in chunk order; no cross-chunk reduce step is needed
	// because findings are section-addressable.
	var res Result
	for _, o := range outcomes {
		res.Findings = append(res.Findings, o.findings...)
		if o.degraded != nil {
			res.Degraded = append(res.Degraded, *o.degraded)
		}
	}
	return res
}

func (a *Auditor) degradation(chunk Chunk, err error) *schema.Degradation {
	a.logger.Warn("chunk audit degraded", "chunk", chunk.Label(), "error", err)
	return &schema.Degradation{
		Component: string(schema.SourceAIAuditor),
		Subject:   chunk.Label(),
		Reason:    err.Error(),
	}
}

// auditChunk runs the retrieve → prompt → invoke → parse pipeline for one
// chunk. Retrieval failure is non-fatal; the chunk is audited ungrounded.
func (a *Auditor) auditChunk(ctx context.Context, doc *schema.Document, chunk Chunk, rulePrompts []schema.Rule) ([]schema.Finding, error) {
	var passages []retrieval.Passage
	if a.retriever != nil {
		var err error
		passages, err = a.retriever.Retrieve(ctx, retrievalQuery(chunk), a.cfg.TopK)
		if err != nil {
			a.logger.Warn("retrieval failed, auditing without grounding",
				"chunk", chunk.Label(), "error", err)
			passages = nil
		}
	}

	req := &llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(chunk, rulePrompts, passages, a.cfg.PassageBudget),
		Temperature:  a.cfg.Temperature,
		MaxTokens:    a.cfg.MaxTokens,
	}

	raw, err := a.completeWithBackoff(ctx, req)
	if err != nil {
		return nil, err
	}

	modelFindings, parseErr := validate.Parse(raw, len(doc.Sections))
	if parseErr != nil {
		// Exactly one repair retry with a stricter instruction. The error
		// category is sanitized so nothing the model wrote is echoed back.
		repair := *req
		repair.UserPrompt = req.UserPrompt + fmt.Sprintf(
			"\n\nYour previous response failed schema validation (error category: %q). Return only a valid JSON array matching the schema above.",
			validate.SanitizeErrForPrompt(parseErr),
		)
		raw, err = a.completeWithBackoff(ctx, &repair)
		if err != nil {
			return nil, err
		}
		modelFindings, parseErr = validate.Parse(raw, len(doc.Sections))
		if parseErr != nil {
			return nil, fmt.Errorf("invalid model output after repair retry: %w", parseErr)
		}
	}

	return a.convert(doc, rulePrompts, modelFindings), nil
}

// completeWithBackoff calls the model with a per-call timeout, retrying
// transient transport errors with exponential backoff up to the attempt cap.
func (a *Auditor) completeWithBackoff(ctx context.Context, req *llm.Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if attempt > 0 {
			backoff := time.Second << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
		resp, err := a.provider.Complete(callCtx, req)
		cancel()
		if err == nil {
			return resp.Content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !llm.IsRetryable(err) {
			return "", err
		}
		a.logger.Warn("model call failed, retrying", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", a.cfg.MaxAttempts, lastErr)
}

// convert maps parsed model findings onto the domain type, normalizing
// severity and resolving section and rule references against the document
// and the forwarded rule prompts. A rule_ref naming a rule that was never
// forwarded is discarded.
func (a *Auditor) convert(doc *schema.Document, rulePrompts []schema.Rule, modelFindings []validate.ModelFinding) []schema.Finding {
	forwarded := make(map[string]bool, len(rulePrompts))
	for _, r := range rulePrompts {
		forwarded[r.ID] = true
	}

	findings := make([]schema.Finding, 0, len(modelFindings))
	for _, mf := range modelFindings {
		severity, flagged := normalizeSeverity(mf.Severity)
		f := schema.Finding{
			Source:      schema.SourceAIAuditor,
			Title:       mf.Title,
			Description: mf.Description,
			Explanation: mf.Explanation,
			Severity:    severity,
			Confidence:  aiConfidence,
		}
		if forwarded[mf.RuleRef] {
			f.RuleRef = mf.RuleRef
		}
		if flagged {
			f.Explanation = strings.TrimSpace(f.Explanation +
				fmt.Sprintf(" [severity %q not recognised; defaulted to Minor]", mf.Severity))
		}
		if mf.Section != nil && mf.Section.Position >= 0 && mf.Section.Position < len(doc.Sections) {
			f.SectionRef = &schema.SectionRef{
				Position: mf.Section.Position,
				Heading:  doc.Sections[mf.Section.Position].Heading,
			}
		}
		findings = append(findings, f)
	}
	return findings
}

// normalizeSeverity maps an arbitrary severity string onto the fixed
// three-value set. Unknown values default to Minor and are flagged.
func normalizeSeverity(raw string) (schema.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "high", "blocker":
		return schema.SeverityCritical, false
	case "major", "medium", "moderate":
		return schema.SeverityMajor, false
	case "minor", "low", "info", "informational":
		return schema.SeverityMinor, false
	default:
		return schema.SeverityMinor, true
	}
}
