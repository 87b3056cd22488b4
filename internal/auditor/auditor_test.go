package auditor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/llm"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/retrieval"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// fakeProvider replays scripted responses in call order.
type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (p *fakeProvider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.UserPrompt)
	i := len(p.prompts) - 1
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	resp := "[]"
	if i < len(p.responses) {
		resp = p.responses[i]
	}
	return &llm.Response{Content: resp, Model: "fake:model"}, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func testDoc() *schema.Document {
	return &schema.Document{
		ID:       "doc-1",
		Filename: "sop.md",
		Type:     schema.DocTypeMarkdown,
		Sections: []schema.Section{
			{Heading: "Purpose", Text: "Defines intent.", Position: 0},
			{Heading: "Scope", Text: "All sites.", Position: 1},
		},
	}
}

const oneFinding = `[{"title": "Scope lacks exclusions", "description": "The Scope section does not state what is out of scope.", "explanation": "Ambiguous scope weakens the SOP.", "severity": "Major", "section": {"position": 1, "heading": "Scope"}}]`

func newTestAuditor(p llm.Provider, r retrieval.Retriever) *Auditor {
	return New(p, r, nil, Config{CallTimeout: 5 * time.Second})
}

func TestAudit_ParsesFindings(t *testing.T) {
	p := &fakeProvider{responses: []string{oneFinding}}
	res := newTestAuditor(p, nil).Audit(context.Background(), testDoc(), nil)

	if len(res.Degraded) != 0 {
		t.Fatalf("unexpected degradations: %+v", res.Degraded)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(res.Findings))
	}
	f := res.Findings[0]
	if f.Source != schema.SourceAIAuditor {
		t.Errorf("source = %s", f.Source)
	}
	if f.Confidence != aiConfidence {
		t.Errorf("confidence = %v, want %v", f.Confidence, aiConfidence)
	}
	if f.SectionRef == nil || f.SectionRef.Position != 1 || f.SectionRef.Heading != "Scope" {
		t.Errorf("section ref = %+v", f.SectionRef)
	}
}

func TestAudit_RepairRetryRecovers(t *testing.T) {
	p := &fakeProvider{responses: []string{"this is not JSON", oneFinding}}
	res := newTestAuditor(p, nil).Audit(context.Background(), testDoc(), nil)

	if len(res.Findings) != 1 || len(res.Degraded) != 0 {
		t.Fatalf("findings=%d degraded=%d, want 1/0", len(res.Findings), len(res.Degraded))
	}
	if p.calls() != 2 {
		t.Errorf("calls = %d, want 2", p.calls())
	}
	if !strings.Contains(p.prompts[1], "error category") {
		t.Error("repair prompt should name the sanitized error category")
	}
	if strings.Contains(p.prompts[1], "this is not JSON") {
		t.Error("repair prompt must not echo the model's previous output")
	}
}

func TestAudit_SecondFailureDegradesWithoutError(t *testing.T) {
	p := &fakeProvider{responses: []string{"garbage", "still garbage"}}
	res := newTestAuditor(p, nil).Audit(context.Background(), testDoc(), nil)

	if len(res.Findings) != 0 {
		t.Errorf("findings = %+v, want none", res.Findings)
	}
	if len(res.Degraded) != 1 {
		t.Fatalf("degraded = %+v, want 1 entry", res.Degraded)
	}
	d := res.Degraded[0]
	if d.Component != string(schema.SourceAIAuditor) {
		t.Errorf("component = %q", d.Component)
	}
	if !strings.Contains(d.Subject, "chunk-0") {
		t.Errorf("subject = %q, want chunk label", d.Subject)
	}
	if p.calls() != 2 {
		t.Errorf("calls = %d, want exactly one repair retry", p.calls())
	}
}

func TestAudit_RetryableErrorBacksOffAndRecovers(t *testing.T) {
	rateLimited := &llm.APIError{Provider: "fake", StatusCode: http.StatusTooManyRequests, Message: "slow down"}
	p := &fakeProvider{
		errs:      []error{rateLimited, nil},
		responses: []string{"", oneFinding},
	}
	aud := New(p, nil, nil, Config{MaxAttempts: 2, CallTimeout: 5 * time.Second})

	start := time.Now()
	res := aud.Audit(context.Background(), testDoc(), nil)
	elapsed := time.Since(start)

	if len(res.Findings) != 1 || len(res.Degraded) != 0 {
		t.Fatalf("findings=%d degraded=%d, want 1/0", len(res.Findings), len(res.Degraded))
	}
	if elapsed < time.Second {
		t.Errorf("no backoff observed before retry (elapsed %v)", elapsed)
	}
}

func TestAudit_NonRetryableErrorFailsFast(t *testing.T) {
	badRequest := &llm.APIError{Provider: "fake", StatusCode: http.StatusBadRequest, Message: "bad request"}
	p := &fakeProvider{errs: []error{badRequest}}
	res := newTestAuditor(p, nil).Audit(context.Background(), testDoc(), nil)

	if len(res.Degraded) != 1 {
		t.Fatalf("degraded = %+v, want 1", res.Degraded)
	}
	if p.calls() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 400)", p.calls())
	}
}

func TestAudit_ExhaustedRetriesDegrade(t *testing.T) {
	overloaded := &llm.APIError{Provider: "fake", StatusCode: http.StatusServiceUnavailable, Message: "overloaded"}
	p := &fakeProvider{errs: []error{overloaded, overloaded}}
	aud := New(p, nil, nil, Config{MaxAttempts: 2, CallTimeout: 5 * time.Second})

	res := aud.Audit(context.Background(), testDoc(), nil)
	if len(res.Degraded) != 1 {
		t.Fatalf("degraded = %+v, want 1", res.Degraded)
	}
	if !strings.Contains(res.Degraded[0].Reason, "after 2 attempts") {
		t.Errorf("reason = %q, want attempt cap mentioned", res.Degraded[0].Reason)
	}
}

func TestAudit_SeverityNormalization(t *testing.T) {
	raw := `[
		{"title": "a", "description": "d1", "severity": "high"},
		{"title": "b", "description": "d2", "severity": "LOW"},
		{"title": "c", "description": "d3", "severity": "catastrophic"}
	]`
	p := &fakeProvider{responses: []string{raw}}
	res := newTestAuditor(p, nil).Audit(context.Background(), testDoc(), nil)

	if len(res.Findings) != 3 {
		t.Fatalf("got %d findings", len(res.Findings))
	}
	if res.Findings[0].Severity != schema.SeverityCritical {
		t.Errorf("high -> %s, want Critical", res.Findings[0].Severity)
	}
	if res.Findings[1].Severity != schema.SeverityMinor {
		t.Errorf("LOW -> %s, want Minor", res.Findings[1].Severity)
	}
	unknown := res.Findings[2]
	if unknown.Severity != schema.SeverityMinor {
		t.Errorf("catastrophic -> %s, want Minor default", unknown.Severity)
	}
	if !strings.Contains(unknown.Explanation, `"catastrophic"`) {
		t.Errorf("explanation %q should flag the unrecognised severity", unknown.Explanation)
	}
}

func TestAudit_CancelledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{responses: []string{oneFinding}}
	res := newTestAuditor(p, nil).Audit(ctx, testDoc(), nil)

	if len(res.Findings) != 0 {
		t.Errorf("findings = %+v, want none after cancellation", res.Findings)
	}
	if len(res.Degraded) == 0 {
		t.Error("cancellation should surface as degradation")
	}
}

func TestAudit_RulePromptsAppearInPrompt(t *testing.T) {
	rule := schema.Rule{ID: "custom-1", Text: "Procedures must name a responsible role.", Severity: schema.SeverityMajor}
	p := &fakeProvider{responses: []string{"[]"}}
	newTestAuditor(p, nil).Audit(context.Background(), testDoc(), []schema.Rule{rule})

	if p.calls() != 1 {
		t.Fatalf("calls = %d", p.calls())
	}
	if !strings.Contains(p.prompts[0], rule.Text) {
		t.Error("forwarded rule text missing from prompt")
	}
	if !strings.Contains(p.prompts[0], "S0: ## Purpose") {
		t.Errorf("prompt missing position-marked sections:\n%s", p.prompts[0])
	}
	if !strings.Contains(p.prompts[0], "(id: custom-1)") {
		t.Error("forwarded rule id missing from prompt")
	}
}

func TestAudit_FindingLinksBackToForwardedRule(t *testing.T) {
	rule := schema.Rule{ID: "custom-1", Text: "Procedures must name a responsible role.", Severity: schema.SeverityMajor}
	raw := `[
		{"title": "No responsible role named", "description": "The procedure names no role.", "severity": "Major", "rule_ref": "custom-1"},
		{"title": "Vague scope", "description": "Scope is unclear.", "severity": "Minor", "rule_ref": "made-up-rule"}
	]`
	p := &fakeProvider{responses: []string{raw}}
	res := newTestAuditor(p, nil).Audit(context.Background(), testDoc(), []schema.Rule{rule})

	if len(res.Findings) != 2 {
		t.Fatalf("got %d findings", len(res.Findings))
	}
	if res.Findings[0].RuleRef != "custom-1" {
		t.Errorf("rule ref = %q, want custom-1", res.Findings[0].RuleRef)
	}
	if res.Findings[1].RuleRef != "" {
		t.Errorf("unforwarded rule ref %q should be discarded", res.Findings[1].RuleRef)
	}
}

// fakeRetriever returns fixed passages or an error.
type fakeRetriever struct {
	passages []retrieval.Passage
	err      error
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retrieval.Passage, error) {
	return r.passages, r.err
}

func TestAudit_RetrievedPassagesGroundThePrompt(t *testing.T) {
	ret := &fakeRetriever{passages: []retrieval.Passage{
		{Text: "Annex 11 requires audit trails for electronic records.", Similarity: 0.92},
	}}
	p := &fakeProvider{responses: []string{"[]"}}
	newTestAuditor(p, ret).Audit(context.Background(), testDoc(), nil)

	if !strings.Contains(p.prompts[0], "Annex 11 requires audit trails") {
		t.Error("retrieved passage missing from prompt")
	}
	if !strings.Contains(p.prompts[0], "<reference") {
		t.Error("passages should be wrapped in reference tags")
	}
}

func TestAudit_RetrievalFailureIsNonFatal(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("redis unreachable")}
	p := &fakeProvider{responses: []string{oneFinding}}
	res := newTestAuditor(p, ret).Audit(context.Background(), testDoc(), nil)

	if len(res.Findings) != 1 || len(res.Degraded) != 0 {
		t.Errorf("findings=%d degraded=%d, want audit to proceed ungrounded", len(res.Findings), len(res.Degraded))
	}
}
