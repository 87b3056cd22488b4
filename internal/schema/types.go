package schema

import "time"

// Severity levels for findings and rules. Every finding carries exactly one
// of these three values; anything else coming back from a model is
// normalized before it enters the pipeline.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
)

// SeverityOrdinal returns the ordering rank for a severity, used when
// sorting merged findings. Critical(2) > Major(1) > Minor(0).
// Returns -1 for an unrecognised severity.
func SeverityOrdinal(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 0
	default:
		return -1
	}
}

// IsValidSeverity reports whether s is one of the three defined levels.
func IsValidSeverity(s Severity) bool {
	return SeverityOrdinal(s) >= 0
}

// DocumentType identifies the format a document's text was extracted from.
type DocumentType string

const (
	DocTypeText     DocumentType = "txt"
	DocTypeMarkdown DocumentType = "md"
	DocTypeDOCX     DocumentType = "docx"
	DocTypePDF      DocumentType = "pdf"
)

// SupportedDocumentTypes lists the formats accepted by the analyzer.
// Binary extraction for docx/pdf happens upstream; the engine only ever
// sees extracted text.
var SupportedDocumentTypes = []DocumentType{DocTypeText, DocTypeMarkdown, DocTypeDOCX, DocTypePDF}

// Section is the addressable unit of a document. Findings reference
// sections by position.
type Section struct {
	Heading  string `json:"heading,omitempty"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Document is a parsed regulatory document. It is immutable once parsed:
// the analyzer never mutates a Document it is given.
type Document struct {
	ID       string       `json:"id"`
	Filename string       `json:"filename"`
	Type     DocumentType `json:"type"`
	Sections []Section    `json:"sections"`
}

// FullText returns the concatenated text of all sections, heading lines
// included, in document order.
func (d *Document) FullText() string {
	var total int
	for _, s := range d.Sections {
		total += len(s.Heading) + len(s.Text) + 2
	}
	buf := make([]byte, 0, total)
	for _, s := range d.Sections {
		if s.Heading != "" {
			buf = append(buf, s.Heading...)
			buf = append(buf, '\n')
		}
		buf = append(buf, s.Text...)
		buf = append(buf, '\n')
	}
	return string(buf)
}

// RuleScope determines which analyses a rule applies to.
type RuleScope string

const (
	ScopeGlobal   RuleScope = "global"
	ScopeDocument RuleScope = "document"
)

// RuleKind selects the evaluation strategy for a rule.
type RuleKind string

const (
	// KindStructural rules check section presence and ordering.
	KindStructural RuleKind = "builtin-structural"
	// KindPattern rules check text against a fixed lexical condition.
	KindPattern RuleKind = "builtin-pattern"
	// KindCustom rules are user-authored natural language; they are
	// evaluated lexically when possible and otherwise forwarded to the
	// AI auditor as rule prompts.
	KindCustom RuleKind = "custom"
)

// Rule is a compliance requirement. Identity is the ID; Text is free-form
// and not required to be unique.
type Rule struct {
	ID         string    `json:"id"`
	Scope      RuleScope `json:"scope"`
	DocumentID string    `json:"document_id,omitempty"` // set when Scope is document
	Text       string    `json:"text"`
	Kind       RuleKind  `json:"kind"`
	Severity   Severity  `json:"severity"`
	CreatedAt  time.Time `json:"created_at"`
}

// FindingSource identifies which component produced a finding.
type FindingSource string

const (
	SourceRuleEngine FindingSource = "rule-engine"
	SourceAIAuditor  FindingSource = "ai-auditor"
)

// SectionRef locates a finding within a document. Position is -1 when the
// finding applies to the document as a whole (e.g. a missing section).
type SectionRef struct {
	Position int    `json:"position"`
	Heading  string `json:"heading,omitempty"`
}

// Finding is a single identified compliance issue. Findings are value
// objects: produced fresh per analysis and never mutated after creation.
type Finding struct {
	Source      FindingSource `json:"source"`
	RuleRef     string        `json:"rule_ref,omitempty"` // rule ID, empty for free-form AI findings
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Explanation string        `json:"explanation,omitempty"`
	Severity    Severity      `json:"severity"`
	SectionRef  *SectionRef   `json:"section_ref,omitempty"`
	Confidence  float64       `json:"confidence"` // 0–1; deterministic findings are 1.0
}

// ComplianceLevel is the banded interpretation of a score.
type ComplianceLevel string

const (
	LevelExcellent ComplianceLevel = "Excellent"
	LevelGood      ComplianceLevel = "Good"
	LevelFair      ComplianceLevel = "Fair"
	LevelPoor      ComplianceLevel = "Poor"
	LevelCritical  ComplianceLevel = "Critical"
)

// ComplianceScore reduces a finding list to a single 0–100 value with its
// band and per-severity counts.
type ComplianceScore struct {
	Score     int              `json:"score"`
	Level     ComplianceLevel  `json:"level"`
	Breakdown map[Severity]int `json:"breakdown"`
}

// Degradation records a partial failure: some evaluation path produced no
// result but the overall analysis still completed.
type Degradation struct {
	Component string `json:"component"` // "rule-engine" or "ai-auditor"
	Subject   string `json:"subject"`   // rule ID or chunk label
	Reason    string `json:"reason"`
}

// AnalysisResult is the output of one analysis request. Persistence of
// results is the caller's concern.
type AnalysisResult struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"document_id"`
	Findings    []Finding       `json:"findings"`
	Score       ComplianceScore `json:"score"`
	Degraded    []Degradation   `json:"degraded,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Partial reports whether any evaluation path degraded during this
// analysis, so callers can display a partial-analysis notice.
func (r *AnalysisResult) Partial() bool {
	return len(r.Degraded) > 0
}
