package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

type markdownRenderer struct{}

var mdTemplate = template.Must(template.New("result").Funcs(template.FuncMap{
	"sev": func(s string) schema.Severity { return schema.Severity(s) },
}).Parse(`# Compliance Report

**Score:** {{ .Score.Score }}/100 ({{ .Score.Level }})
**Critical:** {{ index .Score.Breakdown (sev "Critical") }} | **Major:** {{ index .Score.Breakdown (sev "Major") }} | **Minor:** {{ index .Score.Breakdown (sev "Minor") }}
{{ if .Partial }}
> Partial analysis: some checks could not be completed (see Degraded below).
{{ end }}{{ if .Findings }}
---

## Findings
{{ range .Findings }}
### {{ .Severity }} · {{ .Title }}
*Source: {{ .Source }}{{ if .RuleRef }} · Rule: {{ .RuleRef }}{{ end }}{{ if .SectionRef }} · Section {{ .SectionRef.Position }}{{ if .SectionRef.Heading }} ({{ .SectionRef.Heading }}){{ end }}{{ end }} · Confidence: {{ printf "%.1f" .Confidence }}*

{{ .Description }}
{{ if .Explanation }}
> {{ .Explanation }}
{{ end }}{{ end }}{{ else }}
No compliance issues found.
{{ end }}{{ if .Degraded }}
---

## Degraded Checks
{{ range .Degraded }}
- **{{ .Component }}** ({{ .Subject }}): {{ .Reason }}
{{ end }}{{ end }}
---
*Document: {{ .DocumentID }} | Generated: {{ .GeneratedAt.Format "2006-01-02 15:04:05 MST" }}*
`))

func (r *markdownRenderer) Render(result *schema.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, result); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
