package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ModelFinding is the wire shape the auditor instructs the model to return.
// Severity is kept raw here: normalization to the fixed three-value set is
// the auditor's job and is never a parse failure.
type ModelFinding struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Explanation string        `json:"explanation"`
	Severity    string        `json:"severity"`
	RuleRef     string        `json:"rule_ref"`
	Section     *ModelSection `json:"section"`
}

// ModelSection locates a model finding within the document.
type ModelSection struct {
	Position int    `json:"position"`
	Heading  string `json:"heading"`
}

// Parse strips markdown fences, unmarshals the JSON array, and validates
// each finding's structure. sectionCount is the number of sections in the
// document and bounds the section positions the model may cite; pass 0 to
// skip the bounds check.
func Parse(raw string, sectionCount int) ([]ModelFinding, error) {
	cleaned := stripFences(raw)

	var findings []ModelFinding
	if err := json.Unmarshal([]byte(cleaned), &findings); err != nil {
		return nil, fmt.Errorf("JSON parse failed: %w", err)
	}

	for i, f := range findings {
		if err := validateFinding(f, i, sectionCount); err != nil {
			return nil, err
		}
	}

	return findings, nil
}

// stripFences removes leading/trailing markdown code fences (```json ... ``` or ``` ... ```).
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove first line (the fence opener)
		idx := strings.Index(s, "\n")
		if idx >= 0 {
			s = s[idx+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		idx := strings.LastIndex(s, "\n```")
		if idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func validateFinding(f ModelFinding, idx, sectionCount int) error {
	prefix := fmt.Sprintf("finding[%d]", idx)

	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%s: title is required", prefix)
	}
	if strings.TrimSpace(f.Description) == "" {
		return fmt.Errorf("%s: description is required", prefix)
	}
	if f.Section != nil {
		if f.Section.Position < -1 {
			return fmt.Errorf("%s: section position %d must be ≥ -1", prefix, f.Section.Position)
		}
		if sectionCount > 0 && f.Section.Position >= sectionCount {
			return fmt.Errorf("%s: section position %d exceeds section count %d", prefix, f.Section.Position, sectionCount)
		}
	}
	return nil
}

// SanitizeErrForPrompt classifies a parse error into a fixed category string
// without echoing any model-generated content back into the repair prompt.
func SanitizeErrForPrompt(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "JSON parse failed"):
		return "JSON syntax error (response must be a JSON array of finding objects)"
	case strings.Contains(msg, "title is required"), strings.Contains(msg, "description is required"):
		return "missing required field"
	case strings.Contains(msg, "section position"):
		return "invalid section position"
	default:
		return "schema validation error"
	}
}
