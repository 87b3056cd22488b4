package docparse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// headingKeywords mark a short line as a likely section heading even when
// it carries no markdown or style cues.
var headingKeywords = []string{
	"section", "chapter", "part", "introduction", "conclusion",
	"overview", "summary", "background", "purpose", "scope",
	"responsibilities", "definitions", "procedure", "references",
	"requirements", "guidelines", "standards", "approvals",
	"revision history",
}

// maxHeadingLen is the longest line still considered a heading candidate.
const maxHeadingLen = 100

// Parse splits already-extracted document text into ordered sections and
// returns an immutable Document. Binary formats (docx, pdf) must be
// extracted to text upstream; Parse only interprets structure.
func Parse(filename string, docType schema.DocumentType, text string) (*schema.Document, error) {
	if !isSupported(docType) {
		return nil, fmt.Errorf("%w: unsupported document type %q", schema.ErrInvalidInput, docType)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document %q has no text content", schema.ErrInvalidInput, filename)
	}

	sections := splitSections(text)

	return &schema.Document{
		ID:       uuid.NewString(),
		Filename: filename,
		Type:     docType,
		Sections: sections,
	}, nil
}

// ParseFile loads a file from disk and parses it. The document type is
// inferred from the file extension.
func ParseFile(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document file: %w", err)
	}
	docType := TypeFromExtension(path)
	return Parse(filepath.Base(path), docType, string(data))
}

// TypeFromExtension maps a file extension to a document type, defaulting
// to plain text.
func TypeFromExtension(path string) schema.DocumentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return schema.DocTypeMarkdown
	case ".docx":
		return schema.DocTypeDOCX
	case ".pdf":
		return schema.DocTypePDF
	default:
		return schema.DocTypeText
	}
}

func isSupported(t schema.DocumentType) bool {
	for _, s := range schema.SupportedDocumentTypes {
		if t == s {
			return true
		}
	}
	return false
}

// splitSections walks the text line by line, starting a new section at each
// detected heading. Content before the first heading lands in a section
// with an empty heading.
func splitSections(text string) []schema.Section {
	lines := strings.Split(text, "\n")

	var sections []schema.Section
	var heading string
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if heading == "" && content == "" {
			return
		}
		sections = append(sections, schema.Section{
			Heading:  heading,
			Text:     content,
			Position: len(sections),
		})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			body = append(body, line)
			continue
		}
		if h, ok := detectHeading(trimmed); ok {
			flush()
			heading = h
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush()

	// A document with no detectable structure still yields one section so
	// findings have something to address.
	if len(sections) == 0 {
		sections = append(sections, schema.Section{
			Text:     strings.TrimSpace(text),
			Position: 0,
		})
	}
	return sections
}

// detectHeading reports whether a non-empty trimmed line is a section
// heading and returns the heading text with markup stripped.
func detectHeading(line string) (string, bool) {
	// Markdown headings.
	if strings.HasPrefix(line, "#") {
		h := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if h != "" {
			return h, true
		}
		return "", false
	}

	if len(line) > maxHeadingLen {
		return "", false
	}

	// Numbered headings like "3. Responsibilities" or "4.2 Training".
	if isNumberedHeading(line) {
		return line, true
	}

	// Style cues borrowed from how regulated SOPs are usually typed:
	// all-caps lines, Title Case lines, and label lines ending in a colon.
	stripped := strings.TrimSuffix(line, ":")
	switch {
	case stripped != strings.ToLower(stripped) && stripped == strings.ToUpper(stripped):
		return stripped, true
	case strings.HasSuffix(line, ":") && len(strings.Fields(stripped)) <= 6:
		return stripped, true
	}

	lower := strings.ToLower(stripped)
	for _, kw := range headingKeywords {
		if lower == kw || strings.HasPrefix(lower, kw+" ") {
			return stripped, true
		}
	}
	return "", false
}

func isNumberedHeading(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 8 {
		return false
	}
	first := strings.TrimSuffix(fields[0], ".")
	for _, part := range strings.Split(first, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
