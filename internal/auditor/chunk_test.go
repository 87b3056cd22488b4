package auditor

import (
	"strings"
	"testing"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

func docWithSections(texts ...string) *schema.Document {
	doc := &schema.Document{ID: "doc-1", Filename: "sop.md", Type: schema.DocTypeMarkdown}
	for i, text := range texts {
		doc.Sections = append(doc.Sections, schema.Section{
			Heading:  "Section " + string(rune('A'+i)),
			Text:     text,
			Position: i,
		})
	}
	return doc
}

func TestChunkDocument_FitsInOneChunk(t *testing.T) {
	doc := docWithSections("short", "also short")
	chunks := chunkDocument(doc, 1000, 1)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if len(chunks[0].Sections) != 2 {
		t.Errorf("chunk should hold all sections, got %d", len(chunks[0].Sections))
	}
}

func TestChunkDocument_SplitsWithOverlap(t *testing.T) {
	big := strings.Repeat("x", 90)
	doc := docWithSections(big, big, big, big)
	chunks := chunkDocument(doc, 220, 1)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want a split", len(chunks))
	}
	// The last section of each chunk reappears at the start of the next.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Sections
		lastOfPrev := prev[len(prev)-1].Position
		firstOfNext := chunks[i].Sections[0].Position
		if firstOfNext != lastOfPrev {
			t.Errorf("chunk %d starts at section %d, want overlap with section %d", i, firstOfNext, lastOfPrev)
		}
	}
}

func TestChunkDocument_EverySectionCovered(t *testing.T) {
	big := strings.Repeat("x", 90)
	doc := docWithSections(big, big, big, big, big)
	chunks := chunkDocument(doc, 220, 1)

	seen := make(map[int]bool)
	for _, c := range chunks {
		for _, s := range c.Sections {
			seen[s.Position] = true
		}
	}
	for i := range doc.Sections {
		if !seen[i] {
			t.Errorf("section %d appears in no chunk", i)
		}
	}
}

func TestChunkDocument_EverySectionCoveredWideOverlap(t *testing.T) {
	// A trailing section must survive even when the previous chunk held
	// fewer sections than the configured overlap.
	doc := docWithSections(strings.Repeat("x", 200), "short tail")
	chunks := chunkDocument(doc, 150, 2)

	seen := make(map[int]bool)
	for _, c := range chunks {
		for _, s := range c.Sections {
			seen[s.Position] = true
		}
	}
	for i := range doc.Sections {
		if !seen[i] {
			t.Errorf("section %d appears in no chunk; chunks=%d", i, len(chunks))
		}
	}
}

func TestChunkDocument_SplitsWithOverlapTwo(t *testing.T) {
	big := strings.Repeat("x", 90)
	doc := docWithSections(big, big, big, big, big, big)
	chunks := chunkDocument(doc, 320, 2)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want a split", len(chunks))
	}
	seen := make(map[int]bool)
	for _, c := range chunks {
		for _, s := range c.Sections {
			seen[s.Position] = true
		}
	}
	for i := range doc.Sections {
		if !seen[i] {
			t.Errorf("section %d appears in no chunk", i)
		}
	}
	// The last two sections of each chunk reappear at the start of the next.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Sections
		if len(prev) < 2 {
			continue
		}
		if chunks[i].Sections[0].Position != prev[len(prev)-2].Position {
			t.Errorf("chunk %d starts at section %d, want %d",
				i, chunks[i].Sections[0].Position, prev[len(prev)-2].Position)
		}
	}
}

func TestChunkDocument_NoOverlapOnlyTail(t *testing.T) {
	// When the final flush would contain nothing beyond the carried overlap,
	// no extra chunk is emitted.
	big := strings.Repeat("x", 200)
	doc := docWithSections(big, big)
	chunks := chunkDocument(doc, 210, 1)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	last := chunks[len(chunks)-1]
	if len(last.Sections) <= 1 && last.Sections[0].Position == chunks[0].Sections[len(chunks[0].Sections)-1].Position {
		t.Errorf("final chunk %q holds only carried overlap", last.Label())
	}
}

func TestChunkDocument_OversizedSectionBecomesOwnChunk(t *testing.T) {
	doc := docWithSections("small", strings.Repeat("x", 500), "small")
	chunks := chunkDocument(doc, 100, 0)

	for _, c := range chunks {
		for _, s := range c.Sections {
			if s.Position == 1 && len(c.Sections) > 1 {
				// The oversized section may share a chunk only via overlap;
				// with overlap 0 it must stand alone.
				t.Errorf("oversized section chunked with neighbours: %q", c.Label())
			}
		}
	}
}

func TestChunkLabel(t *testing.T) {
	c := Chunk{Index: 2, Sections: []schema.Section{{Position: 4}, {Position: 6}}}
	if got := c.Label(); !strings.Contains(got, "chunk-2") || !strings.Contains(got, "4") || !strings.Contains(got, "6") {
		t.Errorf("Label = %q", got)
	}
}
