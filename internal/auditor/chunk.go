package auditor

import (
	"fmt"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// Chunk is a context-budget-sized slice of a document used for one model
// invocation. Chunks are section-aligned and overlap by a fixed number of
// sections so a requirement spanning a boundary is still fully visible in
// at least one chunk.
type Chunk struct {
	Index    int
	Sections []schema.Section
}

// Label identifies a chunk in degradation records and logs.
func (c Chunk) Label() string {
	if len(c.Sections) == 0 {
		return fmt.Sprintf("chunk-%d", c.Index)
	}
	return fmt.Sprintf("chunk-%d (sections %d–%d)", c.Index,
		c.Sections[0].Position, c.Sections[len(c.Sections)-1].Position)
}

func (c Chunk) textLen() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Heading) + len(s.Text)
	}
	return n
}

// chunkDocument splits a document into overlapping section-aligned chunks.
// budget is the per-chunk character budget; overlap is how many trailing
// sections repeat at the start of the next chunk. A document that fits the
// budget yields exactly one chunk. A single oversized section becomes its
// own chunk rather than being split mid-section.
func chunkDocument(doc *schema.Document, budget, overlap int) []Chunk {
	if budget <= 0 {
		budget = defaultChunkBudget
	}
	if overlap < 0 {
		overlap = 0
	}

	total := 0
	for _, s := range doc.Sections {
		total += len(s.Heading) + len(s.Text)
	}
	if total <= budget {
		return []Chunk{{Index: 0, Sections: doc.Sections}}
	}

	var chunks []Chunk
	var current []schema.Section
	size := 0
	carried := 0 // leading sections of current repeated from the previous chunk

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Sections: current})

		// Seed the next chunk with the overlap tail.
		carry := overlap
		if carry > len(current) {
			carry = len(current)
		}
		tail := current[len(current)-carry:]
		current = make([]schema.Section, len(tail))
		copy(current, tail)
		carried = len(current)
		size = 0
		for _, s := range current {
			size += len(s.Heading) + len(s.Text)
		}
	}

	for _, s := range doc.Sections {
		sLen := len(s.Heading) + len(s.Text)
		if size > 0 && size+sLen > budget {
			flush()
		}
		current = append(current, s)
		size += sLen
	}
	// Emit the tail only when it holds sections beyond the carried overlap.
	if len(current) > carried || len(chunks) == 0 {
		chunks = append(chunks, Chunk{Index: len(chunks), Sections: current})
	}
	return chunks
}
