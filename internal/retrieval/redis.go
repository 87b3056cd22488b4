package retrieval

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance.
var _ Retriever = (*KnowledgeBase)(nil)

const (
	// Key layout in Redis.
	passageKeyPrefix = "kb:passage:" // hash: text, vector
	passageIndexKey  = "kb:passages" // set of passage IDs

	hashFieldText   = "text"
	hashFieldVector = "vector"
)

// KnowledgeBase is a Redis-backed passage store with embedding-based
// similarity search. Passages are stored as hashes with their vectors;
// search embeds the query and ranks by cosine similarity client-side.
type KnowledgeBase struct {
	client   *redis.Client
	embedder Embedder
}

// NewKnowledgeBase creates a Redis-backed knowledge base.
func NewKnowledgeBase(client *redis.Client, embedder Embedder) *KnowledgeBase {
	return &KnowledgeBase{client: client, embedder: embedder}
}

// Index embeds and stores reference passages. Each passage gets a fresh ID.
func (kb *KnowledgeBase) Index(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := kb.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding passages: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding count %d does not match passage count %d", len(vectors), len(texts))
	}

	pipe := kb.client.Pipeline()
	for i, text := range texts {
		id := uuid.NewString()
		pipe.HSet(ctx, passageKeyPrefix+id,
			hashFieldText, text,
			hashFieldVector, encodeVector(vectors[i]),
		)
		pipe.SAdd(ctx, passageIndexKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing passages: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity, for health reporting.
func (kb *KnowledgeBase) Ping(ctx context.Context) error {
	return kb.client.Ping(ctx).Err()
}

// Count returns the number of indexed passages.
func (kb *KnowledgeBase) Count(ctx context.Context) (int64, error) {
	n, err := kb.client.SCard(ctx, passageIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return n, nil
}

// Retrieve returns the k most similar passages to the query, ordered by
// descending cosine similarity.
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if query == "" || k <= 0 {
		return nil, nil
	}

	queryVec, err := kb.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ids, err := kb.client.SMembers(ctx, passageIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing passages: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := kb.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, passageKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("fetching passages: %w", err)
	}

	passages := make([]Passage, 0, len(ids))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		vec := decodeVector([]byte(fields[hashFieldVector]))
		if len(vec) == 0 {
			continue
		}
		passages = append(passages, Passage{
			Text:       fields[hashFieldText],
			Similarity: cosineSimilarity(queryVec, vec),
		})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Similarity > passages[j].Similarity
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors, or
// 0 when dimensions differ or either vector is zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// encodeVector packs float32s little-endian for compact hash storage.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	if len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
