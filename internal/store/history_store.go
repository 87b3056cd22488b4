package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// HistoryStore persists completed analysis results. The full result is
// stored as JSON alongside a few indexed columns for listing.
type HistoryStore struct {
	store *Store
}

// HistorySummary is one row of the analysis listing.
type HistorySummary struct {
	ID          string                 `json:"id"`
	DocumentID  string                 `json:"document_id"`
	Filename    string                 `json:"filename"`
	Score       int                    `json:"score"`
	Level       schema.ComplianceLevel `json:"level"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Save stores an analysis result.
func (h *HistoryStore) Save(ctx context.Context, result *schema.AnalysisResult, filename string) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	_, err = h.store.db.ExecContext(ctx,
		`INSERT INTO analyses (id, document_id, filename, score, level, result_json, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.DocumentID, filename, result.Score.Score,
		string(result.Score.Level), string(data), result.GeneratedAt)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", result.ID, err)
	}
	return nil
}

// Get returns a stored result by analysis ID.
func (h *HistoryStore) Get(ctx context.Context, id string) (*schema.AnalysisResult, error) {
	var data string
	err := h.store.db.QueryRowContext(ctx,
		`SELECT result_json FROM analyses WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, schema.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading analysis %s: %w", id, err)
	}

	var result schema.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis %s: %w", id, err)
	}
	return &result, nil
}

// List returns the most recent analyses, newest first.
func (h *HistoryStore) List(ctx context.Context, limit int) ([]HistorySummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.store.db.QueryContext(ctx,
		`SELECT id, document_id, filename, score, level, generated_at
		 FROM analyses ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []HistorySummary
	for rows.Next() {
		var s HistorySummary
		var level string
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Filename, &s.Score, &level, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		s.Level = schema.ComplianceLevel(level)
		out = append(out, s)
	}
	return out, rows.Err()
}
