package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// Verify interface compliance.
var _ rules.Repository = (*ruleStore)(nil)

type ruleStore struct {
	store *Store
}

func (rs *ruleStore) List(ctx context.Context, scope schema.RuleScope, documentID string) ([]schema.Rule, error) {
	query := `SELECT id, scope, document_id, text, kind, severity, created_at
		FROM rules WHERE scope = ?`
	args := []any{string(scope)}
	if scope == schema.ScopeDocument {
		query += ` AND document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := rs.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []schema.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (rs *ruleStore) Get(ctx context.Context, id string) (*schema.Rule, error) {
	row := rs.store.db.QueryRowContext(ctx,
		`SELECT id, scope, document_id, text, kind, severity, created_at FROM rules WHERE id = ?`, id)
	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, schema.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (rs *ruleStore) Add(ctx context.Context, r *schema.Rule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: rule has no ID", schema.ErrInvalidInput)
	}
	_, err := rs.store.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rules (id, scope, document_id, text, kind, severity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Scope), r.DocumentID, r.Text, string(r.Kind), string(r.Severity), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("adding rule %s: %w", r.ID, err)
	}
	return nil
}

func (rs *ruleStore) Delete(ctx context.Context, id string) error {
	res, err := rs.store.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rule %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return schema.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (schema.Rule, error) {
	var r schema.Rule
	var scope, kind, severity string
	if err := row.Scan(&r.ID, &scope, &r.DocumentID, &r.Text, &kind, &severity, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return r, err
		}
		return r, fmt.Errorf("scanning rule: %w", err)
	}
	r.Scope = schema.RuleScope(scope)
	r.Kind = schema.RuleKind(kind)
	r.Severity = schema.Severity(severity)
	return r, nil
}
