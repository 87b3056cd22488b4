package rules

import (
	"context"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// Repository stores global and document-scoped rules. The analyzer only
// reads from it; mutation happens through the API layer. Implementations
// must be safe for concurrent use.
//
// A Repository handle is always passed explicitly into the components that
// need it — there is no package-level default.
type Repository interface {
	// List returns rules for the given scope. documentID is required when
	// scope is ScopeDocument and ignored otherwise.
	List(ctx context.Context, scope schema.RuleScope, documentID string) ([]schema.Rule, error)

	// Get returns the rule with the given ID, or schema.ErrNotFound.
	Get(ctx context.Context, id string) (*schema.Rule, error)

	// Add stores a rule. The rule's ID must be set by the caller.
	Add(ctx context.Context, r *schema.Rule) error

	// Delete removes a rule by ID. Deleting an unknown ID returns
	// schema.ErrNotFound.
	Delete(ctx context.Context, id string) error
}
