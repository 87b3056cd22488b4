package rules

import (
	"reflect"
	"testing"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

func TestBuiltin_StableAcrossCalls(t *testing.T) {
	if !reflect.DeepEqual(Builtin(), Builtin()) {
		t.Error("Builtin() should return identical rule sets on every call")
	}
}

func TestBuiltin_OneRulePerMandatorySection(t *testing.T) {
	rs := Builtin()
	if len(rs) != len(MandatorySections)+2 {
		t.Fatalf("got %d rules, want %d", len(rs), len(MandatorySections)+2)
	}

	byID := make(map[string]schema.Rule, len(rs))
	for _, r := range rs {
		byID[r.ID] = r
	}

	for _, id := range []string{
		"core-section-purpose",
		"core-section-scope",
		"core-section-responsibilities",
		"core-section-revision-history",
		"core-section-approvals",
	} {
		r, ok := byID[id]
		if !ok {
			t.Errorf("missing built-in rule %s", id)
			continue
		}
		if r.Severity != schema.SeverityCritical {
			t.Errorf("%s severity = %s, want Critical", id, r.Severity)
		}
		if r.Kind != schema.KindStructural {
			t.Errorf("%s kind = %s, want structural", id, r.Kind)
		}
	}

	if r, ok := byID["core-section-order"]; !ok || r.Severity != schema.SeverityMajor {
		t.Errorf("core-section-order = %+v, want Major structural rule", r)
	}
	if r, ok := byID["core-no-placeholders"]; !ok || r.Severity != schema.SeverityMajor || r.Kind != schema.KindPattern {
		t.Errorf("core-no-placeholders = %+v, want Major pattern rule", r)
	}
}

func TestBuiltin_RulesClassifyDeterministically(t *testing.T) {
	// Every built-in rule must resolve to a deterministic check; none may
	// fall through to the model.
	for _, r := range Builtin() {
		if Classify(r).Class == ClassModelEvaluated {
			t.Errorf("built-in rule %s classified as model-evaluated", r.ID)
		}
	}
}

func TestBuiltin_OrderRuleListsAllSections(t *testing.T) {
	for _, r := range Builtin() {
		if r.ID != "core-section-order" {
			continue
		}
		check := Classify(r)
		if !reflect.DeepEqual(check.Ordered, MandatorySections) {
			t.Errorf("ordering check = %q, want %q", check.Ordered, MandatorySections)
		}
	}
}
