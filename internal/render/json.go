package render

import (
	"encoding/json"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Render(result *schema.AnalysisResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
