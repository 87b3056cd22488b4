package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/docparse"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/redact"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/rules"
	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// maxBodyBytes caps request bodies at 10 MiB. Regulated documents are text;
// anything larger is almost certainly a mistake.
const maxBodyBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFromErr maps domain sentinel errors onto HTTP status codes.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if s.kb != nil {
		if err := s.kb.Ping(r.Context()); err != nil {
			health["knowledge_base"] = "unreachable"
		} else {
			health["knowledge_base"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"document_types": schema.SupportedDocumentTypes,
		"severities":     []schema.Severity{schema.SeverityCritical, schema.SeverityMajor, schema.SeverityMinor},
	})
}

type analyzeRequest struct {
	Filename string `json:"filename"`
	// Type is optional; inferred from the filename extension when empty.
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
	// Rules are ad-hoc document-scoped rules applied to this analysis only.
	Rules []struct {
		RuleText string `json:"rule_text"`
		Severity string `json:"severity"`
	} `json:"rules,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	docType := schema.DocumentType(req.Type)
	if req.Type == "" {
		docType = docparse.TypeFromExtension(req.Filename)
	}

	doc, err := docparse.Parse(req.Filename, docType, redact.Redact(req.Text))
	if err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}

	global := rules.Builtin()
	stored, err := s.rules.List(r.Context(), schema.ScopeGlobal, "")
	if err != nil {
		s.logger.Error("listing rules", "error", err)
		writeError(w, http.StatusInternalServerError, "loading rules failed")
		return
	}
	global = append(global, stored...)

	var docRules []schema.Rule
	for _, rr := range req.Rules {
		sev := schema.Severity(rr.Severity)
		if !schema.IsValidSeverity(sev) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("rule severity %q is not one of Critical, Major, Minor", rr.Severity))
			return
		}
		docRules = append(docRules, schema.Rule{
			ID:         uuid.NewString(),
			Text:       rr.RuleText,
			Severity:   sev,
			Scope:      schema.ScopeDocument,
			DocumentID: doc.ID,
			Kind:       schema.KindCustom,
			CreatedAt:  time.Now().UTC(),
		})
	}

	result, err := s.analyzer.Analyze(r.Context(), doc, global, docRules)
	if err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}

	if s.history != nil {
		if err := s.history.Save(r.Context(), result, req.Filename); err != nil {
			// History is bookkeeping; the analysis itself succeeded.
			s.logger.Error("saving analysis history", "error", err, "result", result.ID)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history store not configured")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	summaries, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": summaries})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history store not configured")
		return
	}
	result, err := s.history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	scope := schema.ScopeGlobal
	documentID := r.URL.Query().Get("document_id")
	if documentID != "" {
		scope = schema.ScopeDocument
	}
	list, err := s.rules.List(r.Context(), scope, documentID)
	if err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": list, "builtin": rules.Builtin()})
}

type addRuleRequest struct {
	RuleText   string `json:"rule_text"`
	Severity   string `json:"severity"`
	Scope      string `json:"scope,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req addRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RuleText == "" {
		writeError(w, http.StatusBadRequest, "rule_text is required")
		return
	}
	sev := schema.Severity(req.Severity)
	if !schema.IsValidSeverity(sev) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("severity %q is not one of Critical, Major, Minor", req.Severity))
		return
	}
	scope := schema.ScopeGlobal
	if req.Scope == string(schema.ScopeDocument) {
		if req.DocumentID == "" {
			writeError(w, http.StatusBadRequest, "document-scoped rules require document_id")
			return
		}
		scope = schema.ScopeDocument
	}

	rule := schema.Rule{
		ID:         uuid.NewString(),
		Text:       req.RuleText,
		Severity:   sev,
		Scope:      scope,
		DocumentID: req.DocumentID,
		Kind:       schema.KindCustom,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.rules.Add(r.Context(), &rule); err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, statusFromErr(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
