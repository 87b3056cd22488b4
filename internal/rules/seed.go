package rules

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/PradeepBhosale2005/compli-ai-linter/internal/schema"
)

// seedFile mirrors the legacy rules-file shape: either a bare array of
// entries or an object with a "rules" array.
type seedFile struct {
	Rules []seedEntry `json:"rules"`
}

type seedEntry struct {
	RuleText string `json:"rule_text"`
	Severity string `json:"severity"`
}

// LoadSeed parses a JSON rules file into custom global rules. IDs are
// derived from the rule text so the same file always yields the same IDs.
func LoadSeed(path string) ([]schema.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var sf seedFile
		if err := json.Unmarshal(data, &sf); err != nil {
			return nil, fmt.Errorf("%w: rules file %q is not a rules array or object", schema.ErrInvalidInput, path)
		}
		entries = sf.Rules
	}

	rs := make([]schema.Rule, 0, len(entries))
	for _, e := range entries {
		if e.RuleText == "" {
			continue
		}
		sev := schema.Severity(e.Severity)
		if !schema.IsValidSeverity(sev) {
			sev = schema.SeverityMajor
		}
		rs = append(rs, schema.Rule{
			ID:        seedID(e.RuleText),
			Scope:     schema.ScopeGlobal,
			Text:      e.RuleText,
			Kind:      schema.KindCustom,
			Severity:  sev,
			CreatedAt: time.Now().UTC(),
		})
	}
	return rs, nil
}

// seedIDPrefix tags rules that came from the rules file, so syncs can tell
// them apart from user-created rules across process restarts.
const seedIDPrefix = "seed-"

func seedID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%x", seedIDPrefix, sum[:6])
}

// SeedWatcher keeps a Repository in sync with an on-disk rules file. It
// loads the file once on Start and re-syncs whenever the file changes.
type SeedWatcher struct {
	path   string
	repo   Repository
	logger *slog.Logger
}

// NewSeedWatcher creates a watcher for the given rules file.
func NewSeedWatcher(path string, repo Repository, logger *slog.Logger) *SeedWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeedWatcher{path: path, repo: repo, logger: logger}
}

// Start performs an initial sync and then watches the file until ctx is
// cancelled. A missing file at startup is not an error; the watcher waits
// for it to appear.
func (w *SeedWatcher) Start(ctx context.Context) error {
	if _, err := os.Stat(w.path); err == nil {
		if err := w.sync(ctx); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save and
	// a file-level watch would be lost after the first rename.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go w.loop(ctx, watcher)
	return nil
}

func (w *SeedWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.sync(ctx); err != nil {
				w.logger.Error("rules file sync failed", "path", w.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("rules file watcher error", "error", err)
		}
	}
}

// sync replaces previously seeded rules with the file's current contents.
// The seeded set is reconciled against the store, not in-process state, so
// rules seeded by an earlier run are removed when the file drops them.
func (w *SeedWatcher) sync(ctx context.Context) error {
	rs, err := LoadSeed(w.path)
	if err != nil {
		return err
	}

	current := make(map[string]bool, len(rs))
	for _, r := range rs {
		current[r.ID] = true
	}

	stored, err := w.repo.List(ctx, schema.ScopeGlobal, "")
	if err != nil {
		return fmt.Errorf("listing stored rules: %w", err)
	}
	inStore := make(map[string]bool)
	for _, r := range stored {
		if !strings.HasPrefix(r.ID, seedIDPrefix) {
			continue
		}
		if current[r.ID] {
			inStore[r.ID] = true
			continue
		}
		if err := w.repo.Delete(ctx, r.ID); err != nil && err != schema.ErrNotFound {
			return fmt.Errorf("removing stale seeded rule %s: %w", r.ID, err)
		}
	}

	for i := range rs {
		if inStore[rs[i].ID] {
			continue
		}
		if err := w.repo.Add(ctx, &rs[i]); err != nil {
			return fmt.Errorf("adding seeded rule %s: %w", rs[i].ID, err)
		}
	}

	w.logger.Info("rules file synced", "path", w.path, "rules", len(rs))
	return nil
}
