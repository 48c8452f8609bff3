// Package session persists named sessions so a working rule set, along with
// its active search patterns and search history, can be saved and restored
// across runs. Sessions are stored as TOML files in ~/.config/loupe/sessions/,
// one file per session; LOUPE_CONFIG_DIR overrides the base directory.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/loupedev/loupe/internal/filter"
	"github.com/loupedev/loupe/internal/logline"
	"github.com/loupedev/loupe/internal/search"
)

const (
	defaultConfigDir = "~/.config/loupe"
	configDirEnv     = "LOUPE_CONFIG_DIR"
	sessionsSubdir   = "sessions"
)

// RuleRecord is the on-disk form of one filter rule. Only the fields that
// apply to the rule's kind are populated; the rest stay at their zero value
// and are omitted from the file.
type RuleRecord struct {
	Type          string `toml:"type"`
	Pattern       string `toml:"pattern,omitempty"`
	Enabled       bool   `toml:"enabled"`
	IsRegex       bool   `toml:"is_regex,omitempty"`
	CaseSensitive bool   `toml:"case_sensitive,omitempty"`
	JSONKey       string `toml:"json_key,omitempty"`
	JSONValue     string `toml:"json_value,omitempty"`
	Component     string `toml:"component,omitempty"`
	Level         string `toml:"level,omitempty"`
	TimeStart     string `toml:"time_start,omitempty"`
	TimeEnd       string `toml:"time_end,omitempty"`
}

// SearchRecord is the on-disk form of one search pattern.
type SearchRecord struct {
	Pattern       string `toml:"pattern"`
	CaseSensitive bool   `toml:"case_sensitive,omitempty"`
	IsRegex       bool   `toml:"is_regex,omitempty"`
}

// Session is a named, saved working state: the rule set plus the searches
// that were active when it was saved and the recent search history.
type Session struct {
	Name     string         `toml:"name"`
	Saved    time.Time      `toml:"saved"`
	Rules    []RuleRecord   `toml:"rules"`
	Searches []SearchRecord `toml:"searches,omitempty"`
	History  []SearchRecord `toml:"search_history,omitempty"`
}

// Record converts a live rule into its persistent form.
func Record(r *filter.Rule) RuleRecord {
	rec := RuleRecord{
		Type:    r.Type.String(),
		Enabled: r.Enabled,
	}
	switch r.Kind {
	case filter.KindJSONField:
		rec.JSONKey = r.JSONKey
		rec.JSONValue = r.JSONValue
	case filter.KindComponent:
		rec.Component = r.Component
	case filter.KindLevel:
		rec.Level = r.MinLevel.String()
	case filter.KindTimeRange:
		if !r.Start.IsZero() {
			rec.TimeStart = r.Start.Format(time.RFC3339Nano)
		}
		if !r.End.IsZero() {
			rec.TimeEnd = r.End.Format(time.RFC3339Nano)
		}
	default:
		rec.Pattern = r.Pattern
		rec.IsRegex = r.Regex
		rec.CaseSensitive = r.CaseSensitive
	}
	return rec
}

// Restore rebuilds a live rule from its persistent form. Regex patterns are
// recompiled here; a pattern that no longer compiles comes back as a failed
// rule rather than an error, matching how rules behave when first created.
func Restore(rec RuleRecord) *filter.Rule {
	t := filter.Include
	if rec.Type == filter.Exclude.String() {
		t = filter.Exclude
	}

	var r *filter.Rule
	switch {
	case rec.JSONKey != "":
		r = filter.NewJSONRule(t, rec.JSONKey, rec.JSONValue)
	case rec.Component != "":
		r = filter.NewComponentRule(t, rec.Component)
	case rec.Level != "":
		r = filter.NewLevelRule(t, logline.ParseLevel(rec.Level))
	case rec.TimeStart != "" || rec.TimeEnd != "":
		var start, end time.Time
		if rec.TimeStart != "" {
			start, _ = time.Parse(time.RFC3339Nano, rec.TimeStart)
		}
		if rec.TimeEnd != "" {
			end, _ = time.Parse(time.RFC3339Nano, rec.TimeEnd)
		}
		r = filter.NewTimeRangeRule(t, start, end)
	default:
		r = filter.NewTextRule(t, rec.Pattern, rec.IsRegex, rec.CaseSensitive)
	}
	r.Enabled = rec.Enabled
	return r
}

// RecordSearch converts a live search query into its persistent form.
// Direction is navigation state and is not persisted.
func RecordSearch(q search.Query) SearchRecord {
	return SearchRecord{
		Pattern:       q.Pattern,
		CaseSensitive: q.CaseSensitive,
		IsRegex:       q.Regex,
	}
}

// Query rebuilds a live search query. Restored searches run forward.
func (rec SearchRecord) Query() search.Query {
	return search.Query{
		Pattern:       rec.Pattern,
		CaseSensitive: rec.CaseSensitive,
		Regex:         rec.IsRegex,
		Direction:     search.Forward,
	}
}

// validSearches drops records whose regex no longer compiles. History keeps
// such records: recalling an old pattern to edit it is still useful.
func validSearches(records []SearchRecord) []SearchRecord {
	kept := records[:0]
	for _, rec := range records {
		if rec.IsRegex {
			if _, err := regexp.Compile(rec.Pattern); err != nil {
				continue
			}
		}
		kept = append(kept, rec)
	}
	return kept
}

// Store reads and writes sessions under a base directory.
type Store struct {
	dir string
}

// NewStore resolves the sessions directory. An empty dir uses
// LOUPE_CONFIG_DIR when set, otherwise the default config location.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		if env := os.Getenv(configDirEnv); env != "" {
			dir = env
		} else {
			dir = defaultConfigDir
		}
	}
	resolved, err := expandPath(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve session dir: %w", err)
	}
	return &Store{dir: filepath.Join(resolved, sessionsSubdir)}, nil
}

// Save writes the rule set under the given name, overwriting any existing
// session with that name.
func (s *Store) Save(name string, rules []*filter.Rule) error {
	sess := Session{Name: name}
	for _, r := range rules {
		sess.Rules = append(sess.Rules, Record(r))
	}
	return s.SaveSession(sess)
}

// SaveSession writes a full session, searches included, overwriting any
// existing session with the same name. A zero Saved time is stamped now.
func (s *Store) SaveSession(sess Session) error {
	if err := validName(sess.Name); err != nil {
		return err
	}
	if sess.Saved.IsZero() {
		sess.Saved = time.Now().UTC()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	bytes, err := toml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path(sess.Name), bytes, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load reads the named session and rebuilds its rules.
func (s *Store) Load(name string) ([]*filter.Rule, error) {
	sess, err := s.LoadSession(name)
	if err != nil {
		return nil, err
	}
	rules := make([]*filter.Rule, 0, len(sess.Rules))
	for _, rec := range sess.Rules {
		rules = append(rules, Restore(rec))
	}
	return rules, nil
}

// LoadSession reads the named session in its persistent form. Active search
// records with a regex that no longer compiles are dropped, the same way a
// failed filter rule is isolated; the history keeps them verbatim.
func (s *Store) LoadSession(name string) (Session, error) {
	if err := validName(name); err != nil {
		return Session{}, err
	}
	bytes, err := os.ReadFile(s.path(name))
	if err != nil {
		return Session{}, fmt.Errorf("read session %q: %w", name, err)
	}
	var sess Session
	if err := toml.Unmarshal(bytes, &sess); err != nil {
		return Session{}, fmt.Errorf("parse session %q: %w", name, err)
	}
	sess.Searches = validSearches(sess.Searches)
	return sess, nil
}

// List returns the names of saved sessions, sorted. A missing sessions
// directory is an empty list, not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".toml") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".toml"))
	}
	sort.Strings(names)
	return names, nil
}

// Rename moves a saved session to a new name, keeping its contents and
// saved timestamp. The target name must not already be taken.
func (s *Store) Rename(oldName, newName string) error {
	if err := validName(newName); err != nil {
		return err
	}
	if _, err := os.Stat(s.path(newName)); err == nil {
		return fmt.Errorf("session %q already exists", newName)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("rename session: %w", err)
	}

	sess, err := s.LoadSession(oldName)
	if err != nil {
		return err
	}
	sess.Name = newName
	if err := s.SaveSession(sess); err != nil {
		return err
	}
	if err := os.Remove(s.path(oldName)); err != nil {
		return fmt.Errorf("remove renamed session %q: %w", oldName, err)
	}
	return nil
}

// Delete removes the named session.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".toml")
}

// validName rejects names that would escape the sessions directory.
func validName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("session name is empty")
	}
	if trimmed != filepath.Base(trimmed) || strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("invalid session name %q", name)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
