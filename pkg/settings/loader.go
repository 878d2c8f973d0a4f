package settings

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-inlineform/pkg/model"
)

// Store holds per-field settings keyed by field name.
type Store struct {
	fields map[string]model.Settings
}

type documentFile struct {
	Fields map[string]fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	AllowExisting    *bool  `json:"allow_existing" yaml:"allow_existing"`
	MatchOperator    string `json:"match_operator" yaml:"match_operator"`
	DeleteReferences *bool  `json:"delete_references" yaml:"delete_references"`
	OverrideLabels   *bool  `json:"override_labels" yaml:"override_labels"`
	LabelSingular    string `json:"label_singular" yaml:"label_singular"`
	LabelPlural      string `json:"label_plural" yaml:"label_plural"`
}

// LoadFS walks fsys and parses JSON/YAML settings files. A nil fsys yields an
// empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{fields: make(map[string]model.Settings)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSettingsFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("settings: read %s: %w", path, err)
		}
		return store.merge(data, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Parse reads a single JSON or YAML document.
func Parse(data []byte, source string) (*Store, error) {
	store := &Store{fields: make(map[string]model.Settings)}
	if err := store.merge(data, source); err != nil {
		return nil, err
	}
	return store, nil
}

// Field returns the settings for name, falling back to DefaultSettings.
func (s *Store) Field(name string) (model.Settings, bool) {
	if s == nil {
		return DefaultSettings(), false
	}
	out, ok := s.fields[strings.TrimSpace(name)]
	if !ok {
		return DefaultSettings(), false
	}
	return out, true
}

// Fields lists configured field names.
func (s *Store) Fields() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) merge(data []byte, source string) error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return err
	}
	for rawName, raw := range doc.Fields {
		name := strings.TrimSpace(rawName)
		if name == "" {
			return fmt.Errorf("settings: file %s defines an empty field name", source)
		}
		if _, exists := s.fields[name]; exists {
			return fmt.Errorf("settings: duplicate field %q (file %s)", name, source)
		}
		out, err := normaliseField(raw, name, source)
		if err != nil {
			return err
		}
		s.fields[name] = out
	}
	return nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("settings: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("settings: parse %s: invalid JSON or YAML", source)
}

func normaliseField(raw fieldFile, name, source string) (model.Settings, error) {
	out := DefaultSettings()
	if raw.AllowExisting != nil {
		out.AllowExisting = *raw.AllowExisting
	}
	if raw.DeleteReferences != nil {
		out.DeleteReferences = *raw.DeleteReferences
	}
	if raw.OverrideLabels != nil {
		out.OverrideLabels = *raw.OverrideLabels
	}
	if op := strings.TrimSpace(raw.MatchOperator); op != "" {
		candidate := model.MatchOperator(strings.ToUpper(op))
		if !candidate.Valid() {
			return model.Settings{}, fmt.Errorf("settings: field %q (file %s): unknown match_operator %q", name, source, op)
		}
		out.MatchOperator = candidate
	}
	out.LabelSingular = raw.LabelSingular
	out.LabelPlural = raw.LabelPlural
	if out.OverrideLabels && (strings.TrimSpace(out.LabelSingular) == "" || strings.TrimSpace(out.LabelPlural) == "") {
		return model.Settings{}, fmt.Errorf("settings: field %q (file %s): override_labels requires label_singular and label_plural", name, source)
	}
	return Normalize(out), nil
}

func isSettingsFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
