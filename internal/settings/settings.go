// Package settings reads and writes the user-editable Config.json.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"resume-tailor/resume/model"
)

const (
	DefaultModel = "gpt-4o"
	// DefaultSeparator joins a list key and its 1-based index ("Bullet1").
	DefaultSeparator = ""
)

// Settings are the values under the "Settings" key of Config.json.
type Settings struct {
	GPTModel           string `json:"GPT Model"`
	AutoArchiveExpired bool   `json:"Auto Archive Expired Applications"`
	ListKeySeparator   string `json:"List Key Separator"`
}

// Defaults returns the settings used when Config.json is absent.
func Defaults() Settings {
	return Settings{GPTModel: DefaultModel, ListKeySeparator: DefaultSeparator}
}

type document struct {
	Settings Settings `json:"Settings"`
}

// Store guards access to one Config.json file.
type Store struct {
	path         string
	defaultModel string
	mu           sync.Mutex
}

// NewStore returns a Store for the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, defaultModel: DefaultModel}
}

// WithDefaultModel sets the model used when Config.json names none.
func (s *Store) WithDefaultModel(name string) *Store {
	if name = strings.TrimSpace(name); name != "" {
		s.defaultModel = name
	}
	return s
}

func (s *Store) defaults() Settings {
	d := Defaults()
	d.GPTModel = s.defaultModel
	return d
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the settings. A missing file yields the defaults, as do keys
// absent from the file. A blank model name falls back to the default model.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.defaults(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	doc := document{Settings: s.defaults()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s.normalize(doc.Settings), nil
}

// readDocument returns the whole Config.json, or nil when it does not exist.
func (s *Store) readDocument() (model.Fields, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var doc model.Fields
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return doc, nil
}

// Patch holds optional changes to Settings.
type Patch struct {
	GPTModel           *string `json:"GPT Model,omitempty"`
	AutoArchiveExpired *bool   `json:"Auto Archive Expired Applications,omitempty"`
	ListKeySeparator   *string `json:"List Key Separator,omitempty"`
}

// Update applies patch to the stored settings and rewrites the file. Other
// keys in the file, inside "Settings" or beside it, are kept.
func (s *Store) Update(patch Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	if patch.GPTModel != nil {
		current.GPTModel = *patch.GPTModel
	}
	if patch.AutoArchiveExpired != nil {
		current.AutoArchiveExpired = *patch.AutoArchiveExpired
	}
	if patch.ListKeySeparator != nil {
		current.ListKeySeparator = *patch.ListKeySeparator
	}
	current = s.normalize(current)

	doc, err := s.readDocument()
	if err != nil {
		return Settings{}, err
	}
	section, _ := doc.Get("Settings")
	fields, _ := section.(model.Fields)
	fields = fields.Clone().
		Set("GPT Model", current.GPTModel).
		Set("Auto Archive Expired Applications", current.AutoArchiveExpired).
		Set("List Key Separator", current.ListKeySeparator)
	doc = doc.Set("Settings", fields)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Settings{}, fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644); err != nil {
		return Settings{}, fmt.Errorf("write settings: %w", err)
	}
	return current, nil
}

func (s *Store) normalize(settings Settings) Settings {
	settings.GPTModel = strings.TrimSpace(settings.GPTModel)
	if settings.GPTModel == "" {
		settings.GPTModel = s.defaultModel
	}
	return settings
}
