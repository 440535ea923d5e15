// Package prefs handles user preferences: dictionary entries, shortcuts and
// tone styles.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/whispermate/whispermate/internal/types"
)

const (
	appName        = "whispermate"
	configFileName = "config.json"
)

// Store holds user preferences and persists every mutation. Safe for
// concurrent use.
type Store struct {
	mu   sync.RWMutex
	path string
	data file
}

// file is the on-disk representation.
type file struct {
	Settings   Settings                `json:"settings"`
	Dictionary []types.DictionaryEntry `json:"dictionary,omitempty"`
	Shortcuts  []types.Shortcut        `json:"shortcuts,omitempty"`
	ToneStyles []types.ToneStyle       `json:"tone_styles,omitempty"`
}

// Settings holds the transcription service credentials and the trigger key.
type Settings struct {
	APIKey         string `json:"apiKey"`
	BaseURL        string `json:"baseUrl,omitempty"`
	Model          string `json:"model,omitempty"`
	TriggerKeycode uint16 `json:"triggerKeycode,omitempty"`
}

// Load reads preferences from the config file. A missing file yields an
// empty store.
func Load() (*Store, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// Empty returns a store bound to the default config path without reading
// the file, so a failed Load can fall back to a store whose mutations
// still persist.
func Empty() *Store {
	path, err := configPath()
	if err != nil {
		path = filepath.Join(os.TempDir(), appName, configFileName)
	}
	return &Store{path: path}
}

// LoadFrom reads preferences from an explicit path.
func LoadFrom(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return s, nil
}

func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName, configFileName), nil
}

// save persists the current state. Callers must hold the write lock.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Settings returns the service settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Settings
}

// SetSettings replaces the service settings and persists them.
func (s *Store) SetSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Settings = settings
	return s.save()
}

// ─────────────────────────────────────────────────────────────────────────────
// Enabled-filtered reads
// ─────────────────────────────────────────────────────────────────────────────

// EnabledDictionary returns a copy of all enabled dictionary entries.
func (s *Store) EnabledDictionary() []types.DictionaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.DictionaryEntry
	for _, e := range s.data.Dictionary {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// EnabledShortcuts returns a copy of all enabled shortcuts.
func (s *Store) EnabledShortcuts() []types.Shortcut {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Shortcut
	for _, sc := range s.data.Shortcuts {
		if sc.Enabled {
			out = append(out, sc)
		}
	}
	return out
}

// EnabledToneStyles returns a copy of all enabled tone styles.
func (s *Store) EnabledToneStyles() []types.ToneStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.ToneStyle
	for _, t := range s.data.ToneStyles {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Dictionary CRUD
// ─────────────────────────────────────────────────────────────────────────────

// Dictionary returns all dictionary entries.
func (s *Store) Dictionary() []types.DictionaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Dictionary)
}

// AddDictionaryEntry adds a new entry, assigning it an id.
func (s *Store) AddDictionaryEntry(e types.DictionaryEntry) error {
	if e.Trigger == "" {
		return fmt.Errorf("dictionary entry trigger is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	s.data.Dictionary = append(s.data.Dictionary, e)
	return s.save()
}

// UpdateDictionaryEntry replaces the entry with the given id.
func (s *Store) UpdateDictionaryEntry(id string, e types.DictionaryEntry) error {
	if e.Trigger == "" {
		return fmt.Errorf("dictionary entry trigger is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.Dictionary, func(x types.DictionaryEntry) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("dictionary entry not found: %s", id)
	}

	e.ID = id
	s.data.Dictionary[idx] = e
	return s.save()
}

// RemoveDictionaryEntry removes the entry with the given id.
func (s *Store) RemoveDictionaryEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.Dictionary, func(x types.DictionaryEntry) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("dictionary entry not found: %s", id)
	}

	s.data.Dictionary = slices.Delete(s.data.Dictionary, idx, idx+1)
	return s.save()
}

// ─────────────────────────────────────────────────────────────────────────────
// Shortcut CRUD
// ─────────────────────────────────────────────────────────────────────────────

// Shortcuts returns all shortcuts.
func (s *Store) Shortcuts() []types.Shortcut {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Shortcuts)
}

// AddShortcut adds a new shortcut, assigning it an id.
func (s *Store) AddShortcut(sc types.Shortcut) error {
	if sc.Trigger == "" || sc.Expansion == "" {
		return fmt.Errorf("shortcut trigger and expansion are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc.ID = uuid.NewString()
	s.data.Shortcuts = append(s.data.Shortcuts, sc)
	return s.save()
}

// UpdateShortcut replaces the shortcut with the given id.
func (s *Store) UpdateShortcut(id string, sc types.Shortcut) error {
	if sc.Trigger == "" || sc.Expansion == "" {
		return fmt.Errorf("shortcut trigger and expansion are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.Shortcuts, func(x types.Shortcut) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("shortcut not found: %s", id)
	}

	sc.ID = id
	s.data.Shortcuts[idx] = sc
	return s.save()
}

// RemoveShortcut removes the shortcut with the given id.
func (s *Store) RemoveShortcut(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.Shortcuts, func(x types.Shortcut) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("shortcut not found: %s", id)
	}

	s.data.Shortcuts = slices.Delete(s.data.Shortcuts, idx, idx+1)
	return s.save()
}

// ─────────────────────────────────────────────────────────────────────────────
// Tone style CRUD
// ─────────────────────────────────────────────────────────────────────────────

// ToneStyles returns all tone styles.
func (s *Store) ToneStyles() []types.ToneStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.ToneStyles)
}

// AddToneStyle adds a new tone style, assigning it an id.
func (s *Store) AddToneStyle(t types.ToneStyle) error {
	if t.Name == "" || t.Instructions == "" {
		return fmt.Errorf("tone style name and instructions are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	s.data.ToneStyles = append(s.data.ToneStyles, t)
	return s.save()
}

// UpdateToneStyle replaces the tone style with the given id.
func (s *Store) UpdateToneStyle(id string, t types.ToneStyle) error {
	if t.Name == "" || t.Instructions == "" {
		return fmt.Errorf("tone style name and instructions are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.ToneStyles, func(x types.ToneStyle) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("tone style not found: %s", id)
	}

	t.ID = id
	s.data.ToneStyles[idx] = t
	return s.save()
}

// RemoveToneStyle removes the tone style with the given id.
func (s *Store) RemoveToneStyle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.data.ToneStyles, func(x types.ToneStyle) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("tone style not found: %s", id)
	}

	s.data.ToneStyles = slices.Delete(s.data.ToneStyles, idx, idx+1)
	return s.save()
}
