package prefs

import (
	"path/filepath"
	"testing"

	"github.com/whispermate/whispermate/internal/types"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return s
}

func TestStore_DictionaryCRUD(t *testing.T) {
	s := tempStore(t)
	replacement := "the"

	if err := s.AddDictionaryEntry(types.DictionaryEntry{Trigger: "teh", Replacement: &replacement, Enabled: true}); err != nil {
		t.Fatalf("AddDictionaryEntry() error = %v", err)
	}
	if err := s.AddDictionaryEntry(types.DictionaryEntry{Trigger: "", Enabled: true}); err == nil {
		t.Error("AddDictionaryEntry() with empty trigger: want error")
	}

	entries := s.Dictionary()
	if len(entries) != 1 {
		t.Fatalf("Dictionary() returned %d entries, want 1", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("added entry has no id")
	}

	entry := entries[0]
	entry.Enabled = false
	if err := s.UpdateDictionaryEntry(entry.ID, entry); err != nil {
		t.Fatalf("UpdateDictionaryEntry() error = %v", err)
	}
	if got := s.EnabledDictionary(); len(got) != 0 {
		t.Errorf("EnabledDictionary() returned %d entries after disable, want 0", len(got))
	}

	if err := s.RemoveDictionaryEntry(entry.ID); err != nil {
		t.Fatalf("RemoveDictionaryEntry() error = %v", err)
	}
	if err := s.RemoveDictionaryEntry(entry.ID); err == nil {
		t.Error("RemoveDictionaryEntry() twice: want error")
	}
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if err := s.AddShortcut(types.Shortcut{Trigger: "new paragraph", Expansion: "\n\n", Enabled: true}); err != nil {
		t.Fatalf("AddShortcut() error = %v", err)
	}
	if err := s.AddToneStyle(types.ToneStyle{Name: "casual", Instructions: "Keep it casual.", Enabled: true}); err != nil {
		t.Fatalf("AddToneStyle() error = %v", err)
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() after save error = %v", err)
	}
	if got := reloaded.EnabledShortcuts(); len(got) != 1 || got[0].Trigger != "new paragraph" {
		t.Errorf("EnabledShortcuts() after reload = %+v, want the saved shortcut", got)
	}
	if got := reloaded.EnabledToneStyles(); len(got) != 1 || got[0].Name != "casual" {
		t.Errorf("EnabledToneStyles() after reload = %+v, want the saved style", got)
	}
}

func TestStore_EnabledFilters(t *testing.T) {
	s := tempStore(t)

	if err := s.AddShortcut(types.Shortcut{Trigger: "on", Expansion: "x", Enabled: true}); err != nil {
		t.Fatalf("AddShortcut() error = %v", err)
	}
	if err := s.AddShortcut(types.Shortcut{Trigger: "off", Expansion: "y", Enabled: false}); err != nil {
		t.Fatalf("AddShortcut() error = %v", err)
	}

	got := s.EnabledShortcuts()
	if len(got) != 1 || got[0].Trigger != "on" {
		t.Errorf("EnabledShortcuts() = %+v, want only the enabled shortcut", got)
	}
	if all := s.Shortcuts(); len(all) != 2 {
		t.Errorf("Shortcuts() returned %d, want 2", len(all))
	}
}

func TestStore_SettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := Settings{APIKey: "sk-test", Model: "whisper-1", TriggerKeycode: 105}
	if err := s.SetSettings(want); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}
	if got := s.Settings(); got != want {
		t.Errorf("Settings() = %+v, want %+v", got, want)
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() after save error = %v", err)
	}
	if got := reloaded.Settings(); got != want {
		t.Errorf("Settings() after reload = %+v, want %+v", got, want)
	}
}

func TestEmpty_PersistsToDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	s := Empty()
	if s.path == "" {
		t.Fatal("Empty() store has no config path")
	}
	if err := s.SetSettings(Settings{APIKey: "sk-fallback"}); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.Settings().APIKey; got != "sk-fallback" {
		t.Errorf("APIKey = %q, want %q", got, "sk-fallback")
	}
}
