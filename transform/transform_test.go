package transform

import (
	"testing"

	"github.com/whispermate/whispermate/internal/types"
)

func strPtr(s string) *string { return &s }

func dictEntry(trigger, replacement string) types.DictionaryEntry {
	return types.DictionaryEntry{Trigger: trigger, Replacement: strPtr(replacement), Enabled: true}
}

func shortcut(trigger, expansion string) types.Shortcut {
	return types.Shortcut{Trigger: trigger, Expansion: expansion, Enabled: true}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		dict      []types.DictionaryEntry
		shortcuts []types.Shortcut
		want      string
	}{
		{
			name: "dictionary replacement",
			raw:  "I went teh store",
			dict: []types.DictionaryEntry{dictEntry("teh", "the")},
			want: "I went the store",
		},
		{
			name:      "shortcut expansion after dictionary stage",
			raw:       "end sentence new paragraph next",
			shortcuts: []types.Shortcut{shortcut("new paragraph", "\n\n")},
			want:      "end sentence \n\n next",
		},
		{
			name: "case insensitive matching",
			raw:  "TEH cat and Teh dog",
			dict: []types.DictionaryEntry{dictEntry("teh", "the")},
			want: "the cat and the dog",
		},
		{
			name: "longer trigger wins over contained shorter one",
			raw:  "go to the big apple today",
			dict: []types.DictionaryEntry{
				dictEntry("apple", "Apple Inc"),
				dictEntry("big apple", "New York"),
			},
			want: "go to the New York today",
		},
		{
			name: "hint-only entry is never applied",
			raw:  "meet at kubernetes",
			dict: []types.DictionaryEntry{
				{Trigger: "kubernetes", Enabled: true},
			},
			want: "meet at kubernetes",
		},
		{
			name: "disabled rules are skipped",
			raw:  "teh end",
			dict: []types.DictionaryEntry{
				{Trigger: "teh", Replacement: strPtr("the"), Enabled: false},
			},
			want: "teh end",
		},
		{
			name:      "shortcut output is not re-scanned for dictionary triggers",
			raw:       "say sig",
			dict:      []types.DictionaryEntry{dictEntry("cheers", "CHEERS")},
			shortcuts: []types.Shortcut{shortcut("sig", "cheers, Dana")},
			want:      "say cheers, Dana",
		},
		{
			name: "whitespace-only result trims to empty",
			raw:  "  um  ",
			dict: []types.DictionaryEntry{dictEntry("um", "")},
			want: "",
		},
		{
			name: "no rules passes text through trimmed",
			raw:  "  hello world  ",
			want: "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.raw, tt.dict, tt.shortcuts)
			if got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestApply_OrderIndependence verifies that for rule sets where no trigger is
// a substring of another, the input order of the rules does not matter.
func TestApply_OrderIndependence(t *testing.T) {
	raw := "alpha bravo charlie delta"
	a := dictEntry("alpha", "one")
	b := dictEntry("bravo", "two")
	c := dictEntry("charlie", "three")

	want := Apply(raw, []types.DictionaryEntry{a, b, c}, nil)

	orders := [][]types.DictionaryEntry{
		{a, c, b},
		{b, a, c},
		{c, b, a},
	}
	for _, dict := range orders {
		if got := Apply(raw, dict, nil); got != want {
			t.Errorf("Apply() = %q with order %v, want %q", got, dict, want)
		}
	}
}

// TestApply_Idempotent verifies that transforming an already-transformed text
// a second time produces no further changes, given no expansion reintroduces
// a trigger.
func TestApply_Idempotent(t *testing.T) {
	dict := []types.DictionaryEntry{dictEntry("teh", "the")}
	shortcuts := []types.Shortcut{shortcut("new paragraph", "\n\n")}

	once := Apply("teh report new paragraph teh summary", dict, shortcuts)
	twice := Apply(once, dict, shortcuts)

	if once != twice {
		t.Errorf("second Apply() = %q, want unchanged %q", twice, once)
	}
}
