// Package prompt assembles the bias prompt sent alongside audio to improve
// transcription accuracy for known vocabulary and phrases.
package prompt

import (
	"strings"

	"github.com/whispermate/whispermate/internal/types"
)

// Snapshot holds the preference state captured at processing time. Build is a
// pure function of a Snapshot; later preference edits do not affect a session
// already in flight.
type Snapshot struct {
	Dictionary    []types.DictionaryEntry
	Shortcuts     []types.Shortcut
	ToneStyles    []types.ToneStyle
	ForegroundApp string // captured at trigger-start, not at build time
}

// Build joins up to three segments with ". ": vocabulary hints from
// dictionary triggers, common phrases from shortcut triggers, and tone
// instructions scoped to the foreground app. Empty segments are omitted.
func Build(snap Snapshot) string {
	var segments []string

	if hints := triggers(snap.Dictionary); len(hints) > 0 {
		segments = append(segments, "Vocabulary hints: "+strings.Join(hints, ", "))
	}

	var phrases []string
	for _, s := range snap.Shortcuts {
		if s.Enabled && s.Trigger != "" {
			phrases = append(phrases, s.Trigger)
		}
	}
	if len(phrases) > 0 {
		segments = append(segments, "Common phrases: "+strings.Join(phrases, ", "))
	}

	var tones []string
	for _, t := range snap.ToneStyles {
		if t.Enabled && t.Instructions != "" && t.AppliesTo(snap.ForegroundApp) {
			tones = append(tones, t.Instructions)
		}
	}
	if len(tones) > 0 {
		segments = append(segments, strings.Join(tones, " "))
	}

	return strings.Join(segments, ". ")
}

// triggers collects enabled dictionary triggers. Hint-only entries count
// here even though the transformation engine ignores them.
func triggers(dict []types.DictionaryEntry) []string {
	var out []string
	for _, e := range dict {
		if e.Enabled && e.Trigger != "" {
			out = append(out, e.Trigger)
		}
	}
	return out
}
