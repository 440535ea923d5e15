// Package transform rewrites raw transcripts using user-defined rules.
//
// Two stages run in order: dictionary replacements, then shortcut
// expansions. Each stage applies its rules longest-trigger-first so a short
// trigger can never shadow a longer one containing it. This is a single
// forward pass: expanded text is not re-scanned by either stage.
package transform

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/whispermate/whispermate/internal/types"
)

// rule is a single trigger -> output rewrite, normalized for matching.
type rule struct {
	trigger string
	folded  string // case-folded trigger
	output  string
}

// Apply runs the dictionary stage then the shortcut stage over raw and
// returns the trimmed result. An empty result is a valid outcome.
//
// Dictionary entries without a replacement are vocabulary hints only and are
// skipped here. Matching is case-insensitive in both stages.
func Apply(raw string, dict []types.DictionaryEntry, shortcuts []types.Shortcut) string {
	caser := cases.Fold()

	rules := make([]rule, 0, len(dict))
	for _, e := range dict {
		if !e.Enabled || e.Replacement == nil || e.Trigger == "" {
			continue
		}
		rules = append(rules, rule{trigger: e.Trigger, folded: caser.String(e.Trigger), output: *e.Replacement})
	}
	text := applyRules(raw, rules, caser)

	rules = rules[:0]
	for _, s := range shortcuts {
		if !s.Enabled || s.Trigger == "" {
			continue
		}
		rules = append(rules, rule{trigger: s.Trigger, folded: caser.String(s.Trigger), output: s.Expansion})
	}
	text = applyRules(text, rules, caser)

	return strings.TrimSpace(text)
}

// applyRules scans text once, trying rules longest trigger first at every
// position. Rule output is emitted verbatim and never rescanned.
func applyRules(text string, rules []rule, caser cases.Caser) string {
	if len(rules) == 0 {
		return text
	}
	sortByTriggerLen(rules)

	var b strings.Builder
	for i := 0; i < len(text); {
		matched := false
		for _, r := range rules {
			if n := matchLen(text[i:], r.folded, caser); n > 0 {
				b.WriteString(r.output)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			ch, size := utf8.DecodeRuneInString(text[i:])
			b.WriteRune(ch)
			i += size
		}
	}
	return b.String()
}

// sortByTriggerLen orders rules by descending trigger rune count, keeping
// the incoming order for equal lengths.
func sortByTriggerLen(rules []rule) {
	slices.SortStableFunc(rules, func(a, b rule) int {
		return utf8.RuneCountInString(b.trigger) - utf8.RuneCountInString(a.trigger)
	})
}

// matchLen returns the byte length of the prefix of s whose case fold equals
// foldedTrigger, or 0 when no prefix matches.
func matchLen(s, foldedTrigger string, caser cases.Caser) int {
	var folded strings.Builder
	for i := 0; i < len(s); {
		ch, size := utf8.DecodeRuneInString(s[i:])
		folded.WriteString(caser.String(string(ch)))
		i += size

		f := folded.String()
		if f == foldedTrigger {
			return i
		}
		if !strings.HasPrefix(foldedTrigger, f) {
			return 0
		}
	}
	return 0
}
