// Package types provides shared type definitions for the application.
package types

import "time"

// DictionaryEntry corrects a recurring misrecognition. Entries without a
// Replacement act purely as vocabulary hints for the transcription prompt
// and are never applied as rewrites.
type DictionaryEntry struct {
	ID          string  `json:"id"`
	Trigger     string  `json:"trigger"`
	Replacement *string `json:"replacement,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// Shortcut expands a spoken trigger phrase into longer text.
type Shortcut struct {
	ID        string `json:"id"`
	Trigger   string `json:"trigger"`
	Expansion string `json:"expansion"`
	Enabled   bool   `json:"enabled"`
}

// ToneStyle carries writing-style instructions included in the transcription
// prompt. An empty AppScope applies to every foreground application.
type ToneStyle struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	AppScope     []string `json:"app_scope,omitempty"`
	Instructions string   `json:"instructions"`
	Enabled      bool     `json:"enabled"`
}

// AppliesTo reports whether the style is in scope for the given foreground
// application identifier.
func (t ToneStyle) AppliesTo(appID string) bool {
	if len(t.AppScope) == 0 {
		return true
	}
	for _, id := range t.AppScope {
		if id == appID {
			return true
		}
	}
	return false
}

// Recording is one successfully delivered dictation, immutable once stored.
type Recording struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Transcript    string    `json:"transcript"`
	DurationMs    int64     `json:"duration_ms"`
	AudioFilePath string    `json:"audio_file_path,omitempty"`
}

// Telemetry is a single sample of live capture feedback. Owned by the active
// session and never retained after it ends.
type Telemetry struct {
	Level    float32   `json:"level"` // RMS in [0,1]
	Bands    []float32 `json:"bands,omitempty"`
	AutoStop bool      `json:"autoStop"` // edge: detected silence after speech
}

// DeliveryOutcome reports how text delivery went. A soft failure means the
// primary objective was still met (text left on the clipboard).
type DeliveryOutcome struct {
	Delivered   bool   `json:"delivered"`
	SoftFailure string `json:"softFailure,omitempty"`
}
