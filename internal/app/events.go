// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	EventSessionState   = "session-state"
	EventSessionNotice  = "session-notice"
	EventAudioTelemetry = "audio-telemetry"
)

// SessionState is emitted on every controller state change.
type SessionState struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// SessionNotice is emitted for inline notices that do not change state,
// such as a rejected recording start.
type SessionNotice struct {
	Message string `json:"message"`
}
