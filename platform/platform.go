// Package platform exposes the host primitives the delivery path depends
// on: foreground application queries, application activation and paste
// keystroke synthesis.
package platform

import "errors"

// ErrUnsupported is returned on platforms without an implementation.
var ErrUnsupported = errors.New("platform: unsupported platform")

// FrontmostApp returns the identifier of the frontmost application, or an
// empty string when it cannot be determined.
func FrontmostApp() string {
	return frontmostApp()
}

// Activate brings the application with the given identifier to the
// foreground.
func Activate(appID string) error {
	return activateApp(appID)
}

// SendPaste synthesizes the platform paste keystroke into the focused
// application. Fails when system automation permission is missing.
func SendPaste() error {
	return sendPaste()
}
