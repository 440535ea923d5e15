// Package clipboard provides access to the system clipboard.
package clipboard

// GetText returns the current clipboard text. An empty string with nil
// error means the clipboard holds no text.
func GetText() (string, error) {
	return getClipboardText()
}

// SetText replaces the clipboard content with the given text.
func SetText(text string) error {
	return setClipboardText(text)
}
