//go:build !darwin

package clipboard

import "sync"

// In-memory fallback so the rest of the app keeps working on platforms
// without a clipboard backend.
var (
	fallbackMu   sync.RWMutex
	fallbackText string
)

func getClipboardText() (string, error) {
	fallbackMu.RLock()
	defer fallbackMu.RUnlock()
	return fallbackText, nil
}

func setClipboardText(text string) error {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	fallbackText = text
	return nil
}
