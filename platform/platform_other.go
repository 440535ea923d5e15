//go:build !darwin

package platform

func frontmostApp() string { return "" }

func activateApp(appID string) error { return ErrUnsupported }

func sendPaste() error { return ErrUnsupported }
