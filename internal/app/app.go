package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/whispermate/whispermate/audiocapture"
	"github.com/whispermate/whispermate/delivery"
	"github.com/whispermate/whispermate/gateway"
	"github.com/whispermate/whispermate/history"
	"github.com/whispermate/whispermate/internal/types"
	"github.com/whispermate/whispermate/platform"
	"github.com/whispermate/whispermate/prefs"
	"github.com/whispermate/whispermate/recorder"
	"github.com/whispermate/whispermate/session"
	"github.com/whispermate/whispermate/trigger"
)

const (
	appName   = "whispermate"
	selfAppID = "com.whispermate.app"

	// Capture rate expected by the transcription service.
	sampleRate = 16000
)

// Service is the application service bound to Wails.
type Service struct {
	app    *application.App
	window application.Window

	prefs   *prefs.Store
	history *history.Store

	controller *session.Controller
	monitor    *trigger.Monitor
	cancel     context.CancelFunc

	gwMu sync.RWMutex
	gw   *gateway.Client

	trigMu    sync.RWMutex
	keySource *trigger.KeySource
}

// New creates the service. Call Init from main once the Wails app and
// window exist.
func New() *Service {
	return &Service{}
}

// ─────────────────────────────────────────────────────────────────────────────
// Initialization (called from main)
// ─────────────────────────────────────────────────────────────────────────────

// Init initializes the service with references to app and window.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window

	p, err := prefs.Load()
	if err != nil {
		slog.Error("load preferences", "error", err)
		p = prefs.Empty()
	}
	s.prefs = p

	s.setupHistory()
	s.rebuildGateway()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.setupController(ctx)
	s.setupTrigger(ctx)
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.trigMu.Lock()
	if s.keySource != nil {
		s.keySource.Stop()
		s.keySource = nil
	}
	s.trigMu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Error("close history", "error", err)
		}
	}
}

func (s *Service) setupHistory() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		slog.Error("get config dir for history", "error", err)
		return
	}

	historyPath := filepath.Join(configDir, appName, "history")
	h, err := history.Open(historyPath)
	if err != nil {
		slog.Error("open history", "error", err)
		return
	}
	s.history = h
	slog.Info("history opened", "path", historyPath)
}

func (s *Service) setupController(ctx context.Context) {
	capture, err := audiocapture.New(sampleRate)
	if err != nil {
		slog.Error("init audio capture", "error", err)
		return
	}

	var hist session.History = discardHistory{}
	if s.history != nil {
		hist = s.history
	}

	s.controller = session.New(session.Config{
		Recorder:  recorder.NewMic(capture),
		Gateway:   transcriberFunc(s.transcribe),
		Prefs:     s.prefs,
		Deliverer: delivery.NewClipboardPaste(),
		History:   hist,
		Frontmost: platform.FrontmostApp,
		SelfAppID: selfAppID,
	})

	go s.controller.Run(ctx)
	go s.pumpEvents(ctx)
}

func (s *Service) setupTrigger(ctx context.Context) {
	if s.controller == nil {
		return
	}

	keycode := s.prefs.Settings().TriggerKeycode
	if keycode == 0 {
		keycode = trigger.DefaultKeycode
	}

	s.trigMu.Lock()
	s.keySource = trigger.NewKeySource(keycode)
	s.keySource.Start()
	s.trigMu.Unlock()

	s.monitor = trigger.NewMonitor(s.triggerState)
	s.monitor.Start(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-s.monitor.Edges():
				switch e {
				case trigger.EdgePress:
					if err := s.controller.TriggerStart(); err != nil {
						slog.Debug("trigger ignored", "error", err)
					}
				case trigger.EdgeRelease:
					s.controller.TriggerStop()
				}
			}
		}
	}()
}

// triggerState reads the current key source so the monitor survives a
// trigger-key change.
func (s *Service) triggerState() bool {
	s.trigMu.RLock()
	k := s.keySource
	s.trigMu.RUnlock()
	if k == nil {
		return false
	}
	return k.State()
}

// pumpEvents forwards controller notifications and telemetry to the
// frontend.
func (s *Service) pumpEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.controller.Notifications():
			if n.Inline {
				s.emit(EventSessionNotice, SessionNotice{Message: n.Failure.Message})
				continue
			}
			ev := SessionState{State: n.State.String()}
			if !n.Failure.Silent() {
				ev.Message = n.Failure.Message
			}
			s.emit(EventSessionState, ev)
		case t := <-s.controller.Telemetry():
			s.emit(EventAudioTelemetry, t)
		}
	}
}

func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Gateway
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) rebuildGateway() {
	settings := s.prefs.Settings()
	if settings.APIKey == "" {
		s.gwMu.Lock()
		s.gw = nil
		s.gwMu.Unlock()
		slog.Warn("no api key configured, transcription disabled")
		return
	}

	client := gateway.New(gateway.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})

	s.gwMu.Lock()
	s.gw = client
	s.gwMu.Unlock()
}

func (s *Service) transcribe(ctx context.Context, audioPath, biasPrompt string) (string, error) {
	s.gwMu.RLock()
	client := s.gw
	s.gwMu.RUnlock()

	if client == nil {
		return "", errors.New("transcription service not configured")
	}
	return client.Transcribe(ctx, audioPath, biasPrompt)
}

type transcriberFunc func(ctx context.Context, audioPath, biasPrompt string) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, audioPath, biasPrompt string) (string, error) {
	return f(ctx, audioPath, biasPrompt)
}

// discardHistory stands in when the history store failed to open.
type discardHistory struct{}

func (discardHistory) Add(rec types.Recording) (types.Recording, error) {
	return rec, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Session (bound)
// ─────────────────────────────────────────────────────────────────────────────

// ErrNoController covers startup without a working audio capture backend.
var ErrNoController = errors.New("dictation unavailable")

// GetSessionState returns the controller state name.
func (s *Service) GetSessionState() string {
	if s.controller == nil {
		return session.StateIdle.String()
	}
	return s.controller.CurrentState().String()
}

// StartDictation begins a session from the UI, mirroring a trigger press.
func (s *Service) StartDictation() error {
	if s.controller == nil {
		return ErrNoController
	}
	return s.controller.TriggerStart()
}

// StopDictation ends the capture phase, mirroring a trigger release.
func (s *Service) StopDictation() error {
	if s.controller == nil {
		return ErrNoController
	}
	s.controller.TriggerStop()
	return nil
}

// ResetSession abandons any in-flight session, used when the app is
// backgrounded.
func (s *Service) ResetSession() {
	if s.controller != nil {
		s.controller.Reset()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings (delegated to prefs)
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) GetSettings() prefs.Settings {
	return s.prefs.Settings()
}

func (s *Service) SetSettings(settings prefs.Settings) error {
	prev := s.prefs.Settings()
	if err := s.prefs.SetSettings(settings); err != nil {
		return err
	}

	s.rebuildGateway()

	if settings.TriggerKeycode != prev.TriggerKeycode {
		keycode := settings.TriggerKeycode
		if keycode == 0 {
			keycode = trigger.DefaultKeycode
		}
		s.trigMu.Lock()
		if s.keySource != nil {
			s.keySource.Stop()
		}
		s.keySource = trigger.NewKeySource(keycode)
		s.keySource.Start()
		s.trigMu.Unlock()
	}
	return nil
}

func (s *Service) GetDictionary() []types.DictionaryEntry {
	return s.prefs.Dictionary()
}

func (s *Service) AddDictionaryEntry(e types.DictionaryEntry) error {
	return s.prefs.AddDictionaryEntry(e)
}

func (s *Service) UpdateDictionaryEntry(id string, e types.DictionaryEntry) error {
	return s.prefs.UpdateDictionaryEntry(id, e)
}

func (s *Service) RemoveDictionaryEntry(id string) error {
	return s.prefs.RemoveDictionaryEntry(id)
}

func (s *Service) GetShortcuts() []types.Shortcut {
	return s.prefs.Shortcuts()
}

func (s *Service) AddShortcut(sc types.Shortcut) error {
	return s.prefs.AddShortcut(sc)
}

func (s *Service) UpdateShortcut(id string, sc types.Shortcut) error {
	return s.prefs.UpdateShortcut(id, sc)
}

func (s *Service) RemoveShortcut(id string) error {
	return s.prefs.RemoveShortcut(id)
}

func (s *Service) GetToneStyles() []types.ToneStyle {
	return s.prefs.ToneStyles()
}

func (s *Service) AddToneStyle(t types.ToneStyle) error {
	return s.prefs.AddToneStyle(t)
}

func (s *Service) UpdateToneStyle(id string, t types.ToneStyle) error {
	return s.prefs.UpdateToneStyle(id, t)
}

func (s *Service) RemoveToneStyle(id string) error {
	return s.prefs.RemoveToneStyle(id)
}

// ─────────────────────────────────────────────────────────────────────────────
// History (bound)
// ─────────────────────────────────────────────────────────────────────────────

var errNoHistory = errors.New("history unavailable")

// GetRecordings returns all recordings, most recent first.
func (s *Service) GetRecordings() ([]types.Recording, error) {
	if s.history == nil {
		return nil, errNoHistory
	}
	return s.history.List()
}

func (s *Service) DeleteRecording(id string) error {
	if s.history == nil {
		return errNoHistory
	}
	return s.history.Delete(id)
}

func (s *Service) ClearHistory() error {
	if s.history == nil {
		return errNoHistory
	}
	return s.history.ClearAll()
}

// ─────────────────────────────────────────────────────────────────────────────
// Window
// ─────────────────────────────────────────────────────────────────────────────

// ShowWindow brings the main window to the front.
func (s *Service) ShowWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}
