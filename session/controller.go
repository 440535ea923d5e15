// Package session owns the dictation session lifecycle.
//
// The Controller is a finite-state machine sequencing capture,
// transcription, text transformation and delivery. All state lives on a
// single event-loop goroutine: trigger commands, telemetry, gateway
// completions and timers funnel into that loop, and nothing touches session
// state from outside it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/whispermate/whispermate/delivery"
	"github.com/whispermate/whispermate/gateway"
	"github.com/whispermate/whispermate/internal/types"
	"github.com/whispermate/whispermate/prompt"
	"github.com/whispermate/whispermate/transform"
)

// State is the controller state. Only Idle is non-transient.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
	StateResult
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// FailureKind classifies what went wrong with a session.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailurePermissionDenied
	FailureCapture
	FailureBelowMinDuration
	FailureNetwork
	FailureAPI
	FailureEmptyResult
)

// Failure pairs a failure kind with a displayable message.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Silent reports whether the failure produces no visible change for the
// user.
func (f Failure) Silent() bool {
	switch f.Kind {
	case FailureBelowMinDuration, FailureEmptyResult, FailureNone:
		return true
	}
	return false
}

// Notification is a controller event for the UI layer. Inline
// notifications carry a start-rejection notice without a state change.
type Notification struct {
	State   State
	Failure Failure
	Inline  bool
}

// ErrNotIdle rejects a trigger-start while a session is active.
var ErrNotIdle = errors.New("session already active")

// Recorder is the capture collaborator.
type Recorder interface {
	Start() error
	Stop() (artifactPath string, durationMs int64, err error)
	Telemetry() <-chan types.Telemetry
	Release()
}

// Transcriber is the network gateway collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, biasPrompt string) (string, error)
}

// Preferences supplies enabled-filtered rule collections.
type Preferences interface {
	EnabledDictionary() []types.DictionaryEntry
	EnabledShortcuts() []types.Shortcut
	EnabledToneStyles() []types.ToneStyle
}

// History records completed deliveries.
type History interface {
	Add(types.Recording) (types.Recording, error)
}

// Config wires the controller's collaborators.
type Config struct {
	Recorder  Recorder
	Gateway   Transcriber
	Prefs     Preferences
	Deliverer delivery.Deliverer
	History   History

	// Frontmost returns the foreground application id, queried once at
	// trigger-start.
	Frontmost func() string
	// SelfAppID is our own application identifier.
	SelfAppID string

	// MinDuration is the shortest recording worth transcribing.
	// Defaults to 300 ms.
	MinDuration time.Duration
	// ErrorTimeout is how long the Error state displays before
	// auto-clearing. Defaults to 3 s.
	ErrorTimeout time.Duration
}

// activeSession is the per-session state, loop-confined.
type activeSession struct {
	id         string
	startTime  time.Time
	artifact   string
	durationMs int64
	target     delivery.Target
	snapshot   prompt.Snapshot
}

// completion carries a gateway result back onto the loop.
type completion struct {
	sessionID string
	text      string
	err       error
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdReset
)

// Controller sequences one dictation session at a time.
type Controller struct {
	cfg Config

	commands    chan commandKind
	completions chan completion
	notify      chan Notification
	telemetry   chan types.Telemetry

	// state mirrors the loop-owned state for lock-free reads.
	state atomic.Int32

	// Loop-confined fields.
	sess          *activeSession
	sessTelemetry <-chan types.Telemetry
	errorTimer    *time.Timer
	errorTimerC   <-chan time.Time
}

// New creates a Controller. Call Run to start the event loop.
func New(cfg Config) *Controller {
	if cfg.MinDuration == 0 {
		cfg.MinDuration = 300 * time.Millisecond
	}
	if cfg.ErrorTimeout == 0 {
		cfg.ErrorTimeout = 3 * time.Second
	}
	if cfg.Frontmost == nil {
		cfg.Frontmost = func() string { return "" }
	}

	return &Controller{
		cfg:         cfg,
		commands:    make(chan commandKind, 4),
		completions: make(chan completion, 1),
		notify:      make(chan Notification, 16),
		telemetry:   make(chan types.Telemetry, 16),
	}
}

// CurrentState returns the controller state.
func (c *Controller) CurrentState() State {
	return State(c.state.Load())
}

// Notifications returns the UI event stream. Events are dropped rather
// than blocking the controller when the consumer lags.
func (c *Controller) Notifications() <-chan Notification {
	return c.notify
}

// Telemetry returns capture telemetry forwarded from the active session.
func (c *Controller) Telemetry() <-chan types.Telemetry {
	return c.telemetry
}

// TriggerStart requests a new session. Rejected unless the controller is
// Idle; a trigger while in Error only clears the error display.
func (c *Controller) TriggerStart() error {
	switch c.CurrentState() {
	case StateIdle, StateError:
		c.send(cmdStart)
		return nil
	default:
		return ErrNotIdle
	}
}

// TriggerStop ends the capture phase. Ignored outside Recording.
func (c *Controller) TriggerStop() {
	c.send(cmdStop)
}

// Reset forces the controller back to Idle, discarding any in-flight
// session. Used on external resets such as app backgrounding; a gateway
// completion for the discarded session is dropped by the stale guard.
func (c *Controller) Reset() {
	c.send(cmdReset)
}

func (c *Controller) send(cmd commandKind) {
	select {
	case c.commands <- cmd:
	default:
		slog.Warn("controller command dropped", "cmd", cmd)
	}
}

// Run executes the event loop until ctx is canceled.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return

		case cmd := <-c.commands:
			switch cmd {
			case cmdStart:
				c.handleStart(ctx)
			case cmdStop:
				c.handleStop(ctx)
			case cmdReset:
				c.handleReset()
			}

		case t, ok := <-c.sessTelemetry:
			if !ok {
				c.sessTelemetry = nil
				continue
			}
			c.forwardTelemetry(t)
			if t.AutoStop {
				slog.Info("auto-stop signal", "session", c.sess.id)
				c.handleStop(ctx)
			}

		case comp := <-c.completions:
			c.handleCompletion(ctx, comp)

		case <-c.errorTimerC:
			c.errorTimerC = nil
			if c.CurrentState() == StateError {
				c.setState(StateIdle, Failure{})
			}
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transitions
// ─────────────────────────────────────────────────────────────────────────────

func (c *Controller) handleStart(ctx context.Context) {
	switch c.CurrentState() {
	case StateError:
		// Next trigger clears the error display; it does not start.
		c.stopErrorTimer()
		c.setState(StateIdle, Failure{})
		return
	case StateIdle:
	default:
		slog.Debug("trigger-start rejected", "state", c.CurrentState())
		return
	}

	// Capture the foreground target before any of our UI takes focus.
	target := delivery.Target{AppID: c.cfg.Frontmost(), SelfID: c.cfg.SelfAppID}

	if err := c.cfg.Recorder.Start(); err != nil {
		// A rejected start, not a failed session: stay Idle, surface
		// the notice inline without visiting Error.
		slog.Error("start recorder", "error", err)
		c.notifyInline(classifyStartError(err))
		return
	}

	c.sess = &activeSession{
		id:        uuid.NewString(),
		startTime: time.Now(),
		target:    target,
	}
	c.sessTelemetry = c.cfg.Recorder.Telemetry()
	c.setState(StateRecording, Failure{})
	slog.Info("session started", "session", c.sess.id, "target", target.AppID)
}

func (c *Controller) handleStop(ctx context.Context) {
	if c.CurrentState() != StateRecording {
		return
	}

	artifact, durationMs, err := c.cfg.Recorder.Stop()
	c.sessTelemetry = nil
	if err != nil {
		slog.Error("stop recorder", "session", c.sess.id, "error", err)
		c.sess = nil
		c.setState(StateIdle, Failure{})
		return
	}

	if durationMs < c.cfg.MinDuration.Milliseconds() {
		// Too short to transcribe: discard silently, no error, no
		// history.
		slog.Info("recording below minimum duration", "session", c.sess.id, "durationMs", durationMs)
		removeArtifact(artifact)
		c.sess = nil
		c.setState(StateIdle, Failure{Kind: FailureBelowMinDuration})
		return
	}

	c.sess.artifact = artifact
	c.sess.durationMs = durationMs
	c.sess.snapshot = prompt.Snapshot{
		Dictionary:    c.cfg.Prefs.EnabledDictionary(),
		Shortcuts:     c.cfg.Prefs.EnabledShortcuts(),
		ToneStyles:    c.cfg.Prefs.EnabledToneStyles(),
		ForegroundApp: c.sess.target.AppID,
	}
	c.setState(StateProcessing, Failure{})

	biasPrompt := prompt.Build(c.sess.snapshot)
	sessionID := c.sess.id

	// The gateway call is issued once and always awaited; there is no
	// cancellation path once in flight.
	go func() {
		text, err := c.cfg.Gateway.Transcribe(ctx, artifact, biasPrompt)
		c.completions <- completion{sessionID: sessionID, text: text, err: err}
	}()
}

func (c *Controller) handleCompletion(ctx context.Context, comp completion) {
	// Stale-response guard: a completion for a session that is no longer
	// current (e.g. after a forced reset) is discarded.
	if c.sess == nil || comp.sessionID != c.sess.id || c.CurrentState() != StateProcessing {
		slog.Warn("stale gateway completion discarded", "session", comp.sessionID)
		return
	}

	if comp.err != nil {
		c.enterError(classifyGatewayError(comp.err))
		return
	}

	text := transform.Apply(comp.text, c.sess.snapshot.Dictionary, c.sess.snapshot.Shortcuts)
	if text == "" {
		// Routes through Error but is never rendered: no message, no
		// display timeout, straight back to Idle.
		slog.Info("empty transcription result", "session", c.sess.id)
		removeArtifact(c.sess.artifact)
		c.sess = nil
		c.setState(StateError, Failure{Kind: FailureEmptyResult})
		c.setState(StateIdle, Failure{})
		return
	}

	c.setState(StateResult, Failure{})

	// Delivery runs on the loop: Idle is not reachable (and no new
	// trigger accepted) until its timers have fired.
	outcome, err := c.cfg.Deliverer.Deliver(ctx, text, c.sess.target)
	if err != nil {
		// Hard delivery failure: no Recording is created.
		slog.Error("deliver text", "session", c.sess.id, "error", err)
	} else {
		if outcome.SoftFailure != "" {
			slog.Warn("delivery soft failure", "session", c.sess.id, "note", outcome.SoftFailure)
		}
		rec := types.Recording{
			ID:            c.sess.id,
			Timestamp:     time.Now(),
			Transcript:    text,
			DurationMs:    c.sess.durationMs,
			AudioFilePath: c.sess.artifact,
		}
		if _, err := c.cfg.History.Add(rec); err != nil {
			slog.Error("record history", "session", c.sess.id, "error", err)
		}
	}

	removeArtifact(c.sess.artifact)
	c.sess = nil // clears the captured target reference
	c.setState(StateIdle, Failure{})
}

func (c *Controller) handleReset() {
	switch c.CurrentState() {
	case StateIdle:
		return
	case StateRecording:
		c.cfg.Recorder.Release()
		c.sessTelemetry = nil
	}
	if c.sess != nil {
		removeArtifact(c.sess.artifact)
		c.sess = nil
	}
	c.stopErrorTimer()
	c.setState(StateIdle, Failure{})
}

func (c *Controller) enterError(f Failure) {
	removeArtifact(c.sess.artifact)
	c.sess = nil
	c.setState(StateError, f)

	c.stopErrorTimer()
	c.errorTimer = time.NewTimer(c.cfg.ErrorTimeout)
	c.errorTimerC = c.errorTimer.C
}

func (c *Controller) teardown() {
	if c.CurrentState() == StateRecording {
		c.cfg.Recorder.Release()
	}
	if c.sess != nil {
		removeArtifact(c.sess.artifact)
		c.sess = nil
	}
	c.stopErrorTimer()
	c.setState(StateIdle, Failure{})
}

func (c *Controller) stopErrorTimer() {
	if c.errorTimer != nil {
		c.errorTimer.Stop()
		c.errorTimer = nil
		c.errorTimerC = nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (c *Controller) setState(s State, f Failure) {
	c.state.Store(int32(s))
	select {
	case c.notify <- Notification{State: s, Failure: f}:
	default:
	}
}

func (c *Controller) notifyInline(f Failure) {
	select {
	case c.notify <- Notification{State: c.CurrentState(), Failure: f, Inline: true}:
	default:
	}
}

func (c *Controller) forwardTelemetry(t types.Telemetry) {
	select {
	case c.telemetry <- t:
	default:
	}
}

func classifyStartError(err error) Failure {
	if strings.Contains(strings.ToLower(err.Error()), "permission") {
		return Failure{Kind: FailurePermissionDenied, Message: err.Error()}
	}
	return Failure{Kind: FailureCapture, Message: err.Error()}
}

func classifyGatewayError(err error) Failure {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return Failure{
			Kind:    FailureAPI,
			Message: fmt.Sprintf("transcription failed (%d): %s", apiErr.Status, apiErr.Body),
		}
	}
	return Failure{Kind: FailureNetwork, Message: fmt.Sprintf("transcription failed: %v", err)}
}

func removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("remove audio artifact", "path", path, "error", err)
	}
}
