// Package delivery places finalized text into the focused application.
//
// Two strategies exist behind one contract: direct insertion for hosts that
// own the text-input surface, and clipboard-mediated paste for delivering
// into another running application.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/whispermate/whispermate/clipboard"
	"github.com/whispermate/whispermate/internal/types"
	"github.com/whispermate/whispermate/platform"
)

// Target identifies where the text should land. It is captured once at
// trigger-start (delivery-time "frontmost" may be our own surface) and
// passed by value; callers clear their copy after delivery so it cannot
// leak into a later session.
type Target struct {
	AppID  string // frontmost application at trigger-start
	SelfID string // our own application identifier
}

// Deliverer is the delivery contract shared by both strategies.
type Deliverer interface {
	Deliver(ctx context.Context, text string, target Target) (types.DeliveryOutcome, error)
}

// DirectInsertion commits text through a host-supplied commit function,
// used when the host owns the text-input surface.
type DirectInsertion struct {
	Commit func(text string) error
}

// Deliver commits the text synchronously.
func (d *DirectInsertion) Deliver(_ context.Context, text string, _ Target) (types.DeliveryOutcome, error) {
	if err := d.Commit(text); err != nil {
		return types.DeliveryOutcome{}, fmt.Errorf("commit text: %w", err)
	}
	return types.DeliveryOutcome{Delivered: true}, nil
}

// Board abstracts clipboard get/set.
type Board interface {
	GetText() (string, error)
	SetText(text string) error
}

// Automation abstracts application activation and paste synthesis.
type Automation interface {
	Activate(appID string) error
	SendPaste() error
}

// ClipboardPaste delivers by snapshotting the clipboard, writing the text,
// synthesizing a paste keystroke into the target application and restoring
// the snapshot afterwards.
//
// The clipboard is exclusively borrowed from the first snapshot until the
// restore decision; the session controller guarantees no second delivery
// starts while this one is in flight.
type ClipboardPaste struct {
	Board      Board
	Automation Automation

	// Delays between activation, paste and restore. Zero values take the
	// defaults.
	SettleDelay time.Duration // after activating another app
	SelfDelay   time.Duration // when the target is our own surface
	GraceDelay  time.Duration // between paste and clipboard restore
}

// NewClipboardPaste returns a ClipboardPaste wired to the system clipboard
// and platform automation.
func NewClipboardPaste() *ClipboardPaste {
	return &ClipboardPaste{
		Board:      systemBoard{},
		Automation: systemAutomation{},
	}
}

const (
	defaultSettleDelay = 300 * time.Millisecond
	defaultSelfDelay   = 150 * time.Millisecond
	defaultGraceDelay  = 50 * time.Millisecond
)

// Deliver runs the clipboard-mediated paste sequence.
//
// A failing paste keystroke (missing automation permission) is a soft
// failure: the text stays on the clipboard, no error is returned and the
// outcome carries a diagnostic note.
func (c *ClipboardPaste) Deliver(ctx context.Context, text string, target Target) (types.DeliveryOutcome, error) {
	snapshot, err := c.Board.GetText()
	if err != nil {
		return types.DeliveryOutcome{}, fmt.Errorf("snapshot clipboard: %w", err)
	}

	if err := c.Board.SetText(text); err != nil {
		return types.DeliveryOutcome{}, fmt.Errorf("write clipboard: %w", err)
	}

	if target.AppID != "" && target.AppID != target.SelfID {
		if err := c.Automation.Activate(target.AppID); err != nil {
			slog.Warn("activate target application", "app", target.AppID, "error", err)
		}
		sleep(ctx, c.settleDelay())
	} else {
		sleep(ctx, c.selfDelay())
	}

	if err := c.Automation.SendPaste(); err != nil {
		// Soft failure: the text is on the clipboard, which partially
		// meets the objective. No restore, no user-visible error.
		slog.Warn("paste synthesis unavailable", "error", err)
		return types.DeliveryOutcome{
			Delivered:   false,
			SoftFailure: fmt.Sprintf("paste simulation unavailable: %v", err),
		}, nil
	}

	sleep(ctx, c.graceDelay())

	if snapshot != "" {
		if err := c.Board.SetText(snapshot); err != nil {
			slog.Warn("restore clipboard", "error", err)
		}
	}

	return types.DeliveryOutcome{Delivered: true}, nil
}

func (c *ClipboardPaste) settleDelay() time.Duration {
	if c.SettleDelay > 0 {
		return c.SettleDelay
	}
	return defaultSettleDelay
}

func (c *ClipboardPaste) selfDelay() time.Duration {
	if c.SelfDelay > 0 {
		return c.SelfDelay
	}
	return defaultSelfDelay
}

func (c *ClipboardPaste) graceDelay() time.Duration {
	if c.GraceDelay > 0 {
		return c.GraceDelay
	}
	return defaultGraceDelay
}

// sleep waits for d or until ctx is canceled.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// systemBoard adapts the clipboard package to the Board interface.
type systemBoard struct{}

func (systemBoard) GetText() (string, error)  { return clipboard.GetText() }
func (systemBoard) SetText(text string) error { return clipboard.SetText(text) }

// systemAutomation adapts the platform package to the Automation interface.
type systemAutomation struct{}

func (systemAutomation) Activate(appID string) error { return platform.Activate(appID) }
func (systemAutomation) SendPaste() error            { return platform.SendPaste() }
