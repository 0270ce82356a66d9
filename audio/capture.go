// Package audio owns the two exclusive audio resources of the
// application: the capture device (voice-note recording) and the
// playback slot (at most one message audible at any time).
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-session/contract"
	"chat-session/domain"
	"chat-session/errors"
)

// minClipDuration rejects accidental taps: clips shorter than this are
// dropped silently instead of becoming drafts.
const minClipDuration = time.Second

type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureRecording
	CaptureDraftReady
)

func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureRecording:
		return "recording"
	case CaptureDraftReady:
		return "draftReady"
	default:
		return fmt.Sprintf("captureState(%d)", int(s))
	}
}

// CaptureController drives the recording lifecycle:
// Idle -> Recording -> DraftReady -> {committed | discarded} -> Idle.
type CaptureController struct {
	mu        sync.Mutex
	log       *slog.Logger
	device    contract.CaptureDevice
	clock     func() time.Time
	state     CaptureState
	recording contract.Recording
	startedAt time.Time
	draft     *domain.AudioDraft
}

func NewCaptureController(device contract.CaptureDevice, clock func() time.Time, log *slog.Logger) *CaptureController {
	return &CaptureController{log: log, device: device, clock: clock}
}

// StartRecording acquires the capture device and begins a new clip.
// It fails while a recording or an uncommitted draft exists, and with
// ErrDeviceUnavailable when the device cannot be acquired.
func (c *CaptureController) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureIdle {
		return fmt.Errorf("start while %s: %w", c.state, errors.ErrAlreadyRecording)
	}

	recording, err := c.device.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDeviceUnavailable, err)
	}

	c.recording = recording
	c.startedAt = c.clock()
	c.state = CaptureRecording
	c.log.Debug("Recording started")
	return nil
}

// Feed forwards captured bytes into the active recording.
func (c *CaptureController) Feed(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureRecording {
		return errors.ErrNotRecording
	}
	c.recording.Write(chunk)
	return nil
}

// StopRecording finalizes the clip into a draft. Clips shorter than one
// second are discarded silently and no draft is produced; callers get
// (nil, nil) and the controller is Idle again.
func (c *CaptureController) StopRecording() (*domain.AudioDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureRecording {
		return nil, errors.ErrNotRecording
	}

	elapsed := c.clock().Sub(c.startedAt)
	if elapsed < minClipDuration {
		c.recording.Discard()
		c.recording = nil
		c.state = CaptureIdle
		c.log.Debug("Clip below minimum duration, discarded", "elapsed", elapsed)
		return nil, nil
	}

	blob, err := c.recording.Finalize()
	c.recording = nil
	if err != nil {
		c.state = CaptureIdle
		return nil, fmt.Errorf("finalize recording: %w", err)
	}

	c.draft = &domain.AudioDraft{
		Blob:      blob,
		Duration:  elapsed.Truncate(time.Second),
		CreatedAt: c.clock(),
	}
	c.state = CaptureDraftReady
	return c.draft, nil
}

// CommitDraft hands the draft over for sending and returns to Idle.
func (c *CaptureController) CommitDraft() (domain.AudioDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureDraftReady {
		return domain.AudioDraft{}, errors.ErrNoDraft
	}
	draft := *c.draft
	c.draft = nil
	c.state = CaptureIdle
	return draft, nil
}

// DiscardDraft drops the draft and returns to Idle.
func (c *CaptureController) DiscardDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureDraftReady {
		return errors.ErrNoDraft
	}
	c.draft = nil
	c.state = CaptureIdle
	return nil
}

// Abort force-releases whatever the controller holds. Used on engine
// teardown: an in-flight recording is treated as an implicit discard.
func (c *CaptureController) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CaptureRecording {
		c.recording.Discard()
		c.recording = nil
	}
	c.draft = nil
	c.state = CaptureIdle
}

func (c *CaptureController) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed is the current clip length at one-second resolution, for UI
// counters. Zero outside of Recording.
func (c *CaptureController) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CaptureRecording {
		return 0
	}
	return c.clock().Sub(c.startedAt).Truncate(time.Second)
}
