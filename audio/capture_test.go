package audio

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-session/errors"

	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move recording time by hand.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCapture(t *testing.T) (*CaptureController, *MemoryDevice, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	device := NewMemoryDevice(NewBlobStore())
	return NewCaptureController(device, clock.Now, slog.Default()), device, clock
}

func TestCaptureController_SubSecondClipIsDiscardedSilently(t *testing.T) {
	req := require.New(t)
	controller, _, clock := newTestCapture(t)

	req.NoError(controller.StartRecording(context.Background()))
	clock.Advance(400 * time.Millisecond)

	draft, err := controller.StopRecording()
	req.NoError(err)
	req.Nil(draft)
	req.Equal(CaptureIdle, controller.State())

	// The device must have been released along the way.
	req.NoError(controller.StartRecording(context.Background()))
}

func TestCaptureController_StopThenCommitProducesDraft(t *testing.T) {
	req := require.New(t)
	controller, _, clock := newTestCapture(t)

	req.NoError(controller.StartRecording(context.Background()))
	req.NoError(controller.Feed([]byte{0x4f, 0x67, 0x67, 0x53, 1, 2, 3}))
	clock.Advance(2 * time.Second)
	req.Equal(2*time.Second, controller.Elapsed())

	draft, err := controller.StopRecording()
	req.NoError(err)
	req.NotNil(draft)
	req.Equal(2*time.Second, draft.Duration)
	req.NotEmpty(draft.Blob)
	req.Equal(CaptureDraftReady, controller.State())

	committed, err := controller.CommitDraft()
	req.NoError(err)
	req.Equal(*draft, committed)
	req.Equal(CaptureIdle, controller.State())
}

func TestCaptureController_StartRejectedOutsideIdle(t *testing.T) {
	req := require.New(t)
	controller, _, clock := newTestCapture(t)
	ctx := context.Background()

	req.NoError(controller.StartRecording(ctx))
	req.ErrorIs(controller.StartRecording(ctx), errors.ErrAlreadyRecording)

	clock.Advance(3 * time.Second)
	_, err := controller.StopRecording()
	req.NoError(err)

	// An uncommitted draft still blocks a new recording.
	req.ErrorIs(controller.StartRecording(ctx), errors.ErrAlreadyRecording)

	req.NoError(controller.DiscardDraft())
	req.NoError(controller.StartRecording(ctx))
}

func TestCaptureController_DeviceIsExclusiveAcrossConversations(t *testing.T) {
	req := require.New(t)
	clock := &fakeClock{now: time.Now().UTC()}
	device := NewMemoryDevice(NewBlobStore())
	first := NewCaptureController(device, clock.Now, slog.Default())
	second := NewCaptureController(device, clock.Now, slog.Default())
	ctx := context.Background()

	req.NoError(first.StartRecording(ctx))
	req.ErrorIs(second.StartRecording(ctx), errors.ErrDeviceUnavailable)

	clock.Advance(2 * time.Second)
	_, err := first.StopRecording()
	req.NoError(err)

	// Finalizing releases the device for the other conversation.
	req.NoError(second.StartRecording(ctx))
}

func TestCaptureController_AbortReleasesEverything(t *testing.T) {
	req := require.New(t)
	controller, _, clock := newTestCapture(t)
	ctx := context.Background()

	req.NoError(controller.StartRecording(ctx))
	clock.Advance(5 * time.Second)
	controller.Abort()
	req.Equal(CaptureIdle, controller.State())
	req.NoError(controller.StartRecording(ctx))

	clock.Advance(2 * time.Second)
	_, err := controller.StopRecording()
	req.NoError(err)
	controller.Abort()
	req.Equal(CaptureIdle, controller.State())
	_, err = controller.CommitDraft()
	req.ErrorIs(err, errors.ErrNoDraft)
}

func TestCaptureController_StopWithoutRecording(t *testing.T) {
	req := require.New(t)
	controller, _, _ := newTestCapture(t)

	_, err := controller.StopRecording()
	req.ErrorIs(err, errors.ErrNotRecording)
	req.ErrorIs(controller.Feed([]byte("x")), errors.ErrNotRecording)
}
