package errors

import "fmt"

var (
	// ErrInvalidTransition is returned when a delivery status would regress.
	// This is a programming error, it must never reach an end user.
	ErrInvalidTransition = fmt.Errorf("delivery status cannot regress")
	// ErrNotAuthorized is returned when a delete-for-everyone is attempted
	// by someone other than the message sender.
	ErrNotAuthorized     = fmt.Errorf("only the sender may delete for everyone")
	ErrDuplicateMessage  = fmt.Errorf("message id already present in the log")
	ErrUnknownMessage    = fmt.Errorf("message id not found in the log")
	ErrAlreadyRecording  = fmt.Errorf("a recording or an uncommitted draft is already active")
	ErrNoDraft           = fmt.Errorf("no audio draft to commit or discard")
	ErrNotRecording      = fmt.Errorf("no recording in progress")
	ErrDeviceUnavailable = fmt.Errorf("capture device unavailable")
	ErrPlaybackFailed    = fmt.Errorf("audio playback failed")
	ErrNotReady          = fmt.Errorf("session engine is not ready for commands")
	ErrPersistence       = fmt.Errorf("persistence adapter failure")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
