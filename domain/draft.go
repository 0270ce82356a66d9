package domain

import "time"

// AudioDraft is a captured-but-not-yet-sent voice note. At most one
// draft exists per conversation at a time, between "recording stopped"
// and "committed or discarded".
type AudioDraft struct {
	Blob      BlobRef
	Duration  time.Duration
	CreatedAt time.Time
}
