package runtime

import (
	"slices"
	"time"

	"chat-session/audio"
	"chat-session/domain"
	"chat-session/observability"
)

// RecordingView is the capture slice of the read model.
type RecordingView struct {
	State   audio.CaptureState
	Elapsed time.Duration
}

// SessionView is everything a renderer needs for one frame of the
// conversation. It is a value copy; mutating it changes nothing.
type SessionView struct {
	State       EngineState
	Peer        domain.Participant
	PeerAvatar  domain.BlobRef
	Presence    domain.Presence
	UnreadCount int
	Messages    []domain.Message
	Recording   RecordingView
	Playback    audio.PlaybackState
	Counters    observability.Snapshot
}

// View materializes the current read model. Messages are already
// filtered for the local user: own self-deletes are absent, tombstones
// carry no payload.
func (e *SessionEngine) View() SessionView {
	e.mu.Lock()
	defer e.mu.Unlock()

	return SessionView{
		State:       e.state,
		Peer:        domain.Participant{ID: e.session.PeerID, DisplayName: e.session.PeerDisplayName},
		PeerAvatar:  e.session.PeerAvatarRef,
		Presence:    e.session.Presence,
		UnreadCount: e.session.UnreadCount(e.self.ID),
		Messages:    slices.Collect(e.session.Log.VisibleTo(e.self.ID)),
		Recording:   RecordingView{State: e.capture.State(), Elapsed: e.capture.Elapsed()},
		Playback:    e.playback.Snapshot(),
		Counters:    e.counters.Snapshot(),
	}
}
