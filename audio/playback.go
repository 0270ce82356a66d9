package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-session/contract"
	"chat-session/domain"
	"chat-session/errors"

	"github.com/google/uuid"
)

// PlaybackState is the renderer-facing view of the playback slot.
type PlaybackState struct {
	ActiveMessageID *uuid.UUID
	Paused          bool
}

// PlaybackController guarantees at most one audio message is audibly
// playing application-wide. It is constructed once and injected into
// every session engine instead of living as ambient global state.
type PlaybackController struct {
	mu       sync.Mutex
	log      *slog.Logger
	player   contract.AudioPlayer
	activeID uuid.UUID
	active   bool
	paused   bool
}

func NewPlaybackController(player contract.AudioPlayer, log *slog.Logger) *PlaybackController {
	return &PlaybackController{log: log, player: player}
}

// Play starts the given message, unconditionally stopping whatever else
// was playing first (its position is reset, not kept). Playing the
// message that is already active toggles pause/resume instead.
func (p *PlaybackController) Play(ctx context.Context, messageID uuid.UUID, ref domain.BlobRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active && p.activeID == messageID {
		if p.paused {
			p.player.Resume()
			p.paused = false
		} else {
			p.player.Pause()
			p.paused = true
		}
		return nil
	}

	if p.active {
		p.player.Stop()
		p.active = false
		p.paused = false
	}

	if err := p.player.Start(ctx, ref); err != nil {
		p.log.Warn("Playback failed, slot left empty", "message", messageID, "err", err)
		return fmt.Errorf("%w: %v", errors.ErrPlaybackFailed, err)
	}
	p.activeID = messageID
	p.active = true
	p.paused = false
	return nil
}

// StopAll releases the slot. Idempotent.
func (p *PlaybackController) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}
	p.player.Stop()
	p.active = false
	p.paused = false
}

// Active returns the occupying message id, if any.
func (p *PlaybackController) Active() (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeID, p.active
}

func (p *PlaybackController) Snapshot() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return PlaybackState{}
	}
	id := p.activeID
	return PlaybackState{ActiveMessageID: &id, Paused: p.paused}
}
