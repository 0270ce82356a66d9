package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chat-session/domain"
)

// MemoryPlayer is an AudioPlayer that validates blobs against the store
// instead of driving real audio output. Start fails for unknown or
// non-audio blobs, which the playback controller surfaces as a
// playback failure.
type MemoryPlayer struct {
	mu      sync.Mutex
	store   *BlobStore
	playing bool
	paused  bool
}

func NewMemoryPlayer(store *BlobStore) *MemoryPlayer {
	return &MemoryPlayer{store: store}
}

func (p *MemoryPlayer) Start(ctx context.Context, ref domain.BlobRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, contentType, err := p.store.Get(ref)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("blob %s is empty", ref)
	}
	// mimetype falls back to octet-stream for raw PCM-ish test data,
	// so only clearly foreign types are rejected.
	if strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "text/") {
		return fmt.Errorf("blob %s is %s, not audio", ref, contentType)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.paused = false
	return nil
}

func (p *MemoryPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.paused = true
	}
}

func (p *MemoryPlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.paused = false
	}
}

func (p *MemoryPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.paused = false
}
