// Package projection builds local read models from observed events.
// Handles ordering and per-viewer visibility. Does not emit events or
// interact with UI directly.
package projection

import (
	"sync"

	"chat-session/domain"
	"chat-session/domain/event"

	"github.com/google/uuid"
)

// Timeline is the per-viewer projection of one conversation: what this
// viewer would see on screen, kept current by consuming engine events.
// Safe to read while the engine's fan-out keeps feeding it.
type Timeline struct {
	mu       sync.RWMutex
	ViewerID string
	byID     map[uuid.UUID]int
	messages []domain.Message
	presence domain.Presence
}

func NewTimeline(viewerID string) *Timeline {
	return &Timeline{
		ViewerID: viewerID,
		byID:     make(map[uuid.UUID]int),
	}
}

func (t *Timeline) Consume(e event.DomainEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.MessageAppended:
		t.append(evt.Message)
	case event.StatusAdvanced:
		if idx, ok := t.byID[evt.ID]; ok && evt.Status > t.messages[idx].Status {
			t.messages[idx].Status = evt.Status
		}
	case event.MessageDeleted:
		t.applyDeletion(evt)
	case event.PresenceChanged:
		t.presence = evt.Presence
	}
}

func (t *Timeline) append(msg domain.Message) {
	if _, ok := t.byID[msg.ID]; ok {
		return
	}
	t.byID[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
}

func (t *Timeline) applyDeletion(evt event.MessageDeleted) {
	idx, ok := t.byID[evt.ID]
	if !ok {
		return
	}
	if evt.ForEveryone {
		t.messages[idx].Deletion = domain.DeletedForEveryone
		t.messages[idx].Body = nil
		return
	}
	t.messages[idx].Deletion = domain.DeletedForSelf
	t.messages[idx].DeletedBy = t.ViewerID
}

// Messages returns what the viewer currently sees, in append order.
func (t *Timeline) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	visible := make([]domain.Message, 0, len(t.messages))
	for _, msg := range t.messages {
		if msg.Deletion == domain.DeletedForSelf && msg.DeletedBy == t.ViewerID {
			continue
		}
		visible = append(visible, msg)
	}
	return visible
}

func (t *Timeline) Presence() domain.Presence {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.presence
}

// Unread counts messages addressed to the viewer not yet read.
func (t *Timeline) Unread() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, msg := range t.messages {
		if msg.ReceiverID == t.ViewerID && msg.Status != domain.StatusRead {
			count++
		}
	}
	return count
}
