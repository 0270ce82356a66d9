package domain

import (
	"fmt"
	"iter"

	"chat-session/errors"

	"github.com/google/uuid"
)

// MessageLog is the append-only, insertion-ordered message sequence of
// one conversation. Entries are never reordered or removed; deletion is
// a logical tombstone. The log enforces transition legality, nothing else.
type MessageLog struct {
	messages []Message
	byID     map[uuid.UUID]int
}

func NewMessageLog() *MessageLog {
	return &MessageLog{byID: make(map[uuid.UUID]int)}
}

// Append adds a message to the tail of the log.
// The id must be unique within the conversation.
func (l *MessageLog) Append(msg Message) error {
	if _, ok := l.byID[msg.ID]; ok {
		return fmt.Errorf("append %s: %w", msg.ID, errors.ErrDuplicateMessage)
	}
	l.byID[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
	return nil
}

// AdvanceStatus moves a message strictly forward along
// sent < delivered < read. Re-applying the current status is a no-op;
// regression fails and leaves the message untouched.
func (l *MessageLog) AdvanceStatus(id uuid.UUID, next MessageStatus) error {
	idx, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("advance %s: %w", id, errors.ErrUnknownMessage)
	}
	current := l.messages[idx].Status
	if next == current {
		return nil
	}
	if next < current {
		return fmt.Errorf("advance %s from %s to %s: %w",
			id, current, next, errors.ErrInvalidTransition)
	}
	l.messages[idx].Status = next
	return nil
}

// MarkDeleted records a deletion tombstone. Delete-for-everyone is a
// sender-only action; delete-for-self only hides the message from the
// acting viewer.
func (l *MessageLog) MarkDeleted(id uuid.UUID, actingUserID string, forEveryone bool) error {
	idx, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, errors.ErrUnknownMessage)
	}
	msg := &l.messages[idx]
	if forEveryone {
		if msg.SenderID != actingUserID {
			return fmt.Errorf("delete %s by %s: %w", id, actingUserID, errors.ErrNotAuthorized)
		}
		msg.Deletion = DeletedForEveryone
		msg.DeletedBy = ""
		return nil
	}
	// A tombstone for everyone already hides more than a self delete would.
	if msg.Deletion == DeletedForEveryone {
		return nil
	}
	msg.Deletion = DeletedForSelf
	msg.DeletedBy = actingUserID
	return nil
}

// Get returns a copy of the message with the given id.
func (l *MessageLog) Get(id uuid.UUID) (Message, bool) {
	idx, ok := l.byID[id]
	if !ok {
		return Message{}, false
	}
	return l.messages[idx], true
}

func (l *MessageLog) Len() int {
	return len(l.messages)
}

// All iterates over every entry in insertion order, tombstones included.
func (l *MessageLog) All() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, msg := range l.messages {
			if !yield(msg) {
				return
			}
		}
	}
}

// VisibleTo yields the messages the given viewer may see, in insertion
// order. Messages the viewer deleted for themselves are skipped entirely;
// messages deleted for everyone are yielded with their payload stripped
// so renderers can show a placeholder. The sequence is lazy and may be
// restarted any number of times.
func (l *MessageLog) VisibleTo(viewerID string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for _, msg := range l.messages {
			if msg.Deletion == DeletedForSelf && msg.DeletedBy == viewerID {
				continue
			}
			out := msg
			if out.Deletion == DeletedForEveryone {
				out.Body = nil
			}
			if !yield(out) {
				return
			}
		}
	}
}
