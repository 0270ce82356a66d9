package projection

import (
	"testing"
	"time"

	"chat-session/domain"
	"chat-session/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const key = "alice:bob"

func appended(msg domain.Message) event.MessageAppended {
	return event.MessageAppended{Key: key, Message: msg}
}

func TestTimeline_AppendAndStatusFlow(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice")
	now := time.Now().UTC()

	outgoing := domain.NewTextMessage("alice", "bob", "hey", now)
	incoming := domain.NewTextMessage("bob", "alice", "hey yourself", now.Add(time.Second))
	incoming.Status = domain.StatusDelivered

	timeline.Consume(appended(outgoing))
	timeline.Consume(appended(incoming))
	timeline.Consume(appended(incoming)) // duplicates are dropped

	req.Len(timeline.Messages(), 2)
	req.Equal(1, timeline.Unread())

	timeline.Consume(event.StatusAdvanced{Key: key, ID: incoming.ID, Status: domain.StatusRead, At: now})
	req.Zero(timeline.Unread())

	// A stale event can never move a status backwards.
	timeline.Consume(event.StatusAdvanced{Key: key, ID: incoming.ID, Status: domain.StatusSent, At: now})
	req.Equal(domain.StatusRead, timeline.Messages()[1].Status)
}

func TestTimeline_Deletions(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice")
	now := time.Now().UTC()

	mine := domain.NewTextMessage("alice", "bob", "retracted", now)
	theirs := domain.NewTextMessage("bob", "alice", "hidden locally", now)
	timeline.Consume(appended(mine))
	timeline.Consume(appended(theirs))

	timeline.Consume(event.MessageDeleted{Key: key, ID: mine.ID, ForEveryone: true})
	visible := timeline.Messages()
	req.Len(visible, 2)
	req.True(visible[0].Tombstone())
	req.Nil(visible[0].Body)

	timeline.Consume(event.MessageDeleted{Key: key, ID: theirs.ID, ForEveryone: false})
	visible = timeline.Messages()
	req.Len(visible, 1)
	req.Equal(mine.ID, visible[0].ID)

	// Unknown ids are ignored without effect.
	timeline.Consume(event.MessageDeleted{Key: key, ID: uuid.New(), ForEveryone: true})
	req.Len(timeline.Messages(), 1)
}

func TestTimeline_PresenceTracksLatestEvent(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice")

	timeline.Consume(event.PresenceChanged{Key: key, Presence: domain.Presence{IsOnline: true, IsPeerTyping: true}})
	req.True(timeline.Presence().IsPeerTyping)

	lastSeen := time.Now().Add(-time.Hour)
	timeline.Consume(event.PresenceChanged{Key: key, Presence: domain.Presence{LastSeenAt: &lastSeen}})
	got := timeline.Presence()
	req.False(got.IsOnline)
	req.False(got.IsPeerTyping)
	req.Equal(lastSeen, *got.LastSeenAt)
}
