package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChatSession_UnreadCount(t *testing.T) {
	req := require.New(t)
	session := NewChatSession("bob", "Bob", "")
	now := time.Now().UTC()

	incoming1 := NewTextMessage("bob", "alice", "hi", now)
	incoming2 := NewTextMessage("bob", "alice", "are you there?", now.Add(time.Second))
	outgoing := NewTextMessage("alice", "bob", "yes", now.Add(2*time.Second))

	for _, msg := range []Message{incoming1, incoming2, outgoing} {
		req.NoError(session.Log.Append(msg))
	}

	req.Equal(2, session.UnreadCount("alice"))

	req.NoError(session.Log.AdvanceStatus(incoming1.ID, StatusRead))
	req.Equal(1, session.UnreadCount("alice"))

	req.NoError(session.Log.AdvanceStatus(incoming2.ID, StatusRead))
	req.Equal(0, session.UnreadCount("alice"))

	// Outgoing messages never count against the local user.
	req.Equal(1, session.UnreadCount("bob"))
}

func TestParseStatus_RoundTrip(t *testing.T) {
	req := require.New(t)
	for _, status := range []MessageStatus{StatusSent, StatusDelivered, StatusRead} {
		parsed, err := ParseStatus(status.String())
		req.NoError(err)
		req.Equal(status, parsed)
	}

	_, err := ParseStatus("acknowledged")
	req.Error(err)
}
