package domain

import "time"

// ConversationKey names the durable record shared between the local
// user and one peer.
func ConversationKey(selfID, peerID string) string {
	return selfID + ":" + peerID
}

// Participant identifies one side of a conversation.
type Participant struct {
	ID          string
	DisplayName string
}

// Presence is the peer's synthetic online/last-seen/typing state.
type Presence struct {
	IsOnline     bool
	LastSeenAt   *time.Time
	IsPeerTyping bool
}

// ChatSession is the message history and live state shared between the
// current user and one peer. It is created lazily on first contact and
// persisted after every mutation; absence from storage is its terminal
// state.
type ChatSession struct {
	PeerID          string
	PeerDisplayName string
	PeerAvatarRef   BlobRef
	Presence        Presence
	Log             *MessageLog
}

func NewChatSession(peerID, peerDisplayName string, avatar BlobRef) *ChatSession {
	return &ChatSession{
		PeerID:          peerID,
		PeerDisplayName: peerDisplayName,
		PeerAvatarRef:   avatar,
		Log:             NewMessageLog(),
	}
}

// UnreadCount is the number of messages addressed to the given user
// that have not yet been read.
func (s *ChatSession) UnreadCount(userID string) int {
	count := 0
	for msg := range s.Log.All() {
		if msg.ReceiverID == userID && msg.Status != StatusRead {
			count++
		}
	}
	return count
}
