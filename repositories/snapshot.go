package repositories

import (
	"fmt"
	"slices"
	"time"

	"chat-session/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// SessionSnapshot is the serialized mirror of one conversation:
// ISO-8601 timestamps, string statuses and deletion flags. It is the
// only shape that crosses the persistence boundary.
type SessionSnapshot struct {
	PeerID          string            `json:"peer_id"`
	PeerDisplayName string            `json:"peer_display_name"`
	PeerAvatarRef   string            `json:"peer_avatar_ref,omitempty"`
	Presence        PresenceSnapshot  `json:"presence"`
	Messages        []MessageSnapshot `json:"messages"`
}

type PresenceSnapshot struct {
	IsOnline   bool    `json:"is_online"`
	LastSeenAt *string `json:"last_seen_at,omitempty"`
}

type MessageSnapshot struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	CreatedAt  string `json:"created_at"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Deletion   string `json:"deletion"`
	DeletedBy  string `json:"deleted_by,omitempty"`

	Text            string `json:"text,omitempty"`
	Blob            string `json:"blob,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	FileSize        int64  `json:"file_size,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// FromSession flattens the live session into its serialized mirror.
// Typing state is transient and deliberately not persisted.
func FromSession(session *domain.ChatSession) SessionSnapshot {
	var lastSeen *string
	if session.Presence.LastSeenAt != nil {
		lastSeen = lo.ToPtr(session.Presence.LastSeenAt.UTC().Format(time.RFC3339))
	}
	return SessionSnapshot{
		PeerID:          session.PeerID,
		PeerDisplayName: session.PeerDisplayName,
		PeerAvatarRef:   string(session.PeerAvatarRef),
		Presence: PresenceSnapshot{
			IsOnline:   session.Presence.IsOnline,
			LastSeenAt: lastSeen,
		},
		Messages: lo.Map(slices.Collect(session.Log.All()),
			func(msg domain.Message, _ int) MessageSnapshot {
				return fromMessage(msg)
			}),
	}
}

// ToSession rebuilds a live session from its snapshot.
func ToSession(snapshot SessionSnapshot) (*domain.ChatSession, error) {
	session := domain.NewChatSession(
		snapshot.PeerID,
		snapshot.PeerDisplayName,
		domain.BlobRef(snapshot.PeerAvatarRef),
	)
	session.Presence.IsOnline = snapshot.Presence.IsOnline
	if snapshot.Presence.LastSeenAt != nil {
		lastSeen, err := time.Parse(time.RFC3339, *snapshot.Presence.LastSeenAt)
		if err != nil {
			return nil, fmt.Errorf("last seen: %w", err)
		}
		session.Presence.LastSeenAt = &lastSeen
	}

	for _, raw := range snapshot.Messages {
		msg, err := toMessage(raw)
		if err != nil {
			return nil, err
		}
		if err := session.Log.Append(msg); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func fromMessage(msg domain.Message) MessageSnapshot {
	out := MessageSnapshot{
		ID:         msg.ID.String(),
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		CreatedAt:  msg.CreatedAt.UTC().Format(time.RFC3339),
		Kind:       string(msg.Kind),
		Status:     msg.Status.String(),
		Deletion:   string(msg.Deletion),
		DeletedBy:  msg.DeletedBy,
	}

	// A tombstone's payload is gone for good, including at rest.
	if msg.Deletion == domain.DeletedForEveryone {
		return out
	}

	switch body := msg.Body.(type) {
	case domain.TextContent:
		out.Text = body.Content
	case domain.MediaContent:
		out.Blob = string(body.Blob)
		out.FileName = body.Name
		out.FileSize = body.Size
	case domain.AudioContent:
		out.Blob = string(body.Blob)
		out.DurationSeconds = int(body.Duration / time.Second)
	}
	return out
}

func toMessage(raw MessageSnapshot) (domain.Message, error) {
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message %s created at: %w", raw.ID, err)
	}
	kind, err := domain.ParseKind(raw.Kind)
	if err != nil {
		return domain.Message{}, err
	}
	status, err := domain.ParseStatus(raw.Status)
	if err != nil {
		return domain.Message{}, err
	}
	deletion, err := domain.ParseDeletion(raw.Deletion)
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		ID:         id,
		SenderID:   raw.SenderID,
		ReceiverID: raw.ReceiverID,
		CreatedAt:  createdAt,
		Kind:       kind,
		Status:     status,
		Deletion:   deletion,
		DeletedBy:  raw.DeletedBy,
	}
	if deletion == domain.DeletedForEveryone {
		return msg, nil
	}

	switch kind {
	case domain.KindText:
		msg.Body = domain.TextContent{Content: raw.Text}
	case domain.KindImage, domain.KindFile:
		msg.Body = domain.MediaContent{
			Blob: domain.BlobRef(raw.Blob),
			Name: raw.FileName,
			Size: raw.FileSize,
		}
	case domain.KindAudio:
		msg.Body = domain.AudioContent{
			Blob:     domain.BlobRef(raw.Blob),
			Duration: time.Duration(raw.DurationSeconds) * time.Second,
		}
	}
	return msg, nil
}
