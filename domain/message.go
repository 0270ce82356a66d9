// Package domain contains core concepts of the chat session engine.
// This file defines Message, its tagged content variants, and the
// delivery status / deletion rules. No runtime, storage, or UI logic
// should be added here.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BlobRef is an opaque handle to binary content (image, file, audio)
// held outside the message log.
type BlobRef string

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
	KindAudio MessageKind = "audio"
)

// MessageStatus models the sent -> delivered -> read progression.
// The integer ordering is the transition ordering: a status may only
// move towards a strictly greater value.
type MessageStatus int

const (
	StatusSent MessageStatus = iota
	StatusDelivered
	StatusRead
)

func (s MessageStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus maps the serialized form back to a MessageStatus.
func ParseStatus(raw string) (MessageStatus, error) {
	switch raw {
	case "sent":
		return StatusSent, nil
	case "delivered":
		return StatusDelivered, nil
	case "read":
		return StatusRead, nil
	default:
		return 0, fmt.Errorf("unknown message status %q", raw)
	}
}

type Deletion string

const (
	DeletionNone        Deletion = "none"
	DeletedForSelf      Deletion = "deletedForSelf"
	DeletedForEveryone  Deletion = "deletedForEveryone"
	deletedPlaceholder           = "message deleted"
)

// ParseDeletion maps the serialized form back to a Deletion flag.
func ParseDeletion(raw string) (Deletion, error) {
	switch Deletion(raw) {
	case DeletionNone, DeletedForSelf, DeletedForEveryone:
		return Deletion(raw), nil
	default:
		return "", fmt.Errorf("unknown deletion flag %q", raw)
	}
}

// ParseKind maps the serialized form back to a MessageKind.
func ParseKind(raw string) (MessageKind, error) {
	switch MessageKind(raw) {
	case KindText, KindImage, KindFile, KindAudio:
		return MessageKind(raw), nil
	default:
		return "", fmt.Errorf("unknown message kind %q", raw)
	}
}

// TextContent is the body of a KindText message.
type TextContent struct {
	Content string
}

// MediaContent is the body of a KindImage or KindFile message.
type MediaContent struct {
	Blob BlobRef
	Name string
	Size int64
}

// AudioContent is the body of a KindAudio message. The blob is only
// finalized when the originating recording draft is committed.
type AudioContent struct {
	Blob     BlobRef
	Duration time.Duration
}

// Message represents one chat event between two participants.
// Status and the deletion fields are the only mutable parts; everything
// else is fixed at creation.
type Message struct {
	ID         uuid.UUID
	SenderID   string
	ReceiverID string
	CreatedAt  time.Time
	Kind       MessageKind
	Body       any // TextContent | MediaContent | AudioContent

	Status    MessageStatus
	Deletion  Deletion
	DeletedBy string // viewer id when Deletion == DeletedForSelf
}

// NewTextMessage builds a sent text message between two participants.
func NewTextMessage(senderID, receiverID, content string, at time.Time) Message {
	return Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  at,
		Kind:       KindText,
		Body:       TextContent{Content: content},
		Status:     StatusSent,
		Deletion:   DeletionNone,
	}
}

// NewMediaMessage builds a sent image or file message.
func NewMediaMessage(kind MessageKind, senderID, receiverID string, media MediaContent, at time.Time) (Message, error) {
	if kind != KindImage && kind != KindFile {
		return Message{}, fmt.Errorf("kind %q cannot carry media content", kind)
	}
	return Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  at,
		Kind:       kind,
		Body:       media,
		Status:     StatusSent,
		Deletion:   DeletionNone,
	}, nil
}

// NewAudioMessage builds a sent voice-note message from a committed draft.
func NewAudioMessage(senderID, receiverID string, audio AudioContent, at time.Time) Message {
	return Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  at,
		Kind:       KindAudio,
		Body:       audio,
		Status:     StatusSent,
		Deletion:   DeletionNone,
	}
}

// Text returns the textual content, or the empty string for non-text
// messages and for messages deleted for everyone.
func (m Message) Text() string {
	if m.Deletion == DeletedForEveryone {
		return ""
	}
	if body, ok := m.Body.(TextContent); ok {
		return body.Content
	}
	return ""
}

// Tombstone reports whether the payload is inaccessible to every viewer.
func (m Message) Tombstone() bool {
	return m.Deletion == DeletedForEveryone
}

// Placeholder is the neutral rendering of a message deleted for everyone.
func (m Message) Placeholder() string {
	return deletedPlaceholder
}
