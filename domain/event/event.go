// Package event defines the domain events the session engine fans out
// to in-process sinks after each mutation. A real delivery transport
// would plug in behind the same events.
package event

import (
	"time"

	"chat-session/domain"

	"github.com/google/uuid"
)

// DomainEvent ties an event to the conversation that produced it.
type DomainEvent interface {
	ConversationKey() string
}

type MessageAppended struct {
	Key     string
	Message domain.Message
}

func (e MessageAppended) ConversationKey() string { return e.Key }

type StatusAdvanced struct {
	Key    string
	ID     uuid.UUID
	Status domain.MessageStatus
	At     time.Time
}

func (e StatusAdvanced) ConversationKey() string { return e.Key }

type MessageDeleted struct {
	Key         string
	ID          uuid.UUID
	ForEveryone bool
}

func (e MessageDeleted) ConversationKey() string { return e.Key }

type PresenceChanged struct {
	Key      string
	Presence domain.Presence
}

func (e PresenceChanged) ConversationKey() string { return e.Key }
