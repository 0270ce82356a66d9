// Package sink contains event consumers attached to the session
// engine's fan-out. Sinks are best-effort side effects; a sink failure
// never blocks or rolls back the mutation that produced the event.
package sink

import (
	"log/slog"

	"chat-session/domain/event"
	"chat-session/search"
)

// SearchSink keeps the full-text index in step with the message log:
// appended text is indexed, delete-for-everyone removes the document.
type SearchSink struct {
	index *search.MessageIndex
	log   *slog.Logger
}

func NewSearchSink(index *search.MessageIndex, log *slog.Logger) SearchSink {
	return SearchSink{index: index, log: log}
}

func (s SearchSink) Consume(e event.DomainEvent) {
	switch evt := e.(type) {
	case event.MessageAppended:
		if err := s.index.Index(evt.Key, evt.Message); err != nil {
			s.log.Error("Indexing message failed", "message", evt.Message.ID, "err", err)
		}
	case event.MessageDeleted:
		if !evt.ForEveryone {
			return
		}
		if err := s.index.Remove(evt.ID); err != nil {
			s.log.Error("Removing message from index failed", "message", evt.ID, "err", err)
		}
	}
}
