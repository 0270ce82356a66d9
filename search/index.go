// Package search maintains a full-text index over a conversation's
// textual content, so a viewer can find old messages without scrolling
// the whole history.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-session/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// MessageIndex wraps a Bluge writer. Only text messages are indexed;
// media and audio payloads are opaque blobs with nothing to search.
type MessageIndex struct {
	mu     sync.Mutex
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("open message index: %w", err)
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

// NewInMemoryMessageIndex backs the index with memory only, for tests
// and throwaway sessions.
func NewInMemoryMessageIndex(log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("open in-memory message index: %w", err)
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

// Index adds or refreshes one message document under its conversation
// key. Non-text messages are skipped silently.
func (i *MessageIndex) Index(key string, msg domain.Message) error {
	content := msg.Text()
	if msg.Kind != domain.KindText || content == "" {
		return nil
	}

	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("conversation", key)).
		AddField(bluge.NewTextField("content", content))

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer.Update(doc.ID(), doc)
}

// Remove drops a message from the index, e.g. after a
// delete-for-everyone tombstone.
func (i *MessageIndex) Remove(id uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer.Delete(bluge.NewDocument(id.String()).ID())
}

// Search returns the ids of messages in the given conversation whose
// content matches the terms, best match first.
func (i *MessageIndex) Search(ctx context.Context, key, terms string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 10
	}

	i.mu.Lock()
	reader, err := i.writer.Reader()
	i.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Closing index reader failed", "err", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(key).SetField("conversation"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", terms, err)
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate matches: %w", err)
		}
		if match == nil {
			return ids, nil
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != "_id" {
				return true
			}
			id, parseErr := uuid.Parse(string(value))
			if parseErr != nil {
				i.log.Warn("Skipping non-uuid document id", "raw", string(value))
				return true
			}
			ids = append(ids, id)
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("visit stored fields: %w", err)
		}
	}
}

func (i *MessageIndex) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer.Close()
}
