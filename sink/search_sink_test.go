package sink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-session/domain"
	"chat-session/domain/event"
	"chat-session/search"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestSearchSink_KeepsIndexInStepWithEvents(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := search.NewInMemoryMessageIndex(log)
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	searchSink := NewSearchSink(index, log)
	key := "alice:bob"
	ctx := context.Background()
	now := time.Now().UTC()

	kept := domain.NewTextMessage("alice", "bob", "lunch at the harbour tomorrow", now)
	retracted := domain.NewTextMessage("alice", "bob", "harbour plans are cancelled", now)
	searchSink.Consume(event.MessageAppended{Key: key, Message: kept})
	searchSink.Consume(event.MessageAppended{Key: key, Message: retracted})

	ids, err := index.Search(ctx, key, "harbour", 10)
	req.NoError(err)
	req.Len(ids, 2)

	// Delete-for-self keeps the document; only retraction removes it.
	searchSink.Consume(event.MessageDeleted{Key: key, ID: retracted.ID, ForEveryone: false})
	ids, err = index.Search(ctx, key, "harbour", 10)
	req.NoError(err)
	req.Len(ids, 2)

	searchSink.Consume(event.MessageDeleted{Key: key, ID: retracted.ID, ForEveryone: true})
	ids, err = index.Search(ctx, key, "harbour", 10)
	req.NoError(err)
	req.Len(ids, 1)
	req.Equal(kept.ID, ids[0])
}
