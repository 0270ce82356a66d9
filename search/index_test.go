package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-session/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestMessageIndex_IndexAndSearchByConversation(t *testing.T) {
	req := require.New(t)
	index, err := NewInMemoryMessageIndex(slog.Default())
	req.NoError(err)
	defer index.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	keyAB := domain.ConversationKey("alice", "bob")
	keyAC := domain.ConversationKey("alice", "carol")

	hit := domain.NewTextMessage("alice", "bob", "the migration to badger is done", now)
	miss := domain.NewTextMessage("alice", "bob", "lunch tomorrow?", now.Add(time.Second))
	otherConvo := domain.NewTextMessage("alice", "carol", "badger migration status?", now.Add(2*time.Second))

	req.NoError(index.Index(keyAB, hit))
	req.NoError(index.Index(keyAB, miss))
	req.NoError(index.Index(keyAC, otherConvo))

	ids, err := index.Search(ctx, keyAB, "migration", 10)
	req.NoError(err)
	req.Equal([]string{hit.ID.String()}, toStrings(ids))

	ids, err = index.Search(ctx, keyAC, "migration", 10)
	req.NoError(err)
	req.Equal([]string{otherConvo.ID.String()}, toStrings(ids))

	ids, err = index.Search(ctx, keyAB, "nothing matches this", 10)
	req.NoError(err)
	req.Empty(ids)
}

func TestMessageIndex_SkipsNonTextAndRemoves(t *testing.T) {
	req := require.New(t)
	index, err := NewInMemoryMessageIndex(slog.Default())
	req.NoError(err)
	defer index.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	key := domain.ConversationKey("alice", "bob")

	audio := domain.NewAudioMessage("alice", "bob",
		domain.AudioContent{Blob: "blob-1", Duration: 3 * time.Second}, now)
	req.NoError(index.Index(key, audio))

	text := domain.NewTextMessage("alice", "bob", "searchable words here", now.Add(time.Second))
	req.NoError(index.Index(key, text))

	ids, err := index.Search(ctx, key, "searchable", 10)
	req.NoError(err)
	req.Len(ids, 1)

	req.NoError(index.Remove(text.ID))
	ids, err = index.Search(ctx, key, "searchable", 10)
	req.NoError(err)
	req.Empty(ids)
}

func toStrings(ids []uuid.UUID) []string {
	return lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() })
}
