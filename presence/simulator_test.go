package presence

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"chat-session/domain"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

// recordingHooks captures simulator callbacks for assertions.
type recordingHooks struct {
	mu      sync.Mutex
	typing  []bool
	replies []string
	ticks   int
	replied chan struct{}
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{replied: make(chan struct{}, 16)}
}

func (h *recordingHooks) SetPeerTyping(typing bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.typing = append(h.typing, typing)
}

func (h *recordingHooks) DeliverPeerReply(content string) {
	h.mu.Lock()
	h.replies = append(h.replies, content)
	h.mu.Unlock()
	h.replied <- struct{}{}
}

func (h *recordingHooks) AdvanceAcknowledgments(shouldRead func() bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ticks++
	shouldRead()
}

func testConfig() Config {
	return Config{
		MinReplyDelay: 10 * time.Millisecond,
		MaxReplyDelay: 30 * time.Millisecond,
		AckInterval:   15 * time.Millisecond,
	}
}

func TestSimulator_ReplyCycle(t *testing.T) {
	req := require.New(t)
	hooks := newRecordingHooks()
	sim := NewSimulator(testConfig(), hooks, rand.New(rand.NewSource(7)), time.Now, testLogger())

	sim.NotifyLocalMessage(domain.KindText, "hello over there")

	select {
	case <-hooks.replied:
	case <-time.After(time.Second):
		t.Fatal("no peer reply within deadline")
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	req.Equal([]bool{true, false}, hooks.typing)
	req.Len(hooks.replies, 1)
	req.NotEmpty(hooks.replies[0])
}

func TestSimulator_AckTickerRunsUntilCancel(t *testing.T) {
	req := require.New(t)
	hooks := newRecordingHooks()
	sim := NewSimulator(testConfig(), hooks, rand.New(rand.NewSource(7)), time.Now, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	req.Eventually(func() bool {
		hooks.mu.Lock()
		defer hooks.mu.Unlock()
		return hooks.ticks >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

func TestSimulator_CancelKillsPendingReplyTimers(t *testing.T) {
	req := require.New(t)
	hooks := newRecordingHooks()
	cfg := testConfig()
	cfg.MinReplyDelay = 50 * time.Millisecond
	cfg.MaxReplyDelay = 80 * time.Millisecond
	sim := NewSimulator(cfg, hooks, rand.New(rand.NewSource(7)), time.Now, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	sim.NotifyLocalMessage(domain.KindText, "this reply must never land")
	cancel()
	<-done

	time.Sleep(120 * time.Millisecond)
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	req.Empty(hooks.replies)
}

func TestSimulator_SeedPresenceIsPlausible(t *testing.T) {
	req := require.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sim := NewSimulator(Config{}, newRecordingHooks(), rand.New(rand.NewSource(3)), clock, testLogger())

	for i := 0; i < 50; i++ {
		presence := sim.SeedPresence()
		if presence.IsOnline {
			req.Nil(presence.LastSeenAt)
			continue
		}
		req.NotNil(presence.LastSeenAt)
		req.True(presence.LastSeenAt.Before(now))
		req.True(presence.LastSeenAt.After(now.Add(-9*time.Hour)))
	}
}

func TestReplyTo_MatchesLanguageAndKind(t *testing.T) {
	req := require.New(t)
	rng := rand.New(rand.NewSource(11))

	french := "Bonjour mon ami, j'espère que tu vas très bien aujourd'hui et que nous déjeunerons ensemble demain midi."
	req.True(lo.Contains(replyPools["fr"], replyTo(rng, domain.KindText, french)))

	req.True(lo.Contains(mediaReplies, replyTo(rng, domain.KindAudio, "")))
	req.True(lo.Contains(mediaReplies, replyTo(rng, domain.KindImage, "")))
}
