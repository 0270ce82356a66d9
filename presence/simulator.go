// Package presence stands in for an absent backend: it fabricates the
// peer's online/last-seen/typing signals and the asynchronous
// delivery/read acknowledgments a real transport would produce. A
// backend integration replaces this package behind the same hooks
// without touching the message log or the engine.
package presence

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"chat-session/domain"
)

// Hooks is how the simulator reaches back into the session engine.
// Every call mutates engine state under the engine's own lock.
type Hooks interface {
	// SetPeerTyping flips the typing indicator.
	SetPeerTyping(typing bool)
	// DeliverPeerReply appends a synthetic peer message with status
	// delivered.
	DeliverPeerReply(content string)
	// AdvanceAcknowledgments moves locally-authored messages one step
	// forward: sent->delivered always, delivered->read when shouldRead
	// answers true for that tick.
	AdvanceAcknowledgments(shouldRead func() bool)
}

type Config struct {
	MinReplyDelay   time.Duration // inclusive lower bound of the reply timer
	MaxReplyDelay   time.Duration // exclusive upper bound
	AckInterval     time.Duration // recurring acknowledgment ticker period
	ReadProbability float64       // chance per tick of delivered->read
	OnlineChance    float64       // initial probability the peer is online
}

func (c Config) withDefaults() Config {
	if c.MinReplyDelay <= 0 {
		c.MinReplyDelay = 2 * time.Second
	}
	if c.MaxReplyDelay <= c.MinReplyDelay {
		c.MaxReplyDelay = c.MinReplyDelay + 3*time.Second
	}
	if c.AckInterval <= 0 {
		c.AckInterval = 4 * time.Second
	}
	if c.ReadProbability <= 0 || c.ReadProbability > 1 {
		c.ReadProbability = 0.4
	}
	if c.OnlineChance <= 0 || c.OnlineChance > 1 {
		c.OnlineChance = 0.66
	}
	return c
}

// Simulator produces synthetic remote-peer signals on timers. All
// timers die with the context the engine runs it under.
type Simulator struct {
	mu      sync.Mutex
	log     *slog.Logger
	cfg     Config
	rng     *rand.Rand
	clock   func() time.Time
	hooks   Hooks
	timers  []*time.Timer
	stopped bool
}

func NewSimulator(cfg Config, hooks Hooks, rng *rand.Rand, clock func() time.Time, log *slog.Logger) *Simulator {
	return &Simulator{
		log:   log,
		cfg:   cfg.withDefaults(),
		rng:   rng,
		clock: clock,
		hooks: hooks,
	}
}

// SeedPresence fabricates a plausible initial peer presence for a
// fresh session.
func (s *Simulator) SeedPresence() domain.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.cfg.OnlineChance {
		return domain.Presence{IsOnline: true}
	}
	lastSeen := s.clock().Add(-time.Duration(s.rng.Intn(8*60)+1) * time.Minute)
	return domain.Presence{LastSeenAt: &lastSeen}
}

// Run drives the recurring acknowledgment ticker until the context is
// cancelled, then kills any pending reply timers.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.AckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cancelTimers()
			return ctx.Err()
		case <-ticker.C:
			s.hooks.AdvanceAcknowledgments(s.readCoin)
		}
	}
}

// NotifyLocalMessage starts one typing/reply cycle: the peer starts
// typing immediately and, after a delay in [MinReplyDelay,
// MaxReplyDelay), stops typing and answers with status delivered.
func (s *Simulator) NotifyLocalMessage(kind domain.MessageKind, text string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delay := s.cfg.MinReplyDelay +
		time.Duration(s.rng.Int63n(int64(s.cfg.MaxReplyDelay-s.cfg.MinReplyDelay)))
	reply := replyTo(s.rng, kind, text)
	s.mu.Unlock()

	s.hooks.SetPeerTyping(true)

	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.hooks.SetPeerTyping(false)
		s.hooks.DeliverPeerReply(reply)
	})

	s.mu.Lock()
	s.timers = append(s.timers, timer)
	s.mu.Unlock()
}

func (s *Simulator) readCoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.cfg.ReadProbability
}

func (s *Simulator) cancelTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for _, timer := range s.timers {
		timer.Stop()
	}
	s.timers = nil
	s.log.Debug("Presence simulator stopped, reply timers cancelled")
}
