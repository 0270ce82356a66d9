// Package runtime orchestrates one conversation: it wires the message
// log, the audio controllers, the presence simulator, and the
// persistence adapter into a single command surface, without holding
// domain rules itself.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"chat-session/audio"
	"chat-session/contract"
	"chat-session/domain"
	"chat-session/domain/event"
	"chat-session/errors"
	"chat-session/moderation"
	"chat-session/observability"
	"chat-session/presence"
	"chat-session/repositories"
	"chat-session/runtime/workers"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type EngineState int

const (
	StateUninitialized EngineState = iota
	StateLoading
	StateReady
	StateDisposed
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("engineState(%d)", int(s))
	}
}

// TypeSniffer resolves a blob ref to its detected content type, used
// to classify attachments when the caller didn't name a kind.
type TypeSniffer func(ref domain.BlobRef) (string, error)

// AttachmentRequest carries everything needed to send an image or file
// message. Kind may be left empty to let the engine classify the blob.
type AttachmentRequest struct {
	Kind domain.MessageKind `validate:"omitempty,oneof=image file"`
	Blob domain.BlobRef     `validate:"required"`
	Name string             `validate:"required,max=255"`
	Size int64              `validate:"gte=0"`
}

// Config groups the collaborators a SessionEngine is built from. The
// capture controller and playback controller are application-wide
// singletons shared by every conversation.
type Config struct {
	Log        *slog.Logger
	Identity   contract.IdentityProvider
	Repository repositories.ISessionRepository
	Capture    *audio.CaptureController
	Playback   *audio.PlaybackController
	Presence   presence.Config
	Filter     *moderation.Filter // optional outgoing-text masking
	Sniff      TypeSniffer        // optional attachment classification
	Clock      func() time.Time
	Rand       *rand.Rand

	RestartInterval   time.Duration
	TelemetryInterval time.Duration // 0 disables the telemetry worker
}

// SessionEngine is the component a caller interacts with for one
// conversation: Uninitialized -> Loading -> Ready -> Disposed, with
// only Ready accepting commands. One mutex serializes every mutation,
// so persistence writes are strictly sequential per session.
type SessionEngine struct {
	mu    sync.Mutex
	log   *slog.Logger
	state EngineState

	key     string
	self    domain.Participant
	session *domain.ChatSession

	repo      repositories.ISessionRepository
	capture   *audio.CaptureController
	playback  *audio.PlaybackController
	simulator *presence.Simulator
	filter    *moderation.Filter
	sniff     TypeSniffer
	clock     func() time.Time

	counters   observability.Counters
	sinks      []contract.EventSink
	supervisor contract.ISupervisor

	telemetryInterval time.Duration
	ctx               context.Context
	cancel            context.CancelFunc
}

// NewSessionEngine builds an engine for the conversation with one
// peer. Nothing runs until Load.
func NewSessionEngine(cfg Config, peer domain.Participant, peerAvatar domain.BlobRef) *SessionEngine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	self := cfg.Identity.CurrentUser()
	engine := &SessionEngine{
		log:               cfg.Log,
		state:             StateUninitialized,
		key:               domain.ConversationKey(self.ID, peer.ID),
		self:              self,
		session:           domain.NewChatSession(peer.ID, peer.DisplayName, peerAvatar),
		repo:              cfg.Repository,
		capture:           cfg.Capture,
		playback:          cfg.Playback,
		filter:            cfg.Filter,
		sniff:             cfg.Sniff,
		clock:             cfg.Clock,
		supervisor:        workers.NewSupervisor(cfg.Log, cfg.RestartInterval),
		telemetryInterval: cfg.TelemetryInterval,
	}
	engine.simulator = presence.NewSimulator(
		cfg.Presence, simulatorHooks{engine}, cfg.Rand, cfg.Clock, cfg.Log)
	return engine
}

// AddSink attaches an event consumer. Only valid before Load.
func (e *SessionEngine) AddSink(sinks ...contract.EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, sinks...)
}

// Load restores the session from the persistence adapter (or starts a
// fresh one on first contact), seeds synthetic presence, and starts
// the background timers. A load failure degrades to a fresh session
// with a warning; the engine never refuses to come up.
func (e *SessionEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateUninitialized {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("load while %s: %w", state, errors.ErrNotReady)
	}
	e.state = StateLoading
	e.mu.Unlock()

	snapshot, err := e.repo.Load(ctx, e.key)
	if err != nil {
		e.log.Warn("Loading session failed, starting fresh", "key", e.key, "err", err)
		snapshot = nil
	}

	e.mu.Lock()
	if snapshot != nil {
		restored, convErr := repositories.ToSession(*snapshot)
		if convErr != nil {
			e.log.Warn("Corrupt session snapshot, starting fresh", "key", e.key, "err", convErr)
		} else {
			e.session = restored
		}
	}
	if snapshot == nil || e.session.Presence.LastSeenAt == nil && !e.session.Presence.IsOnline {
		e.session.Presence = e.simulator.SeedPresence()
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.supervisor.Add(e.simulator)
	if e.telemetryInterval > 0 {
		e.supervisor.Add(workers.NewTelemetryWorker(e.log, e.telemetryInterval, e.counters.Snapshot))
	}
	go e.supervisor.Run(e.ctx)

	e.state = StateReady
	presenceEvt := event.PresenceChanged{Key: e.key, Presence: e.session.Presence}
	e.fanoutLocked(presenceEvt)
	e.mu.Unlock()

	e.log.Info("Session ready", "key", e.key, "messages", e.MessageCount())
	return nil
}

// SendText appends an outgoing text message (masked by the moderation
// filter when one is configured) and triggers the peer's reply cycle.
func (e *SessionEngine) SendText(ctx context.Context, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, fmt.Errorf("refusing to send an empty message")
	}
	if e.filter != nil {
		masked, wasMasked := e.filter.Apply(content)
		if wasMasked {
			e.log.Debug("Outgoing text masked")
		}
		content = masked
	}

	e.mu.Lock()
	if err := e.requireReadyLocked(); err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	msg := domain.NewTextMessage(e.self.ID, e.session.PeerID, content, e.clock().UTC())
	if err := e.session.Log.Append(msg); err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	e.counters.MessagesSent.Add(1)
	e.persistLocked(ctx)
	e.fanoutLocked(event.MessageAppended{Key: e.key, Message: msg})
	e.mu.Unlock()

	e.simulator.NotifyLocalMessage(domain.KindText, content)
	return msg, nil
}

// SendAttachment appends an outgoing image or file message. When the
// request doesn't name a kind, the blob's content type decides.
func (e *SessionEngine) SendAttachment(ctx context.Context, req AttachmentRequest) (domain.Message, error) {
	if err := validate.Struct(req); err != nil {
		return domain.Message{}, fmt.Errorf("invalid attachment: %w", err)
	}
	kind := req.Kind
	if kind == "" {
		kind = e.classify(req.Blob)
	}

	e.mu.Lock()
	if err := e.requireReadyLocked(); err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	msg, err := domain.NewMediaMessage(kind, e.self.ID, e.session.PeerID,
		domain.MediaContent{Blob: req.Blob, Name: req.Name, Size: req.Size},
		e.clock().UTC())
	if err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	if err := e.session.Log.Append(msg); err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	e.counters.MessagesSent.Add(1)
	e.persistLocked(ctx)
	e.fanoutLocked(event.MessageAppended{Key: e.key, Message: msg})
	e.mu.Unlock()

	e.simulator.NotifyLocalMessage(kind, "")
	return msg, nil
}

// SendAudio turns a committed draft into an outgoing voice note.
func (e *SessionEngine) SendAudio(ctx context.Context, draft domain.AudioDraft) (domain.Message, error) {
	e.mu.Lock()
	if err := e.requireReadyLocked(); err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	msg := domain.NewAudioMessage(e.self.ID, e.session.PeerID,
		domain.AudioContent{Blob: draft.Blob, Duration: draft.Duration},
		e.clock().UTC())
	if err := e.session.Log.Append(msg); err != nil {
		e.mu.Unlock()
		return domain.Message{}, err
	}
	e.counters.MessagesSent.Add(1)
	e.persistLocked(ctx)
	e.fanoutLocked(event.MessageAppended{Key: e.key, Message: msg})
	e.mu.Unlock()

	e.simulator.NotifyLocalMessage(domain.KindAudio, "")
	return msg, nil
}

// MarkConversationRead advances every message addressed to the local
// user to read. Calling it again is a no-op with identical visible
// state.
func (e *SessionEngine) MarkConversationRead(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReadyLocked(); err != nil {
		return err
	}

	var advanced []event.DomainEvent
	now := e.clock().UTC()
	for msg := range e.session.Log.All() {
		if msg.ReceiverID != e.self.ID || msg.Status == domain.StatusRead {
			continue
		}
		if err := e.session.Log.AdvanceStatus(msg.ID, domain.StatusRead); err != nil {
			return err
		}
		advanced = append(advanced, event.StatusAdvanced{
			Key: e.key, ID: msg.ID, Status: domain.StatusRead, At: now,
		})
	}
	if len(advanced) == 0 {
		return nil
	}
	e.persistLocked(ctx)
	e.fanoutLocked(advanced...)
	return nil
}

// DeleteMessage applies a deletion tombstone. Delete-for-everyone is
// rejected for messages the local user did not author; nothing is
// partially applied on rejection.
func (e *SessionEngine) DeleteMessage(ctx context.Context, id uuid.UUID, forEveryone bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReadyLocked(); err != nil {
		return err
	}

	if err := e.session.Log.MarkDeleted(id, e.self.ID, forEveryone); err != nil {
		return err
	}
	e.counters.Deletions.Add(1)
	e.persistLocked(ctx)
	e.fanoutLocked(event.MessageDeleted{Key: e.key, ID: id, ForEveryone: forEveryone})
	return nil
}

// StartRecording acquires the shared capture device for this
// conversation.
func (e *SessionEngine) StartRecording(ctx context.Context) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	return e.capture.StartRecording(ctx)
}

// StopRecording finalizes the clip into a draft; sub-second clips
// yield no draft and no error.
func (e *SessionEngine) StopRecording() (*domain.AudioDraft, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.capture.StopRecording()
}

// CommitRecording commits the pending draft and sends it as a voice
// note.
func (e *SessionEngine) CommitRecording(ctx context.Context) (domain.Message, error) {
	if err := e.requireReady(); err != nil {
		return domain.Message{}, err
	}
	draft, err := e.capture.CommitDraft()
	if err != nil {
		return domain.Message{}, err
	}
	return e.SendAudio(ctx, draft)
}

// DiscardRecording drops the pending draft.
func (e *SessionEngine) DiscardRecording() error {
	if err := e.requireReady(); err != nil {
		return err
	}
	return e.capture.DiscardDraft()
}

// TogglePlayback plays the given voice note, preempting whatever else
// is audible, or pauses it when it is already the active one.
func (e *SessionEngine) TogglePlayback(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	if err := e.requireReadyLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	msg, ok := e.session.Log.Get(id)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("toggle playback %s: %w", id, errors.ErrUnknownMessage)
	}
	audioBody, isAudio := msg.Body.(domain.AudioContent)
	if !isAudio || msg.Tombstone() {
		return fmt.Errorf("%w: message %s has no playable audio", errors.ErrPlaybackFailed, id)
	}
	return e.playback.Play(ctx, id, audioBody.Blob)
}

// Key is the conversation key this engine persists and emits under.
func (e *SessionEngine) Key() string {
	return e.key
}

// MessageCount reports the log length, tombstones included.
func (e *SessionEngine) MessageCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Log.Len()
}

func (e *SessionEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dispose tears the conversation down: presence timers die, an
// in-flight recording is discarded, and the playback slot is released
// if this conversation's message occupies it. Idempotent.
func (e *SessionEngine) Dispose() {
	e.mu.Lock()
	if e.state == StateDisposed {
		e.mu.Unlock()
		return
	}
	e.state = StateDisposed
	if e.cancel != nil {
		e.cancel()
	}
	ownsSlot := false
	if activeID, active := e.playback.Active(); active {
		_, ownsSlot = e.session.Log.Get(activeID)
	}
	e.mu.Unlock()

	e.capture.Abort()
	if ownsSlot {
		e.playback.StopAll()
	}
	e.log.Info("Session disposed", "key", e.key)
}

func (e *SessionEngine) requireReady() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requireReadyLocked()
}

func (e *SessionEngine) requireReadyLocked() error {
	if e.state != StateReady {
		return fmt.Errorf("engine is %s: %w", e.state, errors.ErrNotReady)
	}
	return nil
}

// persistLocked writes the current snapshot through the adapter,
// retrying once. A second failure is a warning, not a command failure:
// the in-memory session stays authoritative for this run.
func (e *SessionEngine) persistLocked(ctx context.Context) {
	if ctx == nil || ctx.Err() != nil {
		ctx = e.ctx
	}
	snapshot := repositories.FromSession(e.session)
	e.counters.Saves.Add(1)

	err := e.repo.Save(ctx, e.key, snapshot)
	if err == nil {
		return
	}
	e.counters.SaveRetries.Add(1)
	e.log.Debug("Snapshot write failed, retrying once", "key", e.key, "err", err)

	if err = e.repo.Save(ctx, e.key, snapshot); err != nil {
		e.counters.SaveFailures.Add(1)
		e.log.Warn("Snapshot write failed twice, session kept in memory only",
			"key", e.key, "err", err)
	}
}

func (e *SessionEngine) fanoutLocked(events ...event.DomainEvent) {
	for _, evt := range events {
		for _, sink := range e.sinks {
			sink.Consume(evt)
		}
	}
}

func (e *SessionEngine) classify(ref domain.BlobRef) domain.MessageKind {
	if e.sniff == nil {
		return domain.KindFile
	}
	contentType, err := e.sniff(ref)
	if err != nil {
		e.log.Debug("Blob sniffing failed, treating as file", "ref", ref, "err", err)
		return domain.KindFile
	}
	if strings.HasPrefix(contentType, "image/") {
		return domain.KindImage
	}
	return domain.KindFile
}

// simulatorHooks adapts the engine to the presence.Hooks callbacks.
// Every call re-checks Ready under the engine lock, so late timer
// fires after Dispose fall out harmlessly.
type simulatorHooks struct {
	engine *SessionEngine
}

func (h simulatorHooks) SetPeerTyping(typing bool) {
	e := h.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady || e.session.Presence.IsPeerTyping == typing {
		return
	}
	e.session.Presence.IsPeerTyping = typing
	// Typing is transient, not worth a persistence write.
	e.fanoutLocked(event.PresenceChanged{Key: e.key, Presence: e.session.Presence})
}

func (h simulatorHooks) DeliverPeerReply(content string) {
	e := h.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return
	}

	msg := domain.NewTextMessage(e.session.PeerID, e.self.ID, content, e.clock().UTC())
	msg.Status = domain.StatusDelivered
	if err := e.session.Log.Append(msg); err != nil {
		e.log.Error("Appending synthetic reply failed", "err", err)
		return
	}
	e.counters.RepliesReceived.Add(1)
	e.persistLocked(e.ctx)
	e.fanoutLocked(event.MessageAppended{Key: e.key, Message: msg})
}

func (h simulatorHooks) AdvanceAcknowledgments(shouldRead func() bool) {
	e := h.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return
	}

	var advanced []event.DomainEvent
	now := e.clock().UTC()
	for msg := range e.session.Log.All() {
		if msg.SenderID != e.self.ID {
			continue
		}
		var next domain.MessageStatus
		switch msg.Status {
		case domain.StatusSent:
			next = domain.StatusDelivered
		case domain.StatusDelivered:
			if !shouldRead() {
				continue
			}
			next = domain.StatusRead
		default:
			continue
		}
		if err := e.session.Log.AdvanceStatus(msg.ID, next); err != nil {
			e.log.Error("Acknowledgment advance failed", "message", msg.ID, "err", err)
			continue
		}
		advanced = append(advanced, event.StatusAdvanced{Key: e.key, ID: msg.ID, Status: next, At: now})
	}
	if len(advanced) == 0 {
		return
	}
	e.counters.AcksAdvanced.Add(uint64(len(advanced)))
	e.persistLocked(e.ctx)
	e.fanoutLocked(advanced...)
}
