package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"chat-session/audio"
	"chat-session/domain"
	"chat-session/moderation"
	"chat-session/presence"
	"chat-session/repositories"
	"chat-session/runtime"
	"chat-session/search"
	"chat-session/sink"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, drives the interactive loop, and
// centralizes error reporting so every defer (database close, index
// close, engine dispose) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	mask, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Full-text index (Bluge)
	index, err := search.NewMessageIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open message index: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = index.Close()
	}()

	// 4. Audio chain (in-memory device and player)
	store := audio.NewBlobStore()
	capture := audio.NewCaptureController(audio.NewMemoryDevice(store), time.Now, logger)
	playback := audio.NewPlaybackController(audio.NewMemoryPlayer(store), logger)

	var filter *moderation.Filter
	if words := config.BannedWordList(); len(words) > 0 {
		built, filterErr := moderation.NewFilter(words, mask)
		if filterErr != nil {
			return exitConfig, fmt.Errorf("moderation filter: %w", filterErr)
		}
		filter = &built
	}

	// 5. Session engine for the configured peer
	engine := runtime.NewSessionEngine(runtime.Config{
		Log:        logger,
		Identity:   staticIdentity{domain.Participant{ID: config.SelfID, DisplayName: config.SelfName}},
		Repository: repositories.NewSessionRepository(db, logger),
		Capture:    capture,
		Playback:   playback,
		Presence: presence.Config{
			MinReplyDelay:   config.MinReplyDelay,
			MaxReplyDelay:   config.MaxReplyDelay,
			AckInterval:     config.AckInterval,
			ReadProbability: config.ReadProbability,
			OnlineChance:    config.OnlineChance,
		},
		Filter: filter,
		Sniff: func(ref domain.BlobRef) (string, error) {
			_, contentType, sniffErr := store.Get(ref)
			return contentType, sniffErr
		},
		RestartInterval:   config.RestartInterval,
		TelemetryInterval: config.TelemetryInterval,
	}, domain.Participant{ID: config.PeerID, DisplayName: config.PeerName}, "")
	engine.AddSink(sink.NewSearchSink(index, logger))
	defer engine.Dispose()

	if err := engine.Load(ctx); err != nil {
		return exitRuntime, fmt.Errorf("session load failed: %w", err)
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repl := &repl{
		engine: engine,
		index:  index,
		store:  store,
		log:    logger,
		key:    engine.Key(),
	}
	color.Cyan.Printf("💬 Chatting with %s (type /help for commands)\n", config.PeerName)
	repl.render()

	lines := readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if quit := repl.handle(ctx, line); quit {
				return exitOK, nil
			}
		}
	}
}

type staticIdentity struct {
	user domain.Participant
}

func (i staticIdentity) CurrentUser() domain.Participant { return i.user }

func buildBadgerOpts(config Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// readLines pumps stdin into a channel so the select loop can also
// react to signals.
func readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

type repl struct {
	engine *runtime.SessionEngine
	index  *search.MessageIndex
	store  *audio.BlobStore
	log    *slog.Logger
	key    string
}

// handle executes one input line. Plain text becomes a message;
// anything starting with "/" is a command. Returns true on /quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		r.render()
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if _, err := r.engine.SendText(ctx, line); err != nil {
			color.Red.Println(err)
		}
		r.render()
		return false
	}

	command, arg, _ := strings.Cut(line[1:], " ")
	switch command {
	case "quit", "q":
		return true
	case "help":
		r.printHelp()
	case "read":
		r.report(r.engine.MarkConversationRead(ctx))
	case "del":
		r.delete(ctx, arg)
	case "rec":
		r.report(r.engine.StartRecording(ctx))
	case "stop":
		draft, err := r.engine.StopRecording()
		r.report(err)
		if err == nil && draft == nil {
			color.Yellow.Println("Too short, clip discarded")
		}
	case "send":
		_, err := r.engine.CommitRecording(ctx)
		r.report(err)
	case "drop":
		r.report(r.engine.DiscardRecording())
	case "play":
		r.play(ctx, arg)
	case "attach":
		r.attach(ctx, arg)
	case "find":
		r.find(ctx, arg)
	default:
		color.Yellow.Printf("Unknown command %q, try /help\n", command)
	}
	r.render()
	return false
}

func (r *repl) report(err error) {
	if err != nil {
		color.Red.Println(err)
	}
}

func (r *repl) delete(ctx context.Context, arg string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		color.Yellow.Println("Usage: /del <n> [all]")
		return
	}
	msg, ok := r.messageAt(fields[0])
	if !ok {
		return
	}
	forEveryone := len(fields) > 1 && fields[1] == "all"
	r.report(r.engine.DeleteMessage(ctx, msg.ID, forEveryone))
}

func (r *repl) play(ctx context.Context, arg string) {
	msg, ok := r.messageAt(arg)
	if !ok {
		return
	}
	r.report(r.engine.TogglePlayback(ctx, msg.ID))
}

func (r *repl) attach(ctx context.Context, path string) {
	if path == "" {
		color.Yellow.Println("Usage: /attach <path>")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		color.Red.Println(err)
		return
	}
	info, _ := os.Stat(path)
	var size int64
	if info != nil {
		size = info.Size()
	}
	_, err = r.engine.SendAttachment(ctx, runtime.AttachmentRequest{
		Blob: r.store.Put(data),
		Name: filepath.Base(path),
		Size: size,
	})
	r.report(err)
}

func (r *repl) find(ctx context.Context, terms string) {
	if terms == "" {
		color.Yellow.Println("Usage: /find <terms>")
		return
	}
	ids, err := r.index.Search(ctx, r.key, terms, 20)
	if err != nil {
		color.Red.Println(err)
		return
	}
	matches := map[string]bool{}
	for _, id := range ids {
		matches[id.String()] = true
	}
	for idx, msg := range r.engine.View().Messages {
		if matches[msg.ID.String()] {
			color.Green.Printf("#%d %s\n", idx, msg.Text())
		}
	}
	if len(ids) == 0 {
		color.Gray.Println("No match")
	}
}

// messageAt resolves a 0-based index from the rendered table.
func (r *repl) messageAt(raw string) (domain.Message, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		color.Yellow.Printf("Not a message number: %q\n", raw)
		return domain.Message{}, false
	}
	messages := r.engine.View().Messages
	if idx < 0 || idx >= len(messages) {
		color.Yellow.Printf("No message #%d\n", idx)
		return domain.Message{}, false
	}
	return messages[idx], true
}

func (r *repl) render() {
	view := r.engine.View()

	switch {
	case view.Presence.IsPeerTyping:
		color.Cyan.Printf("%s is typing…\n", view.Peer.DisplayName)
	case view.Presence.IsOnline:
		color.Green.Printf("%s is online\n", view.Peer.DisplayName)
	case view.Presence.LastSeenAt != nil:
		color.Gray.Printf("%s last seen %s\n",
			view.Peer.DisplayName, view.Presence.LastSeenAt.Format("15:04"))
	default:
		color.Gray.Printf("%s is offline\n", view.Peer.DisplayName)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Time", "From", "Status", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for idx, msg := range view.Messages {
		table.Append([]string{
			strconv.Itoa(idx),
			msg.CreatedAt.Local().Format("15:04:05"),
			msg.SenderID,
			statusTicks(msg),
			renderBody(msg),
		})
	}
	table.Render()

	if view.UnreadCount > 0 {
		color.Yellow.Printf("%d unread\n", view.UnreadCount)
	}
	if view.Recording.State != audio.CaptureIdle {
		color.Red.Printf("● %s (%s)\n", view.Recording.State, view.Recording.Elapsed)
	}
	if view.Playback.ActiveMessageID != nil {
		state := "playing"
		if view.Playback.Paused {
			state = "paused"
		}
		color.Cyan.Printf("▶ %s\n", state)
	}
}

func (r *repl) printHelp() {
	fmt.Println(`Commands:
  <text>          send a text message
  /read           mark the conversation read
  /del <n> [all]  delete message n for yourself, or for everyone
  /rec            start recording a voice note
  /stop           stop recording (keeps a draft)
  /send           send the recorded draft
  /drop           discard the recorded draft
  /play <n>       toggle playback of voice note n
  /attach <path>  send a file as an attachment
  /find <terms>   full-text search in this conversation
  /quit           leave`)
}

func statusTicks(msg domain.Message) string {
	if msg.Tombstone() {
		return ""
	}
	switch msg.Status {
	case domain.StatusSent:
		return "✓"
	case domain.StatusDelivered:
		return "✓✓"
	case domain.StatusRead:
		return color.Blue.Sprint("✓✓")
	default:
		return "?"
	}
}

func renderBody(msg domain.Message) string {
	if msg.Tombstone() {
		return color.Gray.Sprint(msg.Placeholder())
	}
	switch body := msg.Body.(type) {
	case domain.TextContent:
		return body.Content
	case domain.MediaContent:
		return fmt.Sprintf("📎 %s (%d bytes)", body.Name, body.Size)
	case domain.AudioContent:
		return fmt.Sprintf("🎤 voice note (%s)", body.Duration)
	default:
		return msg.Placeholder()
	}
}
