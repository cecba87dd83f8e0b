// Package telegram routes Telegram updates to the start, analyze and chat
// handlers and delivers their replies.
package telegram

import (
	"context"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"ledgerbot/internal/locale"
	applog "ledgerbot/internal/log"
	"ledgerbot/internal/services"
	"ledgerbot/internal/session"
	"ledgerbot/internal/trace"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/semaphore"
)

const (
	CommandStart   = "start"
	CommandAnalyze = "analyze"

	// Telegram caps messages at 4096 characters; escaping needs headroom.
	maxChunkRunes = 3500
	// Error details shown to users are cut to this many runes.
	maxErrorDetailRunes = 200
)

// Sender is the part of *tgbotapi.BotAPI the dispatcher uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Chatter answers free text within a user's session.
type Chatter interface {
	Chat(ctx context.Context, s *session.Session, text string) (string, error)
}

// Analyzer produces ledger reports.
type Analyzer interface {
	Analyze(ctx context.Context, category, periodPhrase string) (services.Report, error)
}

type Options struct {
	Locale        *locale.Locale
	Logger        *applog.Logger
	MaxConcurrent int64
}

// Bot dispatches updates. Each update is handled in its own goroutine and is
// isolated from the others: errors and panics end at the handler.
type Bot struct {
	api      Sender
	sessions *session.Store
	chat     Chatter
	reports  Analyzer
	locale   *locale.Locale
	logger   *applog.Logger
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	metrics  trace.Metrics
}

func New(api Sender, sessions *session.Store, chat Chatter, reports Analyzer, opts Options) *Bot {
	if opts.Locale == nil {
		opts.Locale = locale.Vietnamese
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	return &Bot{
		api:      api,
		sessions: sessions,
		chat:     chat,
		reports:  reports,
		locale:   opts.Locale,
		logger:   opts.Logger.WithComponent(applog.ComponentTelegram),
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
	}
}

// Run consumes updates until ctx is done or the channel closes, then waits
// for in-flight handlers. Handlers run on a context that is not cancelled
// with ctx so that a reply being generated still reaches the user.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer b.wg.Wait()
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer b.sem.Release(1)
				b.HandleUpdate(handlerCtx, u)
			}()
		}
	}
}

// Stats reports how many updates were handled and how many panicked.
func (b *Bot) Stats() trace.Stats {
	return b.metrics.Snapshot()
}

type route int

const (
	routeIgnore route = iota
	routeStart
	routeAnalyze
	routeChat
)

func routeOf(msg *tgbotapi.Message) route {
	if msg == nil || msg.Chat == nil {
		return routeIgnore
	}
	if msg.IsCommand() {
		switch msg.Command() {
		case CommandStart:
			return routeStart
		case CommandAnalyze:
			return routeAnalyze
		}
	}
	if msg.Chat.IsPrivate() && strings.TrimSpace(msg.Text) != "" {
		return routeChat
	}
	return routeIgnore
}

// HandleUpdate routes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	msg := u.Message
	r := routeOf(msg)
	if r == routeIgnore {
		return
	}

	ctx = trace.WithID(ctx, trace.NewID())
	logger := b.logger.With(applog.NewFields().
		WithUpdate(u.UpdateID, msg.Chat.ID, userID(msg)).
		ToSlice()...)
	start := time.Now()
	ok := false
	// Set once a chat placeholder is sent, so a panic can still resolve it.
	placeholderID := 0
	defer func() {
		b.metrics.Observe(time.Since(start), ok)
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "Handler panicked",
				"panic", rec,
				"stack", string(debug.Stack()),
				applog.FieldErrorType, applog.ErrorTypeInternal)
			if placeholderID != 0 {
				_ = b.edit(ctx, logger, msg.Chat.ID, placeholderID, b.locale.GenerationFailed, "")
			}
		}
	}()

	var op string
	switch r {
	case routeStart:
		op = applog.OpStart
		b.handleStart(ctx, logger, msg)
	case routeAnalyze:
		op = applog.OpAnalyze
		b.handleAnalyze(ctx, logger, msg)
	case routeChat:
		op = applog.OpChat
		b.handleChat(ctx, logger, msg, &placeholderID)
	}
	ok = true
	logger.DebugContext(ctx, "Update handled",
		applog.FieldOperation, op,
		applog.FieldDuration, time.Since(start).Milliseconds())
}

func (b *Bot) handleStart(ctx context.Context, logger *applog.Logger, msg *tgbotapi.Message) {
	b.replyText(ctx, logger, msg, b.locale.Welcome)
}

func (b *Bot) handleAnalyze(ctx context.Context, logger *applog.Logger, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		logger.InfoContext(ctx, "Analyze usage error", applog.FieldErrorType, applog.ErrorTypeUsage)
		b.replyText(ctx, logger, msg, b.locale.Usage)
		return
	}
	category := args[0]
	period := strings.ToLower(strings.Join(args[1:], " "))

	rep, err := b.reports.Analyze(ctx, category, period)
	switch {
	case services.IsUsageError(err):
		logger.InfoContext(ctx, "Analyze period not recognized",
			applog.FieldCategory, category,
			applog.FieldPeriod, period,
			applog.FieldErrorType, applog.ErrorTypeUsage)
		b.replyText(ctx, logger, msg, b.locale.UnknownPeriod)
	case err != nil:
		logger.ErrorContext(ctx, "Analyze failed",
			applog.FieldCategory, category,
			applog.FieldPeriod, period,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeAggregation)
		b.replyText(ctx, logger, msg, b.locale.AnalyzeError(err, maxErrorDetailRunes))
	default:
		logger.InfoContext(ctx, "Analyze completed",
			applog.FieldCategory, category,
			applog.FieldPeriod, period,
			"total", rep.Summary.Total)
		b.replyText(ctx, logger, msg, rep.Text)
	}
}

func (b *Bot) handleChat(ctx context.Context, logger *applog.Logger, msg *tgbotapi.Message, placeholderID *int) {
	placeholder, err := b.api.Send(replyTo(msg, b.locale.Generating))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send placeholder",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeTransport)
		return
	}
	*placeholderID = placeholder.MessageID

	sess := b.sessions.GetOrCreate(userKey(msg))
	reply, err := b.chat.Chat(ctx, sess, strings.TrimSpace(msg.Text))
	if err != nil {
		logger.ErrorContext(ctx, "Generation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeGeneration)
		_ = b.edit(ctx, logger, msg.Chat.ID, placeholder.MessageID, b.locale.GenerationFailed, "")
		return
	}

	chunks := splitMessage(reply, maxChunkRunes)
	if len(chunks) == 0 {
		_ = b.edit(ctx, logger, msg.Chat.ID, placeholder.MessageID, b.locale.GenerationFailed, "")
		return
	}
	b.editFormatted(ctx, logger, msg.Chat.ID, placeholder.MessageID, chunks[0])
	for _, chunk := range chunks[1:] {
		b.sendFormatted(ctx, logger, msg.Chat.ID, chunk)
	}
}

// editFormatted edits the placeholder with MarkdownV2 and falls back to the
// raw text when Telegram rejects the markup.
func (b *Bot) editFormatted(ctx context.Context, logger *applog.Logger, chatID int64, messageID int, md string) {
	err := b.edit(ctx, nil, chatID, messageID, ToMarkdownV2(md), tgbotapi.ModeMarkdownV2)
	if err == nil {
		return
	}
	logger.WarnContext(ctx, "MarkdownV2 edit rejected, retrying as plain text", applog.FieldError, err)
	_ = b.edit(ctx, logger, chatID, messageID, md, "")
}

func (b *Bot) sendFormatted(ctx context.Context, logger *applog.Logger, chatID int64, md string) {
	m := tgbotapi.NewMessage(chatID, ToMarkdownV2(md))
	m.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := b.api.Send(m)
	if err == nil {
		return
	}
	logger.WarnContext(ctx, "MarkdownV2 send rejected, retrying as plain text", applog.FieldError, err)
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, md)); err != nil {
		logger.ErrorContext(ctx, "Failed to send message",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeTransport)
	}
}

// edit replaces a message's text. Failures are logged when logger is set.
func (b *Bot) edit(ctx context.Context, logger *applog.Logger, chatID int64, messageID int, text, parseMode string) error {
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = parseMode
	_, err := b.api.Send(e)
	if err != nil && logger != nil {
		logger.ErrorContext(ctx, "Failed to edit message",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeTransport)
	}
	return err
}

// replyText replies with plain text, split to fit Telegram's size limit.
func (b *Bot) replyText(ctx context.Context, logger *applog.Logger, msg *tgbotapi.Message, text string) {
	for i, chunk := range splitMessage(text, maxChunkRunes) {
		var c tgbotapi.MessageConfig
		if i == 0 {
			c = replyTo(msg, chunk)
		} else {
			c = tgbotapi.NewMessage(msg.Chat.ID, chunk)
		}
		if _, err := b.api.Send(c); err != nil {
			logger.ErrorContext(ctx, "Failed to send reply",
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeTransport)
			return
		}
	}
}

func replyTo(msg *tgbotapi.Message, text string) tgbotapi.MessageConfig {
	c := tgbotapi.NewMessage(msg.Chat.ID, text)
	c.ReplyToMessageID = msg.MessageID
	return c
}

// userID identifies the session owner; anonymous senders share the chat's.
func userID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func userKey(msg *tgbotapi.Message) string {
	return strconv.FormatInt(userID(msg), 10)
}
