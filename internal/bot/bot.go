package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"event-tracker/internal/command"
	"event-tracker/internal/log"
	"event-tracker/internal/service"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

const (
	menuLabelRefresh = "🔄 Refresh"
	menuLabelShow    = "📋 Show all"
	menuLabelHide    = "🔥 Due only"
	menuLabelUndo    = "↩️ Undo"
)

// menuAliases maps keyboard buttons to tracker input.
var menuAliases = map[string]string{
	menuLabelRefresh: "",
	menuLabelShow:    "show",
	menuLabelHide:    "hide",
	menuLabelUndo:    "undo",
}

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot runs one tracker session over a Telegram chat. Every message is one
// interaction cycle; the session is only touched from the Start loop.
type Bot struct {
	api     API
	tracker *service.Tracker
	chatID  int64
	digests chan struct{}
}

// New authorizes token and returns a bot answering only chatID. A zero
// chatID accepts any private chat.
func New(token string, tracker *service.Tracker, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", "account", api.Self.UserName)
	return NewWithAPI(api, tracker, chatID), nil
}

func NewWithAPI(api API, tracker *service.Tracker, chatID int64) *Bot {
	return &Bot{
		api:     api,
		tracker: tracker,
		chatID:  chatID,
		digests: make(chan struct{}, 1),
	}
}

// RequestDigest asks the loop to post a digest. Safe to call from any
// goroutine; requests made while one is pending are merged.
func (b *Bot) RequestDigest() {
	select {
	case b.digests <- struct{}{}:
	default:
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.digests:
			if err := b.sendDigest(ctx); err != nil {
				log.Error("send digest", err)
			}
		case update, ok := <-updates:
			if !ok {
				return ctx.Err()
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Error("handle message", err, "chat", update.Message.Chat.ID)
			}
		}
	}
}

func (b *Bot) allowed(chat *tgbotapi.Chat) bool {
	if b.chatID != 0 {
		return chat.ID == b.chatID
	}
	return chat.IsPrivate()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.allowed(msg.Chat) {
		log.Warn("ignoring message from unknown chat", "chat", msg.Chat.ID)
		return nil
	}
	if b.chatID == 0 {
		b.chatID = msg.Chat.ID
	}

	line := strings.TrimSpace(msg.Text)
	if alias, ok := menuAliases[line]; ok {
		line = alias
	}
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return b.handleHelp(msg.Chat.ID)
		case "digest":
			return b.sendDigest(ctx)
		case "list", "refresh":
			line = ""
		default:
			line = strings.TrimSpace(msg.Command() + " " + msg.CommandArguments())
		}
	}

	log.Debug("input", "chat", msg.Chat.ID, "line", line)
	out, err := b.tracker.Step(ctx, line)
	if err != nil {
		log.Error("step failed", err)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("⚠️ Could not save: %s", escape(err.Error())))
	}

	var builder strings.Builder
	if out.Exit {
		builder.WriteString("The bot session stays open.\n\n")
	}
	if out.Notice != "" {
		builder.WriteString(escape(out.Notice))
		builder.WriteString("\n\n")
	}
	builder.WriteString(pre(b.tracker.Render()))
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleHelp(chatID int64) error {
	var builder strings.Builder
	builder.WriteString("<b>Recurring event tracker</b>\n")
	builder.WriteString("Send a line as you would type it in the terminal. An empty refresh shows the list.\n\n")
	builder.WriteString("• /list — show events\n")
	builder.WriteString("• /digest — what is due now and in the next 24 hours\n")
	builder.WriteString("• /help — this message\n\n")
	for _, line := range keyLines() {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	return b.sendText(chatID, builder.String())
}

func (b *Bot) sendDigest(ctx context.Context) error {
	if b.chatID == 0 {
		log.Warn("digest skipped, no chat known yet")
		return nil
	}
	out, err := b.tracker.Tick(ctx)
	if err != nil {
		return fmt.Errorf("refresh for digest: %w", err)
	}
	log.Info("digest", "triggered", len(out.Triggered))
	return b.sendText(b.chatID, pre(b.tracker.Digest()))
}

func (b *Bot) sendText(chatID int64, text string) error {
	for _, part := range chunk(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = mainMenuKeyboard()
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelRefresh),
			tgbotapi.NewKeyboardButton(menuLabelUndo),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelShow),
			tgbotapi.NewKeyboardButton(menuLabelHide),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// keyLines documents the tracker input forms.
func keyLines() []string {
	lines := make([]string, 0, len(command.Keys))
	for _, k := range command.Keys {
		lines = append(lines, fmt.Sprintf("• <code>%s</code> — %s", escape(k.Usage), escape(k.Desc)))
	}
	return lines
}

func escape(s string) string {
	return html.EscapeString(s)
}

func pre(s string) string {
	return "<pre>" + escape(strings.TrimRight(s, "\n")) + "</pre>"
}

// chunk splits text at line breaks into parts of at most limit bytes. An
// open <pre> block is closed and reopened across parts.
func chunk(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	const open, closing = "<pre>", "</pre>"
	var (
		parts []string
		cur   strings.Builder
		inPre bool
	)
	flush := func() {
		s := cur.String()
		if inPre {
			s += closing
		}
		parts = append(parts, s)
		cur.Reset()
		if inPre {
			cur.WriteString(open)
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line)+len(closing) > limit && cur.Len() > 0 {
			flush()
		}
		cur.WriteString(line)
		if strings.Contains(line, open) {
			inPre = true
		}
		if strings.Contains(line, closing) {
			inPre = false
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
