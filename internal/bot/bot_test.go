package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-tracker/internal/model"
	"event-tracker/internal/repository"
	"event-tracker/internal/service"
)

const chatID = 100

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	once    sync.Once
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.once.Do(func() { close(f.updates) })
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func (f *fakeAPI) waitFor(t *testing.T, n int) []tgbotapi.MessageConfig {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.messages()) >= n }, 2*time.Second, 10*time.Millisecond)
	return f.messages()
}

func text(chat int64, s string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chat, Type: "private"}, Text: s}
	if strings.HasPrefix(s, "/") {
		cmd, _, _ := strings.Cut(s, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func startBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()
	repo := repository.NewFileRepository(filepath.Join(t.TempDir(), "events.yaml"))
	clock := service.ClockFunc(func() time.Time { return time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC) })
	tracker := service.NewTracker(repo, model.NewCalendar(time.UTC), clock, service.NewView(1.0/12))
	require.NoError(t, tracker.Open(context.Background()))

	api := newFakeAPI()
	b := NewWithAPI(api, tracker, chatID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b, api
}

func TestMessageRunsOneCycle(t *testing.T) {
	_, api := startBot(t)

	api.updates <- text(chatID, "c daily 09:00 -- water <plants>")

	sent := api.waitFor(t, 1)
	reply := sent[0]
	assert.Equal(t, int64(chatID), reply.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, reply.ParseMode)
	assert.Contains(t, reply.Text, "water &lt;plants&gt;")
	assert.Contains(t, reply.Text, "<pre>")
}

func TestMessagesFromOtherChatsAreIgnored(t *testing.T) {
	_, api := startBot(t)

	api.updates <- text(999, "c daily 09:00 -- intruder")
	api.updates <- text(chatID, "")

	sent := api.waitFor(t, 1)
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].Text, "intruder")
}

func TestMenuAliasAndCommands(t *testing.T) {
	_, api := startBot(t)

	api.updates <- text(chatID, menuLabelUndo)
	api.updates <- text(chatID, "/hide")
	api.updates <- text(chatID, "/help")

	sent := api.waitFor(t, 3)
	assert.Contains(t, sent[0].Text, "Nothing to undo")
	assert.Contains(t, sent[1].Text, "(standard)")
	assert.Contains(t, sent[2].Text, "create|c [stack] &lt;interval&gt; -- &lt;text&gt;")
}

func TestDigestRequest(t *testing.T) {
	b, api := startBot(t)
	api.updates <- text(chatID, "c every 0h1m -- stretch")
	api.waitFor(t, 1)

	b.RequestDigest()

	sent := api.waitFor(t, 2)
	assert.Contains(t, sent[1].Text, "Digest 2024-03-10 08:00")
}

func TestChunk(t *testing.T) {
	long := "<pre>" + strings.Repeat("0123456789\n", 30) + "</pre>"

	parts := chunk(long, 100)

	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 100)
		assert.Equal(t, strings.Count(p, "<pre>"), strings.Count(p, "</pre>"), p)
	}
	assert.Equal(t, []string{"short"}, chunk("short", 100))
}
