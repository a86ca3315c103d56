package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/Pleso100/Kolgidrat/core/telegram/router"
	"github.com/Pleso100/Kolgidrat/core/telegram/state"
	"github.com/Pleso100/Kolgidrat/internal/catalog"
	"github.com/Pleso100/Kolgidrat/internal/conversation"
	"github.com/Pleso100/Kolgidrat/internal/dispatcher"
)

// fakeAPI answers Telegram Bot API calls and records sendMessage payloads.
type fakeAPI struct {
	mu   sync.Mutex
	sent []map[string]any
}

func (f *fakeAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	result := `true`
	if strings.HasSuffix(req.URL.Path, "/sendMessage") {
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		f.mu.Lock()
		f.sent = append(f.sent, payload)
		f.mu.Unlock()
		result = `{"message_id":1,"date":0,"chat":{"id":5,"type":"private"}}`
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":` + result + `}`)),
		Request:    req,
	}, nil
}

func (f *fakeAPI) messages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.sent...)
}

func setup(t *testing.T, store catalog.Store) (*tele.Bot, *Gateway, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	bot, err := tele.NewBot(tele.Settings{
		Token:       "123:test",
		Offline:     true,
		Synchronous: true,
		Client:      &http.Client{Transport: api},
	})
	require.NoError(t, err)

	sessions := dispatcher.NewSessions(state.NewMemoryBackend[conversation.Session]())
	engine := conversation.NewEngine(store, conversation.WithPassword("s3cret"))
	g := New(dispatcher.New(sessions, engine))
	reg := Registry()
	for _, r := range g.Routes(reg) {
		bot.Handle(r.Endpoint, r.Handler)
	}
	return bot, g, api
}

func drain(t *testing.T, g *Gateway) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Close(ctx))
}

var (
	chat = &tele.Chat{ID: 5, Type: tele.ChatPrivate}
	user = &tele.User{ID: 5}
)

func text(id int, s string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{Sender: user, Chat: chat, Text: s}}
}

func press(id int, key string) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{ID: "cb", Sender: user, Data: "\f" + key, Message: &tele.Message{Chat: chat}}}
}

func TestGatewaySearch(t *testing.T) {
	bot, g, api := setup(t, catalog.NewMemory(catalog.Product{Name: "apple", Carbs: 11.4, BreadUnits: 1}))
	bot.ProcessUpdate(text(1, "APP"))
	drain(t, g)

	sent := api.messages()
	require.Len(t, sent, 1)
	assert.EqualValues(t, "5", sent[0]["chat_id"])
	assert.Equal(t, tele.ModeMarkdownV2, tele.ParseMode(sent[0]["parse_mode"].(string)))
	assert.Contains(t, sent[0]["text"], "*apple*")
}

func TestGatewayAdminFlowUsesInlineButtons(t *testing.T) {
	mem := catalog.NewMemory()
	bot, g, api := setup(t, mem)

	bot.ProcessUpdate(text(1, "s3cret"))
	bot.ProcessUpdate(press(2, conversation.CallbackAddProduct))
	bot.ProcessUpdate(text(3, "banana"))
	bot.ProcessUpdate(text(4, "20.5"))
	bot.ProcessUpdate(text(5, "2"))
	drain(t, g)

	sent := api.messages()
	require.Len(t, sent, 5)
	assert.Contains(t, sent[0]["reply_markup"], conversation.CallbackAddProduct)
	assert.Equal(t, []catalog.Product{{ID: 1, Name: "banana", Carbs: 20.5, BreadUnits: 2}}, mem.All())
}

func TestGatewayStartCommand(t *testing.T) {
	bot, g, api := setup(t, catalog.NewMemory())
	bot.ProcessUpdate(text(1, "/start"))
	drain(t, g)
	sent := api.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0]["text"], "Вітаю")
}

type brokenDispatcher struct{}

func (brokenDispatcher) Handle(context.Context, int64, conversation.Event) ([]dispatcher.Outbound, error) {
	return nil, errors.New("redis down")
}

func TestGatewayReportsDispatchFailure(t *testing.T) {
	api := &fakeAPI{}
	bot, err := tele.NewBot(tele.Settings{Token: "123:test", Offline: true, Synchronous: true, Client: &http.Client{Transport: api}})
	require.NoError(t, err)

	c := bot.NewContext(text(1, "apple"))
	err = New(brokenDispatcher{}).Deliver(context.Background(), c, router.InboundFrom(c))
	require.Error(t, err)

	sent := api.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, conversation.FailureReply().Text, sent[0]["text"])
}

func TestMarkupAndOptions(t *testing.T) {
	assert.Nil(t, Markup(nil))

	kb := conversation.Keyboard{{{Label: "Скасувати", Callback: conversation.CallbackCancel}}}
	m := Markup(kb)
	require.NotNil(t, m)
	assert.Equal(t, "Скасувати", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, conversation.CallbackCancel, m.InlineKeyboard[0][0].Unique)

	opts := SendOptions(dispatcher.Outbound{Text: "x", Markdown: true, Keyboard: kb})
	assert.Equal(t, tele.ModeMarkdownV2, opts.ParseMode)
	assert.NotNil(t, opts.ReplyMarkup)

	assert.Equal(t, conversation.ButtonEvent("cancel"), EventFrom(router.Inbound{Callback: "cancel"}))
	assert.Equal(t, conversation.ButtonEvent(""), EventFrom(router.Inbound{Button: true}))
	assert.Equal(t, conversation.TextEvent("milk"), EventFrom(router.Inbound{Text: "milk"}))
}

func TestGatewayKeepsEachUsersOrder(t *testing.T) {
	prev := runtime.GOMAXPROCS(8)
	defer runtime.GOMAXPROCS(prev)

	const users = 200
	mem := catalog.NewMemory()
	bot, g, _ := setup(t, mem)

	chatOf := func(uid int64) *tele.Chat { return &tele.Chat{ID: uid, Type: tele.ChatPrivate} }
	msg := func(id int, uid int64, s string) tele.Update {
		return tele.Update{ID: id, Message: &tele.Message{Sender: &tele.User{ID: uid}, Chat: chatOf(uid), Text: s}}
	}
	btn := func(id int, uid int64, key string) tele.Update {
		return tele.Update{ID: id, Callback: &tele.Callback{ID: "cb", Sender: &tele.User{ID: uid}, Data: "\f" + key, Message: &tele.Message{Chat: chatOf(uid)}}}
	}

	id := 0
	next := func() int { id++; return id }
	for uid := int64(1); uid <= users; uid++ {
		bot.ProcessUpdate(msg(next(), uid, "s3cret"))
		bot.ProcessUpdate(btn(next(), uid, conversation.CallbackAddProduct))
		bot.ProcessUpdate(msg(next(), uid, fmt.Sprintf("banana%d", uid)))
		bot.ProcessUpdate(msg(next(), uid, "20"))
		bot.ProcessUpdate(msg(next(), uid, "2"))
	}
	drain(t, g)

	rows := mem.All()
	require.Len(t, rows, users)
	names := make(map[string]bool, users)
	for _, p := range rows {
		names[p.Name] = true
		assert.Equal(t, 20.0, p.Carbs, p.Name)
		assert.Equal(t, 2.0, p.BreadUnits, p.Name)
	}
	for uid := 1; uid <= users; uid++ {
		assert.True(t, names[fmt.Sprintf("banana%d", uid)], uid)
	}
}
