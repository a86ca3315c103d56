package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/Pleso100/Kolgidrat/core/config"
)

func TestBuildPollerLongpoll(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, p.Timeout)

	p, ok = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 25*time.Second, p.Timeout)
}

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: "WEBHOOK"},
		Webhook:  coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook"},
	}
	w, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", w.Listen)
	assert.Equal(t, "https://bot.example.com/hook", w.Endpoint.PublicURL)
}

func TestBotSettingsAreSynchronous(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:abc", LongPollTimeoutSeconds: 25}}
	opts := PollerOptionsFrom(cfg)
	poller := BuildPoller(opts)

	s := botSettings(cfg, poller, opts)
	assert.True(t, s.Synchronous, "updates must reach handlers in arrival order")
	assert.Equal(t, "123:abc", s.Token)
	assert.Same(t, poller, s.Poller)
	assert.NotNil(t, s.Client)
	assert.NotNil(t, s.OnError)
}
