package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestShowSendsTitleBodyAndRouteButton(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegram(sender, 99)

	err := n.Show(context.Background(), models.LocalNotification{
		Title:    "Your weekly forecast is ready",
		Body:     "Unlock the week ahead.",
		Route:    models.RoutePremium,
		Category: models.NotificationPremium,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Equal(t, "Your weekly forecast is ready\n\nUnlock the week ahead.", msg.Text)
	require.Len(t, msg.Entities, 1)
	assert.Equal(t, "bold", msg.Entities[0].Type)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "route:premium", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestShowWrapsSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("forbidden: bot was blocked")}
	err := NewTelegram(sender, 1).Show(context.Background(), models.LocalNotification{
		Title:    "x",
		Category: models.NotificationDaily,
	})
	assert.ErrorContains(t, err, "daily notification")
}

func TestShowHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := &fakeSender{}
	assert.ErrorIs(t, NewTelegram(sender, 1).Show(ctx, models.LocalNotification{Title: "x"}), context.Canceled)
	assert.Empty(t, sender.sent)
}

func TestParseRouteCallback(t *testing.T) {
	for _, r := range []models.Route{models.RouteHome, models.RoutePremium, models.RouteNotifications} {
		got, ok := ParseRouteCallback(RouteCallback(r))
		assert.True(t, ok)
		assert.Equal(t, r, got)
	}

	_, ok := ParseRouteCallback("route:settings")
	assert.False(t, ok)
	_, ok = ParseRouteCallback("confirm:1")
	assert.False(t, ok)
}
