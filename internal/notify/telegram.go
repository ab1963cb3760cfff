// Package notify shows local notifications through a Telegram chat. The
// inline button stands in for the notification tap and carries the route
// the app should open.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/format"
	"github.com/hray3182/arcana/internal/models"
)

const routePrefix = "route:"

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api    Sender
	chatID int64
}

func NewTelegram(api Sender, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

func (t *Telegram) Show(ctx context.Context, n models.LocalNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed := format.Notification(n.Title, n.Body)
	msg := tgbotapi.NewMessage(t.chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if n.Route != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(buttonLabel(n.Route), RouteCallback(n.Route)),
			),
		)
	}

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", n.Category, err)
	}
	return nil
}

// RouteCallback encodes a tap route as inline button callback data.
func RouteCallback(r models.Route) string {
	return routePrefix + string(r)
}

// ParseRouteCallback decodes callback data produced by RouteCallback.
func ParseRouteCallback(data string) (models.Route, bool) {
	rest, ok := strings.CutPrefix(data, routePrefix)
	if !ok {
		return "", false
	}
	switch r := models.Route(rest); r {
	case models.RouteHome, models.RoutePremium, models.RouteNotifications:
		return r, true
	default:
		return "", false
	}
}

func buttonLabel(r models.Route) string {
	switch r {
	case models.RoutePremium:
		return "✨ Go Premium"
	case models.RouteNotifications:
		return "🔔 Notifications"
	default:
		return "🔮 Open reading"
	}
}
