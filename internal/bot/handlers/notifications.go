package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/format"
	"go.uber.org/zap"
)

const historyLimit = 10

func (h *Handlers) handleNotifications(ctx context.Context, msg *tgbotapi.Message) {
	h.handleNotificationsFor(ctx, msg.Chat.ID)
}

// handleNotificationsFor lists the latest notifications of the signed-in
// account and marks them read.
func (h *Handlers) handleNotificationsFor(ctx context.Context, chatID int64) {
	st, err := h.app.Status(ctx)
	if err != nil && st.AccountID == "" {
		h.log.Warn("failed to resolve account", zap.Error(err))
		h.sendText(chatID, "Could not load notifications, please try again later")
		return
	}
	if st.AccountID == "" {
		h.sendText(chatID, "Sign in with /login to see your notifications")
		return
	}

	items, err := h.notifications.ListByAccount(ctx, st.AccountID, historyLimit)
	if err != nil {
		h.log.Error("failed to list notifications", zap.Error(err))
		h.sendText(chatID, "Could not load notifications, please try again later")
		return
	}
	if len(items) == 0 {
		h.sendText(chatID, "🔔 No notifications yet")
		return
	}

	var b format.Builder
	b.Bold("🔔 Notifications").Line().Line()
	for _, n := range items {
		if !n.IsRead {
			b.Text("● ")
		}
		b.Bold(n.Title).Line()
		b.Text(n.Message).Line()
		b.Italic(n.CreatedAt.In(h.loc).Format("01/02 15:04")).Line().Line()
	}
	h.send(chatID, b.Result())

	if err := h.notifications.MarkAllRead(ctx, st.AccountID); err != nil {
		h.log.Warn("failed to mark notifications read", zap.Error(err))
	}
}
