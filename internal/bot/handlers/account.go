package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/format"
	"github.com/hray3182/arcana/internal/lifecycle"
	"go.uber.org/zap"
)

func (h *Handlers) handleLogin(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		h.sendText(msg.Chat.ID, "Usage: /login <account> [email]")
		return
	}
	email := ""
	if len(args) > 1 {
		email = args[1]
	}

	account, err := h.app.Login(ctx, args[0], email, h.now())
	if err != nil {
		h.log.Error("login failed", zap.String("account_id", args[0]), zap.Error(err))
		h.sendText(msg.Chat.ID, "Sign in failed, please try again later")
		return
	}

	var b format.Builder
	b.Text("✅ Signed in as ").Bold(account.AccountID)
	if account.IsPremium {
		b.Text(" (Premium)")
	}
	h.send(msg.Chat.ID, b.Result())
}

func (h *Handlers) handleLogout(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.app.Logout(ctx); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		h.sendText(msg.Chat.ID, "Sign out failed, please try again later")
		return
	}
	h.sendText(msg.Chat.ID, "👋 Signed out. Reminders are off on this device.")
}

// handleClose simulates the app going to the background.
func (h *Handlers) handleClose(ctx context.Context, msg *tgbotapi.Message) {
	armed, err := h.app.Background(ctx, h.now())
	if err != nil {
		h.log.Error("background failed", zap.Error(err))
		h.sendText(msg.Chat.ID, "Something went wrong, please try again later")
		return
	}
	if armed {
		h.log.Info("first close, instant reminder armed")
	}
	h.sendText(msg.Chat.ID, "🌙 See you soon.")
}

func (h *Handlers) handlePremium(ctx context.Context, msg *tgbotapi.Message) {
	err := h.app.PremiumActivated(ctx)
	switch {
	case errors.Is(err, lifecycle.ErrSignedOut):
		h.sendText(msg.Chat.ID, "Sign in with /login first")
		return
	case err != nil:
		h.log.Error("premium activation failed", zap.Error(err))
		h.sendText(msg.Chat.ID, "Purchase could not be recorded, please try again later")
		return
	}
	h.sendText(msg.Chat.ID, "✨ Welcome to Premium! Reminders about upgrading are now off.")
}

func (h *Handlers) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	st, err := h.app.Status(ctx)
	if err != nil {
		h.log.Warn("status incomplete", zap.Error(err))
	}

	var b format.Builder
	b.Bold("Reminder status").Line().Line()
	if st.AccountID == "" {
		b.Text("Account: signed out").Line()
	} else {
		b.Text("Account: ").Code(st.AccountID)
		if st.Premium {
			b.Text(" (Premium)")
		}
		b.Line()
	}
	b.Text(fmt.Sprintf("Daily alarm: %s", onOff(st.State.DailyAlarmEnabled))).Line()
	b.Text(fmt.Sprintf("Instant reminder sent: %s", yesNo(st.State.InstantReminderSent))).Line()
	b.Text(fmt.Sprintf("Reminders sent: %d", st.State.ReminderCount)).Line()

	if len(st.Pending) == 0 {
		b.Text("Pending alarms: none")
	} else {
		b.Text("Pending alarms:").Line()
		for _, a := range st.Pending {
			b.Text("• ").Code(string(a.Slot))
			if a.Stage != 0 {
				b.Text(" " + a.Stage.String())
			}
			b.Text(" at " + a.TriggerAt.In(h.loc).Format("2006-01-02 15:04")).Line()
		}
	}
	h.send(msg.Chat.ID, b.Result())
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
