package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/format"
	"github.com/hray3182/arcana/internal/lifecycle"
	"github.com/hray3182/arcana/internal/models"
	"github.com/hray3182/arcana/internal/notify"
	"go.uber.org/zap"
)

// API is the part of *tgbotapi.BotAPI the handlers use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Lifecycle is the set of app events the chat can trigger.
type Lifecycle interface {
	Start(ctx context.Context, now time.Time) error
	Login(ctx context.Context, accountID, email string, now time.Time) (*models.Account, error)
	Logout(ctx context.Context) error
	Background(ctx context.Context, now time.Time) (bool, error)
	PremiumActivated(ctx context.Context) error
	Status(ctx context.Context) (lifecycle.Status, error)
}

type Notifications interface {
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, accountID string) error
}

type Handlers struct {
	api           API
	app           Lifecycle
	notifications Notifications
	chatID        int64
	loc           *time.Location
	now           func() time.Time
	log           *zap.Logger
}

func New(api API, app Lifecycle, notifications Notifications, chatID int64, loc *time.Location, log *zap.Logger) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		api:           api,
		app:           app,
		notifications: notifications,
		chatID:        chatID,
		loc:           loc,
		now:           time.Now,
		log:           log.Named("handlers"),
	}
}

// Allowed reports whether a chat is the device this process serves.
func (h *Handlers) Allowed(chatID int64) bool {
	return chatID == h.chatID
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "login":
		h.handleLogin(ctx, msg)
	case "logout":
		h.handleLogout(ctx, msg)
	case "close":
		h.handleClose(ctx, msg)
	case "premium":
		h.handlePremium(ctx, msg)
	case "notifications":
		h.handleNotifications(ctx, msg)
	case "status":
		h.handleStatus(ctx, msg)
	default:
		h.sendText(msg.Chat.ID, "Unknown command, try /help")
	}
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := h.api.Request(answer); err != nil {
		h.log.Warn("failed to answer callback", zap.Error(err))
	}
	if callback.Message == nil {
		return
	}

	route, ok := notify.ParseRouteCallback(callback.Data)
	if !ok {
		h.log.Debug("ignoring callback", zap.String("data", callback.Data))
		return
	}

	chatID := callback.Message.Chat.ID
	h.log.Info("notification opened", zap.String("route", string(route)))
	switch route {
	case models.RoutePremium:
		h.sendText(chatID, "✨ Premium unlocks unlimited readings and daily horoscopes.\nSend /premium to complete the purchase.")
	case models.RouteNotifications:
		h.handleNotificationsFor(ctx, chatID)
	default:
		if err := h.app.Start(ctx, h.now()); err != nil {
			h.log.Warn("app start failed", zap.Error(err))
		}
		h.sendText(chatID, "🔮 Today's reading is waiting for you on the home screen.")
	}
}

func (h *Handlers) send(chatID int64, parsed format.ParseResult) {
	reply := tgbotapi.NewMessage(chatID, parsed.Text)
	reply.Entities = parsed.Entities
	if _, err := h.api.Send(reply); err != nil {
		h.log.Warn("failed to send message", zap.Error(err))
	}
}

func (h *Handlers) sendText(chatID int64, text string) {
	var b format.Builder
	h.send(chatID, b.Text(text).Result())
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.app.Start(ctx, h.now()); err != nil {
		h.log.Warn("app start failed", zap.Error(err))
	}

	var b format.Builder
	b.Bold("🔮 Arcana").Line().Line().
		Text("Daily tarot readings and horoscopes, delivered at 10:00.").Line().
		Text("Sign in with /login <account> to get started, or /help for everything else.")
	h.send(msg.Chat.ID, b.Result())
}

func (h *Handlers) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	var b format.Builder
	b.Bold("Commands").Line().Line().
		Code("/login <account> [email]").Text(" sign in on this device").Line().
		Code("/logout").Text(" sign out and stop reminders").Line().
		Code("/close").Text(" close the app").Line().
		Code("/premium").Text(" activate Premium").Line().
		Code("/notifications").Text(" notification history").Line().
		Code("/status").Text(" reminder state")
	h.send(msg.Chat.ID, b.Result())
}
