package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/bot/handlers"
	"go.uber.org/zap"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	log      *zap.Logger
}

func New(api *tgbotapi.BotAPI, h *handlers.Handlers, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:      api,
		handlers: h,
		log:      log.Named("bot"),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("authorized", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	chat := update.FromChat()
	if chat == nil {
		return
	}
	if !b.handlers.Allowed(chat.ID) {
		b.log.Debug("ignoring update from foreign chat", zap.Int64("chat_id", chat.ID))
		return
	}

	if update.CallbackQuery != nil {
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	// Only commands are meaningful; plain text is ignored
	if update.Message != nil && update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
	}
}
