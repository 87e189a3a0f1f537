package middleware

import (
	"context"
	"log"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/abhinavdhar/creditbook/internal/notify"
)

type Middlewares struct {
	registry *notify.Registry
}

func NewSubscriberRegistrar(registry *notify.Registry) *Middlewares {
	return &Middlewares{
		registry: registry,
	}
}

// RegisterSubscriberMiddleware upserts a subscriber row for every chat
// that talks to the bot, so first contact is enough to start receiving
// the digest. Registration failures are logged and the update is still
// handled.
func (m *Middlewares) RegisterSubscriberMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var chatID int64

		switch {
		case update.Message != nil:
			chatID = update.Message.Chat.ID
		case update.CallbackQuery != nil:
			chatID = getChatIDFromMaybeInaccessibleMessage(update.CallbackQuery.Message)
		}

		if chatID != 0 {
			if err := m.registry.EnsureKnown(chatID); err != nil {
				log.Printf("Error registering subscriber %d: %v", chatID, err)
			}
		}

		next(ctx, b, update)
	}
}

func getChatIDFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) int64 {
	if m.Message != nil {
		return m.Message.Chat.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID
	}
	return 0
}
