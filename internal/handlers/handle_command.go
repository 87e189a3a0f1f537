package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/abhinavdhar/creditbook/internal/messages"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (bh *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	fields := strings.Fields(strings.TrimSpace(update.Message.Text))
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]
	if strings.Contains(cmd, "@") {
		cmd = strings.SplitN(cmd, "@", 2)[0]
	}

	switch cmd {
	case "/start":
		if err := bh.registry.Subscribe(chatID); err != nil {
			log.Printf("Error subscribing chat %d: %v", chatID, err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		bh.sendMainMenu(ctx, b, chatID)
	case "/subscribe":
		if err := bh.registry.Subscribe(chatID); err != nil {
			log.Printf("Error subscribing chat %d: %v", chatID, err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		bh.sendText(ctx, b, chatID, messages.Subscribed())
	case "/unsubscribe":
		if err := bh.registry.Unsubscribe(chatID); err != nil {
			log.Printf("Error unsubscribing chat %d: %v", chatID, err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		bh.sendText(ctx, b, chatID, messages.Unsubscribed())
	case "/today":
		bh.sendDigest(ctx, b, chatID)
	case "/help":
		bh.sendText(ctx, b, chatID, messages.Help())
	default:
		bh.sendText(ctx, b, chatID, messages.ErrorUnknownCommand())
	}
}
