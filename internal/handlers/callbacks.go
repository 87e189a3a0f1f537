package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/abhinavdhar/creditbook/internal/messages"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (bh *Handlers) buildMenuKeyboard() models.InlineKeyboardMarkup {
	pad := func(s string) string { return "   " + s + "   " }
	rows := [][]models.InlineKeyboardButton{
		{
			{Text: pad("🔔 Subscribe"), CallbackData: "sub_on"},
			{Text: pad("🔕 Unsubscribe"), CallbackData: "sub_off"},
		},
		{
			{Text: pad("📋 Today's payees"), CallbackData: "sub_today"},
		},
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (bh *Handlers) sendMainMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      messages.StartWelcome(),
		ParseMode: messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: bh.buildMenuKeyboard().InlineKeyboard,
		},
	})
	if err != nil {
		log.Printf("Error sending menu to chat %d: %v", chatID, err)
	}
}

func (bh *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	chatID := int64(0)
	if update.CallbackQuery.Message.Message != nil {
		chatID = update.CallbackQuery.Message.Message.Chat.ID
	} else if update.CallbackQuery.Message.InaccessibleMessage != nil {
		chatID = update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
	}
	if chatID == 0 {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		return
	}

	data := strings.TrimSpace(update.CallbackQuery.Data)
	switch data {
	case "sub_on":
		if err := bh.registry.Subscribe(chatID); err != nil {
			log.Printf("Error subscribing chat %d: %v", chatID, err)
			bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
			bh.sendText(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "Subscribed")
		bh.sendText(ctx, b, chatID, messages.Subscribed())
	case "sub_off":
		if err := bh.registry.Unsubscribe(chatID); err != nil {
			log.Printf("Error unsubscribing chat %d: %v", chatID, err)
			bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
			bh.sendText(ctx, b, chatID, messages.ErrorDefault())
			return
		}
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "Unsubscribed")
		bh.sendText(ctx, b, chatID, messages.Unsubscribed())
	case "sub_today":
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.sendDigest(ctx, b, chatID)
	default:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	}
}
