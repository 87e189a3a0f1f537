package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/abhinavdhar/creditbook/internal/messages"
	"github.com/abhinavdhar/creditbook/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Digester interface {
	DigestText() (string, error)
}

type Handlers struct {
	registry *notify.Registry
	digester Digester
}

func NewHandlers(registry *notify.Registry, digester Digester) *Handlers {
	return &Handlers{
		registry: registry,
		digester: digester,
	}
}

func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		bh.HandleCallback(ctx, b, update)
	case update.Message != nil && strings.HasPrefix(strings.TrimSpace(update.Message.Text), "/"):
		bh.HandleCommand(ctx, b, update)
	case update.Message != nil:
		bh.sendText(ctx, b, update.Message.Chat.ID, messages.Help())
	}
}

func (bh *Handlers) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

func (bh *Handlers) sendDigest(ctx context.Context, b *bot.Bot, chatID int64) {
	text, err := bh.digester.DigestText()
	if err != nil {
		log.Printf("Error building digest for chat %d: %v", chatID, err)
		bh.sendText(ctx, b, chatID, messages.ErrorDefault())
		return
	}
	bh.sendText(ctx, b, chatID, text)
}

func (bh *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}
