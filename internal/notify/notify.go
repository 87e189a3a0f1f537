package notify

import (
	"context"
	"log"
	"time"

	"github.com/abhinavdhar/creditbook/internal/messages"
	"github.com/abhinavdhar/creditbook/types"
	"github.com/go-telegram/bot"
)

// Sender is the messaging-transport boundary: one best-effort text send
// to one chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type BotSender struct {
	b *bot.Bot
}

func NewBotSender(b *bot.Bot) *BotSender {
	return &BotSender{b: b}
}

func (s *BotSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := s.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

// Registry tracks which chats receive broadcasts. The configured
// default chat, if any, is always part of the active set.
type Registry struct {
	store         types.SubscriberStore
	defaultChatID int64
}

func NewRegistry(store types.SubscriberStore, defaultChatID int64) *Registry {
	return &Registry{
		store:         store,
		defaultChatID: defaultChatID,
	}
}

func (r *Registry) Subscribe(chatID int64) error {
	return r.store.UpsertSubscriber(chatID, true)
}

func (r *Registry) Unsubscribe(chatID int64) error {
	return r.store.UpsertSubscriber(chatID, false)
}

// EnsureKnown registers a chat on first contact. A chat that already
// opted out stays opted out.
func (r *Registry) EnsureKnown(chatID int64) error {
	return r.store.EnsureSubscriber(chatID)
}

func (r *Registry) ActiveChatIDs() ([]int64, error) {
	subs, err := r.store.ActiveSubscribers()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(subs)+1)
	seen := make(map[int64]bool, len(subs)+1)
	if r.defaultChatID != 0 {
		ids = append(ids, r.defaultChatID)
		seen[r.defaultChatID] = true
	}
	for _, sub := range subs {
		if seen[sub.ChatID] {
			continue
		}
		seen[sub.ChatID] = true
		ids = append(ids, sub.ChatID)
	}
	return ids, nil
}

type ChatLister interface {
	ActiveChatIDs() ([]int64, error)
}

// Dispatcher fans a message out to every active chat. Each send is
// independent: one failed recipient never blocks the rest.
type Dispatcher struct {
	registry    ChatLister
	sender      Sender
	sendTimeout time.Duration
}

func NewDispatcher(registry ChatLister, sender Sender, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	return &Dispatcher{
		registry:    registry,
		sender:      sender,
		sendTimeout: sendTimeout,
	}
}

func (d *Dispatcher) Broadcast(ctx context.Context, text string) (int, error) {
	ids, err := d.registry.ActiveChatIDs()
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, chatID := range ids {
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := d.sender.SendMessage(sendCtx, chatID, text)
		cancel()
		if err != nil {
			log.Printf("Broadcast: send to chat %d failed: %v", chatID, err)
			continue
		}
		delivered++
	}
	return delivered, nil
}
