package types

import "time"

type Creditor struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	LastVisit time.Time      `json:"lastVisit"`
	FollowUp  *time.Time     `json:"followUp,omitempty"`
	Status    Status         `json:"status"`
	History   []HistoryEntry `json:"history"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type HistoryEntry struct {
	Date    time.Time `json:"date"`
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	Amount  *float64  `json:"amount,omitempty"`
}

type Subscriber struct {
	ChatID       int64     `json:"chat_id"`
	IsSubscribed bool      `json:"is_subscribed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreditorUpdate is a tagged partial update. Nil fields are left
// untouched; the history entry, if any, is written in the same
// transaction as the field changes.
type CreditorUpdate struct {
	Name          *string
	Status        *Status
	LastVisit     *time.Time
	FollowUp      *time.Time
	ClearFollowUp bool
	HistoryEntry  *HistoryEntry
}

func (u CreditorUpdate) Empty() bool {
	return u.Name == nil && u.Status == nil && u.LastVisit == nil &&
		u.FollowUp == nil && !u.ClearFollowUp && u.HistoryEntry == nil
}

type CreditorStore interface {
	CreateCreditor(c *Creditor) error
	GetCreditor(id string) (*Creditor, error)
	ListCreditors(filter string) ([]*Creditor, error)
	UpdateCreditor(id string, upd CreditorUpdate) (*Creditor, error)
	DeleteCreditor(id string) error
	DueCreditors(from, to time.Time) ([]*Creditor, error)
}

type SubscriberStore interface {
	UpsertSubscriber(chatID int64, subscribed bool) error
	EnsureSubscriber(chatID int64) error
	GetSubscriber(chatID int64) (*Subscriber, error)
	ActiveSubscribers() ([]*Subscriber, error)
}
