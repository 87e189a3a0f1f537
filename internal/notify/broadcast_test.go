package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinavdhar/creditbook/types"
)

type fakeSubscriberStore struct {
	subs    map[int64]*types.Subscriber
	upserts []int64
}

func newFakeSubscriberStore() *fakeSubscriberStore {
	return &fakeSubscriberStore{subs: make(map[int64]*types.Subscriber)}
}

func (f *fakeSubscriberStore) UpsertSubscriber(chatID int64, subscribed bool) error {
	f.upserts = append(f.upserts, chatID)
	if sub, ok := f.subs[chatID]; ok {
		sub.IsSubscribed = subscribed
		return nil
	}
	f.subs[chatID] = &types.Subscriber{ChatID: chatID, IsSubscribed: subscribed, CreatedAt: time.Now()}
	return nil
}

func (f *fakeSubscriberStore) EnsureSubscriber(chatID int64) error {
	if _, ok := f.subs[chatID]; ok {
		return nil
	}
	f.subs[chatID] = &types.Subscriber{ChatID: chatID, IsSubscribed: true, CreatedAt: time.Now()}
	return nil
}

func (f *fakeSubscriberStore) GetSubscriber(chatID int64) (*types.Subscriber, error) {
	sub, ok := f.subs[chatID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubscriberStore) ActiveSubscribers() ([]*types.Subscriber, error) {
	out := make([]*types.Subscriber, 0)
	for _, sub := range f.subs {
		if sub.IsSubscribed {
			out = append(out, sub)
		}
	}
	return out, nil
}

type fakeSender struct {
	sent    []int64
	failFor map[int64]error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, _ string) error {
	if err, ok := f.failFor[chatID]; ok {
		return err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

type staticLister struct {
	ids []int64
	err error
}

func (l *staticLister) ActiveChatIDs() ([]int64, error) {
	return l.ids, l.err
}

func TestSubscribeIsIdempotent(t *testing.T) {
	st := newFakeSubscriberStore()
	reg := NewRegistry(st, 0)

	require.NoError(t, reg.Subscribe(42))
	require.NoError(t, reg.Subscribe(42))

	subs, err := st.ActiveSubscribers()
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(42), subs[0].ChatID)
	assert.True(t, subs[0].IsSubscribed)
}

func TestUnsubscribeKeepsRecord(t *testing.T) {
	st := newFakeSubscriberStore()
	reg := NewRegistry(st, 0)

	require.NoError(t, reg.Subscribe(42))
	require.NoError(t, reg.Unsubscribe(42))

	sub, err := st.GetSubscriber(42)
	require.NoError(t, err)
	assert.False(t, sub.IsSubscribed)

	ids, err := reg.ActiveChatIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEnsureKnownDoesNotResubscribe(t *testing.T) {
	st := newFakeSubscriberStore()
	reg := NewRegistry(st, 0)

	require.NoError(t, reg.Subscribe(42))
	require.NoError(t, reg.Unsubscribe(42))
	require.NoError(t, reg.EnsureKnown(42))

	ids, err := reg.ActiveChatIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestActiveChatIDsIncludesDefaultChatOnce(t *testing.T) {
	st := newFakeSubscriberStore()
	reg := NewRegistry(st, 99)

	require.NoError(t, reg.Subscribe(99))
	require.NoError(t, reg.Subscribe(42))

	ids, err := reg.ActiveChatIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{42, 99}, ids)
}

func TestBroadcastIsolatesPerRecipientFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]error{1: errors.New("blocked by user")}}
	d := NewDispatcher(&staticLister{ids: []int64{1, 2}}, sender, time.Second)

	delivered, err := d.Broadcast(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []int64{2}, sender.sent)
}

func TestBroadcastListerFailure(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(&staticLister{err: errors.New("store down")}, sender, time.Second)

	_, err := d.Broadcast(context.Background(), "hello")
	require.Error(t, err)
	assert.Empty(t, sender.sent)
}
