package creditors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinavdhar/creditbook/types"
)

// fakeCreditorStore applies updates in memory with the same
// fields-plus-history-append semantics as the Postgres store.
type fakeCreditorStore struct {
	creditors map[string]*types.Creditor
	nextID    int
}

func newFakeCreditorStore() *fakeCreditorStore {
	return &fakeCreditorStore{creditors: make(map[string]*types.Creditor)}
}

func (f *fakeCreditorStore) CreateCreditor(c *types.Creditor) error {
	f.nextID++
	c.ID = fmt.Sprintf("id-%d", f.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.creditors[c.ID] = &stored
	return nil
}

func (f *fakeCreditorStore) GetCreditor(id string) (*types.Creditor, error) {
	c, ok := f.creditors[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCreditorStore) ListCreditors(filter string) ([]*types.Creditor, error) {
	out := make([]*types.Creditor, 0, len(f.creditors))
	for _, c := range f.creditors {
		if filter != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter)) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCreditorStore) UpdateCreditor(id string, upd types.CreditorUpdate) (*types.Creditor, error) {
	c, ok := f.creditors[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.LastVisit != nil {
		c.LastVisit = *upd.LastVisit
	}
	switch {
	case upd.FollowUp != nil:
		fu := *upd.FollowUp
		c.FollowUp = &fu
	case upd.ClearFollowUp:
		c.FollowUp = nil
	}
	if upd.HistoryEntry != nil {
		c.History = append(c.History, *upd.HistoryEntry)
	}
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (f *fakeCreditorStore) DeleteCreditor(id string) error {
	if _, ok := f.creditors[id]; !ok {
		return types.ErrNotFound
	}
	delete(f.creditors, id)
	return nil
}

func (f *fakeCreditorStore) DueCreditors(from, to time.Time) ([]*types.Creditor, error) {
	out := make([]*types.Creditor, 0)
	for _, c := range f.creditors {
		if c.Status != types.StatusPending || c.FollowUp == nil {
			continue
		}
		if c.FollowUp.Before(from) || c.FollowUp.After(to) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

var ist = time.FixedZone("IST", 5*3600+1800)

func newTestService(st types.CreditorStore, now time.Time) *Service {
	s := NewService(st, nil, Config{Location: ist, FollowUpWeekday: time.Tuesday})
	s.now = func() time.Time { return now }
	return s
}

func TestCreateNormalizesName(t *testing.T) {
	st := newFakeCreditorStore()
	svc := newTestService(st, time.Date(2025, 6, 9, 10, 0, 0, 0, ist))

	c, err := svc.Create("  acme traders ")
	require.NoError(t, err)

	assert.Equal(t, "ACME TRADERS", c.Name)
	assert.Equal(t, types.StatusPending, c.Status)
	assert.Nil(t, c.FollowUp)
	assert.Empty(t, c.History)
	assert.False(t, c.LastVisit.IsZero())
}

func TestCreateEmptyNameFails(t *testing.T) {
	svc := newTestService(newFakeCreditorStore(), time.Now())

	_, err := svc.Create("   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestMarkPaidSchedulesNextTuesday(t *testing.T) {
	st := newFakeCreditorStore()
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, ist) // Monday
	svc := newTestService(st, now)

	created, err := svc.Create("ACME")
	require.NoError(t, err)

	c, err := svc.MarkPaid(created.ID)
	require.NoError(t, err)

	assert.Equal(t, types.StatusPaid, c.Status)
	require.NotNil(t, c.FollowUp)
	assert.Equal(t, time.Tuesday, c.FollowUp.Weekday())
	assert.True(t, c.FollowUp.After(now))
	assert.True(t, c.LastVisit.Equal(now))

	require.Len(t, c.History, 1)
	entry := c.History[0]
	assert.Equal(t, ActionPaymentReceived, entry.Action)
	assert.Contains(t, entry.Details, "Next follow-up: 10/06/2025")
	assert.False(t, entry.Date.Before(now))
}

func TestMarkPaidOnPaidRecordRecomputes(t *testing.T) {
	st := newFakeCreditorStore()
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, ist)
	svc := newTestService(st, now)

	created, err := svc.Create("ACME")
	require.NoError(t, err)

	_, err = svc.MarkPaid(created.ID)
	require.NoError(t, err)

	later := time.Date(2025, 6, 12, 10, 0, 0, 0, ist) // Thursday
	svc.now = func() time.Time { return later }

	c, err := svc.MarkPaid(created.ID)
	require.NoError(t, err)

	require.NotNil(t, c.FollowUp)
	assert.True(t, c.FollowUp.After(later))
	assert.True(t, c.FollowUp.Equal(time.Date(2025, 6, 17, 0, 0, 0, 0, ist)))
	assert.Len(t, c.History, 2)
}

func TestMarkPaidUnknownID(t *testing.T) {
	svc := newTestService(newFakeCreditorStore(), time.Now())

	_, err := svc.MarkPaid("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestRescheduleRejectsPastDate(t *testing.T) {
	st := newFakeCreditorStore()
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, ist)
	svc := newTestService(st, now)

	created, err := svc.Create("ACME")
	require.NoError(t, err)

	_, err = svc.Reschedule(created.ID, time.Date(2025, 6, 9, 0, 0, 0, 0, ist))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = svc.Reschedule(created.ID, time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestRescheduleTodayOrLaterSucceeds(t *testing.T) {
	st := newFakeCreditorStore()
	now := time.Date(2025, 6, 10, 18, 0, 0, 0, ist)
	svc := newTestService(st, now)

	created, err := svc.Create("ACME")
	require.NoError(t, err)
	_, err = svc.MarkPaid(created.ID)
	require.NoError(t, err)

	// Today at midnight is earlier than now, but still today.
	today := time.Date(2025, 6, 10, 0, 0, 0, 0, ist)
	c, err := svc.Reschedule(created.ID, today)
	require.NoError(t, err)

	assert.Equal(t, types.StatusPending, c.Status)
	require.NotNil(t, c.FollowUp)
	assert.True(t, c.FollowUp.Equal(today))

	require.Len(t, c.History, 2)
	assert.Equal(t, ActionRescheduled, c.History[1].Action)
	assert.Contains(t, c.History[1].Details, "10/06/2025")
}

func TestDeleteRemovesRecord(t *testing.T) {
	st := newFakeCreditorStore()
	svc := newTestService(st, time.Now())

	created, err := svc.Create("ACME")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))

	list, err := svc.List("")
	require.NoError(t, err)
	for _, c := range list {
		assert.NotEqual(t, created.ID, c.ID)
	}

	err = svc.Delete(created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestUpdateValidation(t *testing.T) {
	st := newFakeCreditorStore()
	svc := newTestService(st, time.Now())

	created, err := svc.Create("ACME")
	require.NoError(t, err)

	_, err = svc.Update(created.ID, types.CreditorUpdate{})
	assert.True(t, errors.Is(err, types.ErrValidation))

	empty := "  "
	_, err = svc.Update(created.ID, types.CreditorUpdate{Name: &empty})
	assert.True(t, errors.Is(err, types.ErrValidation))

	fu := time.Now()
	_, err = svc.Update(created.ID, types.CreditorUpdate{FollowUp: &fu, ClearFollowUp: true})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = svc.Update(created.ID, types.CreditorUpdate{HistoryEntry: &types.HistoryEntry{}})
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestUpdateAppliesFieldsAndHistoryTogether(t *testing.T) {
	st := newFakeCreditorStore()
	svc := newTestService(st, time.Now())

	created, err := svc.Create("acme")
	require.NoError(t, err)

	name := "acme & sons"
	overdue := types.StatusOverdue
	amount := 1250.50
	c, err := svc.Update(created.ID, types.CreditorUpdate{
		Name:   &name,
		Status: &overdue,
		HistoryEntry: &types.HistoryEntry{
			Action:  "VISITED",
			Details: "Partial payment collected",
			Amount:  &amount,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "ACME & SONS", c.Name)
	assert.Equal(t, types.StatusOverdue, c.Status)
	require.Len(t, c.History, 1)
	assert.Equal(t, "VISITED", c.History[0].Action)
	require.NotNil(t, c.History[0].Amount)
	assert.Equal(t, amount, *c.History[0].Amount)
	assert.False(t, c.History[0].Date.IsZero())
}
