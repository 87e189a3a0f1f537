package creditors

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhinavdhar/creditbook/store"
	"github.com/abhinavdhar/creditbook/types"
)

const (
	ActionPaymentReceived = "PAYMENT RECEIVED"
	ActionRescheduled     = "RESCHEDULED"

	dateLayout = "02/01/2006"
)

type Config struct {
	Location        *time.Location
	FollowUpWeekday time.Weekday
}

// Service owns the creditor status/follow-up lifecycle. It keeps no
// state between calls; every operation is one store round-trip.
type Service struct {
	store       types.CreditorStore
	cache       *store.CreditorCache
	loc         *time.Location
	followUpDay time.Weekday
	now         func() time.Time
}

func NewService(st types.CreditorStore, cache *store.CreditorCache, cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:       st,
		cache:       cache,
		loc:         loc,
		followUpDay: cfg.FollowUpWeekday,
		now:         time.Now,
	}
}

func (s *Service) Create(name string) (*types.Creditor, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", types.ErrValidation)
	}
	c := &types.Creditor{
		Name:      name,
		Status:    types.StatusPending,
		LastVisit: s.now(),
		History:   []types.HistoryEntry{},
	}
	if err := s.store.CreateCreditor(c); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return c, nil
}

func (s *Service) List(filter string) ([]*types.Creditor, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		if cached, ok := s.cache.GetList(); ok {
			return cached, nil
		}
	}
	list, err := s.store.ListCreditors(filter)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		s.cache.SetList(list)
	}
	return list, nil
}

func (s *Service) Get(id string) (*types.Creditor, error) {
	return s.store.GetCreditor(id)
}

// MarkPaid records a payment and schedules the next follow-up visit.
// Calling it on an already-paid record succeeds and recomputes the
// follow-up from the current time.
func (s *Service) MarkPaid(id string) (*types.Creditor, error) {
	now := s.now().In(s.loc)
	next := NextFollowUp(now, s.followUpDay, s.loc)
	status := types.StatusPaid
	c, err := s.store.UpdateCreditor(id, types.CreditorUpdate{
		Status:    &status,
		LastVisit: &now,
		FollowUp:  &next,
		HistoryEntry: &types.HistoryEntry{
			Date:    now,
			Action:  ActionPaymentReceived,
			Details: fmt.Sprintf("Marked as paid. Next follow-up: %s", next.Format(dateLayout)),
		},
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return c, nil
}

// Reschedule moves the follow-up to a new date, which must not be
// earlier than today, and puts the record back into pending.
func (s *Service) Reschedule(id string, followUp time.Time) (*types.Creditor, error) {
	if followUp.IsZero() {
		return nil, fmt.Errorf("%w: follow-up date is required", types.ErrValidation)
	}
	now := s.now().In(s.loc)
	if followUp.Before(StartOfDay(now, s.loc)) {
		return nil, fmt.Errorf("%w: follow-up date is in the past", types.ErrValidation)
	}
	status := types.StatusPending
	c, err := s.store.UpdateCreditor(id, types.CreditorUpdate{
		Status:    &status,
		LastVisit: &now,
		FollowUp:  &followUp,
		HistoryEntry: &types.HistoryEntry{
			Date:    now,
			Action:  ActionRescheduled,
			Details: fmt.Sprintf("New follow-up date: %s", followUp.In(s.loc).Format(dateLayout)),
		},
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return c, nil
}

// Update applies a validated partial update from the PUT surface.
func (s *Service) Update(id string, upd types.CreditorUpdate) (*types.Creditor, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", types.ErrValidation)
	}
	if upd.Name != nil {
		name := strings.ToUpper(strings.TrimSpace(*upd.Name))
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", types.ErrValidation)
		}
		upd.Name = &name
	}
	if upd.FollowUp != nil && upd.ClearFollowUp {
		return nil, fmt.Errorf("%w: cannot both set and clear follow-up", types.ErrValidation)
	}
	if e := upd.HistoryEntry; e != nil {
		if strings.TrimSpace(e.Action) == "" {
			return nil, fmt.Errorf("%w: history entry requires an action", types.ErrValidation)
		}
		if e.Date.IsZero() {
			e.Date = s.now()
		}
	}
	c, err := s.store.UpdateCreditor(id, upd)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return c, nil
}

func (s *Service) Delete(id string) error {
	if err := s.store.DeleteCreditor(id); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}
