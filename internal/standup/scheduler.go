package standup

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// TriggerFunc is invoked when a room's standup fires.
type TriggerFunc func(roomID string)

// Scheduler owns the room -> cron-entry table. Entries are never
// persisted; only rules are, and RestoreAll rebuilds the entries from
// them after the store has loaded.
type Scheduler struct {
	cron    *cron.Cron
	store   Store
	trigger TriggerFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewScheduler(store Store, trigger TriggerFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		store:   store,
		trigger: trigger,
		entries: make(map[string]cron.EntryID),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron runner; a context is returned by the underlying
// runner but jobs here are short-lived fan-outs, so it is not awaited.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Set replaces the room's schedule: the previous entry is removed before
// the new one is armed, so the old timer can never fire again. The rule
// is persisted before the entry is recorded; if persisting fails the new
// entry is removed and the room ends up unscheduled.
func (s *Scheduler) Set(ctx context.Context, roomID string, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[roomID]; ok {
		s.cron.Remove(old)
		delete(s.entries, roomID)
	}

	id, err := s.cron.AddFunc(rule.CronSpec(), func() { s.trigger(roomID) })
	if err != nil {
		return fmt.Errorf("arm schedule for room %s: %w", roomID, err)
	}
	if err := s.store.SetRule(ctx, roomID, rule); err != nil {
		s.cron.Remove(id)
		return fmt.Errorf("persist schedule for room %s: %w", roomID, err)
	}
	s.entries[roomID] = id
	log.Printf("scheduler: room %s scheduled at %s", roomID, rule.CronSpec())
	return nil
}

// Cancel removes the room's entry and clears the persisted rule. It is a
// no-op when nothing is scheduled.
func (s *Scheduler) Cancel(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[roomID]; ok {
		s.cron.Remove(id)
		delete(s.entries, roomID)
		log.Printf("scheduler: room %s schedule cancelled", roomID)
	}
	return s.store.ClearRule(ctx, roomID)
}

// RestoreAll re-arms an entry for every persisted room with a rule. Run
// once at startup, after the store is reachable. Stored rules are not
// rewritten. A room whose rule fails to arm is logged and skipped so one
// corrupt rule cannot take down the rest.
func (s *Scheduler) RestoreAll(ctx context.Context) error {
	rooms, err := s.store.AllRooms(ctx)
	if err != nil {
		return fmt.Errorf("load room configurations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range rooms {
		if room.Rule == nil {
			continue
		}
		roomID := room.RoomID
		id, err := s.cron.AddFunc(room.Rule.CronSpec(), func() { s.trigger(roomID) })
		if err != nil {
			log.Printf("scheduler: skipping room %s, cannot arm %q: %v", roomID, room.Rule.CronSpec(), err)
			continue
		}
		if old, ok := s.entries[roomID]; ok {
			s.cron.Remove(old)
		}
		s.entries[roomID] = id
		log.Printf("scheduler: restored room %s at %s", roomID, room.Rule.CronSpec())
	}
	return nil
}

// Scheduled reports whether the room currently has an armed entry.
func (s *Scheduler) Scheduled(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[roomID]
	return ok
}
