package standup

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	mu      sync.Mutex
	rooms   map[string]*RoomConfig
	answers map[string]map[string]string // room/member -> field -> text

	mergeErr   error
	setRuleErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[string]*RoomConfig),
		answers: make(map[string]map[string]string),
	}
}

func (f *fakeStore) room(roomID string) *RoomConfig {
	if r, ok := f.rooms[roomID]; ok {
		return r
	}
	r := &RoomConfig{RoomID: roomID, Members: make(map[string]string)}
	f.rooms[roomID] = r
	return r
}

func (f *fakeStore) Room(ctx context.Context, roomID string) (RoomConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := f.room(roomID)
	cfg := RoomConfig{RoomID: roomID, Members: make(map[string]string), Rule: src.Rule}
	for id, name := range src.Members {
		cfg.Members[id] = name
	}
	return cfg, nil
}

func (f *fakeStore) AllRooms(ctx context.Context) ([]RoomConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.rooms))
	for id := range f.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []RoomConfig
	for _, id := range ids {
		out = append(out, *f.rooms[id])
	}
	return out, nil
}

func (f *fakeStore) AddMember(ctx context.Context, roomID, memberID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room(roomID).Members[memberID] = name
	return nil
}

func (f *fakeStore) RemoveMember(ctx context.Context, roomID, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.room(roomID).Members, memberID)
	return nil
}

func (f *fakeStore) SetRule(ctx context.Context, roomID string, rule Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setRuleErr != nil {
		return f.setRuleErr
	}
	f.room(roomID).Rule = &rule
	return nil
}

func (f *fakeStore) ClearRule(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room(roomID).Rule = nil
	return nil
}

func (f *fakeStore) MergeAnswer(ctx context.Context, roomID, memberID, field, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mergeErr != nil {
		return f.mergeErr
	}
	key := roomID + "/" + memberID
	if f.answers[key] == nil {
		f.answers[key] = make(map[string]string)
	}
	f.answers[key][field] = text
	return nil
}

func (f *fakeStore) Interview(ctx context.Context, roomID, memberID string) (Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rec Interview
	fields := f.answers[roomID+"/"+memberID]
	if v, ok := fields[FieldYday]; ok {
		s := v
		rec.Yday = &s
	}
	if v, ok := fields[FieldToday]; ok {
		s := v
		rec.Today = &s
	}
	if v, ok := fields[FieldBlockers]; ok {
		s := v
		rec.Blockers = &s
	}
	return rec, nil
}

func (f *fakeStore) answerCount(roomID, memberID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers[roomID+"/"+memberID])
}

// fakeMessenger records everything sent. Direct channels are derived from
// the member id so tests can address them.
type fakeMessenger struct {
	mu      sync.Mutex
	room    map[string][]string
	direct  map[string][]string
	openErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		room:   make(map[string][]string),
		direct: make(map[string][]string),
	}
}

func dmChannel(memberID string) string {
	return "dm-" + memberID
}

func (f *fakeMessenger) SendToRoom(roomID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room[roomID] = append(f.room[roomID], text)
	return nil
}

func (f *fakeMessenger) OpenDirect(memberID, name string) (string, error) {
	if f.openErr != nil {
		return "", f.openErr
	}
	return dmChannel(memberID), nil
}

func (f *fakeMessenger) SendDirect(channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[channelID] = append(f.direct[channelID], text)
	return nil
}

func (f *fakeMessenger) roomMessages(roomID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.room[roomID]...)
}

func (f *fakeMessenger) directMessages(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.direct[channelID]...)
}

func (f *fakeMessenger) lastDirect(channelID string) string {
	msgs := f.directMessages(channelID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

var _ Store = (*fakeStore)(nil)
var _ Messenger = (*fakeMessenger)(nil)

func strPtr(s string) *string { return &s }

func errf(format string, args ...any) error { return fmt.Errorf(format, args...) }
