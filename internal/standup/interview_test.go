package standup

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestInterviewHappyPath(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	var completed []string
	iv := NewInterviewer(store, msgr, time.Minute, func(roomID, memberID, name string) {
		completed = append(completed, roomID+"/"+memberID+"/"+name)
	})
	ctx := context.Background()

	if err := iv.Begin(ctx, "R1", "alice", "Alice"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	dm := dmChannel("alice")
	msgs := msgr.directMessages(dm)
	if len(msgs) != 2 {
		t.Fatalf("direct messages after begin = %d, want banner + question", len(msgs))
	}
	if msgs[0] != "#### Collecting today's standup" {
		t.Errorf("banner = %q", msgs[0])
	}
	if msgs[1] != "@Alice, what did you do last day?" {
		t.Errorf("first question = %q", msgs[1])
	}

	for i, reply := range []string{"shipped X", "ship Y", "none"} {
		if !iv.HandleReply(ctx, "alice", dm, reply) {
			t.Fatalf("reply %d not consumed", i+1)
		}
	}

	rec, _ := store.Interview(ctx, "R1", "alice")
	if rec.Yday == nil || *rec.Yday != "shipped X" {
		t.Errorf("yday = %v", rec.Yday)
	}
	if rec.Today == nil || *rec.Today != "ship Y" {
		t.Errorf("today = %v", rec.Today)
	}
	if rec.Blockers == nil || *rec.Blockers != "none" {
		t.Errorf("blockers = %v", rec.Blockers)
	}

	if len(completed) != 1 || completed[0] != "R1/alice/Alice" {
		t.Errorf("completions = %v, want exactly one for alice", completed)
	}
	if iv.Live("alice") {
		t.Error("session still live after completion")
	}
}

func TestInterviewQuestionSequence(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	iv := NewInterviewer(store, msgr, time.Minute, nil)
	ctx := context.Background()

	iv.Begin(ctx, "R1", "bob", "Bob")
	dm := dmChannel("bob")

	iv.HandleReply(ctx, "bob", dm, "fixed the build")
	if got := msgr.lastDirect(dm); got != "@Bob, what will you do today?" {
		t.Errorf("second question = %q", got)
	}
	iv.HandleReply(ctx, "bob", dm, "review PRs")
	if got := msgr.lastDirect(dm); got != "@Bob, any blockers?" {
		t.Errorf("third question = %q", got)
	}
}

func TestInterviewWrongChannelReply(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	iv := NewInterviewer(store, msgr, time.Minute, nil)
	ctx := context.Background()

	iv.Begin(ctx, "R1", "alice", "Alice")
	dm := dmChannel("alice")

	// Reply in the standup room instead of the direct channel.
	if !iv.HandleReply(ctx, "alice", "R1", "shipped X") {
		t.Fatal("misdirected reply should still be consumed by the session")
	}

	if store.answerCount("R1", "alice") != 0 {
		t.Error("misdirected reply was recorded")
	}
	if got := msgr.lastDirect(dm); got != "@Alice, what did you do last day?" {
		t.Errorf("re-asked question = %q", got)
	}

	// The machine did not advance: a correct reply answers question one.
	iv.HandleReply(ctx, "alice", dm, "shipped X")
	rec, _ := store.Interview(ctx, "R1", "alice")
	if rec.Yday == nil || *rec.Yday != "shipped X" {
		t.Errorf("yday after correct reply = %v", rec.Yday)
	}
	if rec.Today != nil {
		t.Errorf("today populated early: %v", rec.Today)
	}
}

func TestInterviewStripsBotMention(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	iv := NewInterviewer(store, msgr, time.Minute, nil)
	ctx := context.Background()

	iv.Begin(ctx, "R1", "alice", "Alice")
	iv.HandleReply(ctx, "alice", dmChannel("alice"), "<@900100> shipped X")

	rec, _ := store.Interview(ctx, "R1", "alice")
	if rec.Yday == nil || *rec.Yday != "shipped X" {
		t.Errorf("yday = %v, want mention stripped", rec.Yday)
	}
}

func TestInterviewTimeout(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
	}{
		{name: "no answers", answers: nil},
		{name: "one answer", answers: []string{"shipped X"}},
		{name: "two answers", answers: []string{"shipped X", "ship Y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			msgr := newFakeMessenger()
			completions := 0
			iv := NewInterviewer(store, msgr, 30*time.Millisecond, func(string, string, string) {
				completions++
			})
			ctx := context.Background()

			iv.Begin(ctx, "R1", "alice", "Alice")
			dm := dmChannel("alice")
			for _, reply := range tt.answers {
				iv.HandleReply(ctx, "alice", dm, reply)
			}

			deadline := time.Now().Add(2 * time.Second)
			for iv.Live("alice") && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			if iv.Live("alice") {
				t.Fatal("session never timed out")
			}

			if got := store.answerCount("R1", "alice"); got != len(tt.answers) {
				t.Errorf("recorded answers = %d, want %d", got, len(tt.answers))
			}
			if completions != 0 {
				t.Error("timed-out session emitted a report")
			}
			if iv.HandleReply(ctx, "alice", dm, "late") {
				t.Error("reply consumed after timeout")
			}
		})
	}
}

func TestInterviewTimeoutRestartsPerAnswer(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	iv := NewInterviewer(store, msgr, 60*time.Millisecond, nil)
	ctx := context.Background()

	iv.Begin(ctx, "R1", "alice", "Alice")
	dm := dmChannel("alice")

	// Keep answering just inside the window; the session must outlive a
	// single timeout span.
	time.Sleep(40 * time.Millisecond)
	iv.HandleReply(ctx, "alice", dm, "shipped X")
	time.Sleep(40 * time.Millisecond)
	if !iv.Live("alice") {
		t.Fatal("session expired although every wait stayed inside the window")
	}
}

func TestInterviewRejectsSecondSession(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	iv := NewInterviewer(store, msgr, time.Minute, nil)
	ctx := context.Background()

	if err := iv.Begin(ctx, "R1", "alice", "Alice"); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	err := iv.Begin(ctx, "R1", "alice", "Alice")
	if err == nil {
		t.Fatal("second Begin succeeded while a session was live")
	}
	if !strings.Contains(err.Error(), "already in progress") {
		t.Errorf("unexpected error: %v", err)
	}

	// The live session is intact.
	iv.HandleReply(ctx, "alice", dmChannel("alice"), "shipped X")
	if store.answerCount("R1", "alice") != 1 {
		t.Error("live session lost after rejected restart")
	}
}

func TestInterviewOpenDirectFailure(t *testing.T) {
	store := newFakeStore()
	msgr := newFakeMessenger()
	msgr.openErr = errf("dm unavailable")
	iv := NewInterviewer(store, msgr, time.Minute, nil)

	if err := iv.Begin(context.Background(), "R1", "alice", "Alice"); err == nil {
		t.Fatal("Begin succeeded without a direct channel")
	}
	if iv.Live("alice") {
		t.Error("session registered despite failed channel open")
	}
}
