package standup

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

const waitingNotice = "Waiting for members to complete standup...."

// Orchestrator ties the pieces together: it fans a triggered standup out
// into one interview per roster member and publishes each member's report
// as soon as their interview completes. It also carries the roster
// operations the chat commands map to.
type Orchestrator struct {
	store      Store
	msgr       Messenger
	interviews *Interviewer
}

func NewOrchestrator(store Store, msgr Messenger, timeout time.Duration) *Orchestrator {
	o := &Orchestrator{store: store, msgr: msgr}
	o.interviews = NewInterviewer(store, msgr, timeout, o.publishReport)
	return o
}

// Trigger runs a standup for the room: a room-wide notice goes out
// immediately, then every roster member gets an independent interview.
// Members whose interview cannot start (already live, unreachable) are
// skipped; the rest proceed.
func (o *Orchestrator) Trigger(ctx context.Context, roomID string) error {
	room, err := o.store.Room(ctx, roomID)
	if err != nil {
		return fmt.Errorf("load room %s: %w", roomID, err)
	}

	if err := o.msgr.SendToRoom(roomID, waitingNotice); err != nil {
		log.Printf("standup: notice to room %s failed: %v", roomID, err)
	}

	for memberID, name := range room.Members {
		if err := o.interviews.Begin(ctx, roomID, memberID, name); err != nil {
			log.Printf("standup: interview for %s in room %s not started: %v", name, roomID, err)
		}
	}
	return nil
}

// HandleReply routes an incoming message to the member's live interview.
// It reports whether the message belonged to an interview.
func (o *Orchestrator) HandleReply(ctx context.Context, memberID, channelID, text string) bool {
	return o.interviews.HandleReply(ctx, memberID, channelID, text)
}

func (o *Orchestrator) publishReport(roomID, memberID, name string) {
	rec, err := o.store.Interview(context.Background(), roomID, memberID)
	if err != nil {
		log.Printf("standup: report for %s in room %s unavailable: %v", name, roomID, err)
		return
	}
	if err := o.msgr.SendToRoom(roomID, renderReport(name, rec)); err != nil {
		log.Printf("standup: publishing report for %s to room %s failed: %v", name, roomID, err)
	}
}

func renderReport(name string, rec Interview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#### Stand Up: %s\n", name)
	writeSection(&b, "yday", rec.Yday)
	b.WriteString("\n")
	writeSection(&b, "today", rec.Today)
	b.WriteString("\n")
	writeSection(&b, "blockers", rec.Blockers)
	return b.String()
}

func writeSection(b *strings.Builder, title string, answer *string) {
	fmt.Fprintf(b, "**%s**\n", title)
	if answer != nil {
		b.WriteString(*answer)
	}
	b.WriteString("\n")
}

// Join adds the member to the room's roster. Joining twice refreshes the
// stored display name.
func (o *Orchestrator) Join(ctx context.Context, roomID, memberID, name string) error {
	return o.store.AddMember(ctx, roomID, memberID, name)
}

// Leave removes the member from the room's roster. In-flight interviews
// are unaffected.
func (o *Orchestrator) Leave(ctx context.Context, roomID, memberID string) error {
	return o.store.RemoveMember(ctx, roomID, memberID)
}

// Show renders the room's roster and schedule state.
func (o *Orchestrator) Show(ctx context.Context, roomID string) (string, error) {
	room, err := o.store.Room(ctx, roomID)
	if err != nil {
		return "", fmt.Errorf("load room %s: %w", roomID, err)
	}

	names := make([]string, 0, len(room.Members))
	for _, name := range room.Members {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("**Current Standup Settings**\n\nMembers:")
	for _, name := range names {
		b.WriteString("\n- " + name)
	}
	if room.Rule != nil {
		fmt.Fprintf(&b, "\n\nScheduled at `%s`", room.Rule.CronSpec())
	} else {
		b.WriteString("\n\nCurrently not scheduled")
	}
	return b.String(), nil
}
