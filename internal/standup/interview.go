package standup

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is how long an interview waits for a valid reply before
// it is abandoned.
const DefaultTimeout = 30 * time.Minute

type question struct {
	prompt string // format string taking the member's display name
	field  string
}

var questions = []question{
	{prompt: "@%s, what did you do last day?", field: FieldYday},
	{prompt: "@%s, what will you do today?", field: FieldToday},
	{prompt: "@%s, any blockers?", field: FieldBlockers},
}

const interviewBanner = "#### Collecting today's standup"

// Replies may address the bot; strip one leading mention token.
var mentionPrefix = regexp.MustCompile(`^<@!?\w+>[\s,:]*`)

// CompleteFunc runs after a member has answered every question.
type CompleteFunc func(roomID, memberID, name string)

// session is one member's in-flight interview. Sessions live only in
// memory; a restart discards them and leaves any recorded answers for the
// next cycle to overwrite.
type session struct {
	roomID      string
	memberID    string
	name        string
	dmChannelID string
	index       int
	timer       *time.Timer
}

// Interviewer drives members through the question sequence over their
// private channels. One live session per member; replies are correlated
// to a session by the private channel established at start.
type Interviewer struct {
	store    Store
	msgr     Messenger
	timeout  time.Duration
	complete CompleteFunc

	mu       sync.Mutex
	sessions map[string]*session // keyed by member id
}

func NewInterviewer(store Store, msgr Messenger, timeout time.Duration, complete CompleteFunc) *Interviewer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Interviewer{
		store:    store,
		msgr:     msgr,
		timeout:  timeout,
		complete: complete,
		sessions: make(map[string]*session),
	}
}

// Begin opens the member's private channel and asks the first question.
// A member with an outstanding session is rejected rather than restarted,
// so two sessions can never race on one interview record.
func (iv *Interviewer) Begin(ctx context.Context, roomID, memberID, name string) error {
	dm, err := iv.msgr.OpenDirect(memberID, name)
	if err != nil {
		return fmt.Errorf("open direct channel for %s: %w", name, err)
	}

	sess := &session{
		roomID:      roomID,
		memberID:    memberID,
		name:        name,
		dmChannelID: dm,
	}

	iv.mu.Lock()
	if _, live := iv.sessions[memberID]; live {
		iv.mu.Unlock()
		return fmt.Errorf("interview already in progress for %s", name)
	}
	iv.sessions[memberID] = sess
	sess.timer = time.AfterFunc(iv.timeout, func() { iv.expire(sess) })
	iv.mu.Unlock()

	if err := iv.msgr.SendDirect(dm, interviewBanner); err != nil {
		log.Printf("interview: banner to %s failed: %v", name, err)
	}
	iv.mu.Lock()
	iv.ask(sess)
	iv.mu.Unlock()
	return nil
}

// ask sends the current question. Callers hold iv.mu.
func (iv *Interviewer) ask(sess *session) {
	q := questions[sess.index]
	if err := iv.msgr.SendDirect(sess.dmChannelID, fmt.Sprintf(q.prompt, sess.name)); err != nil {
		log.Printf("interview: question %d to %s failed: %v", sess.index+1, sess.name, err)
	}
}

// HandleReply feeds an incoming message from memberID into their live
// session, if any, and reports whether the message was consumed. A reply
// from outside the session's private channel is discarded and the same
// question re-asked; the question index and the stored record are
// untouched.
func (iv *Interviewer) HandleReply(ctx context.Context, memberID, channelID, text string) bool {
	iv.mu.Lock()

	sess, ok := iv.sessions[memberID]
	if !ok {
		iv.mu.Unlock()
		return false
	}

	if channelID != sess.dmChannelID {
		log.Printf("interview: %s replied in channel %s instead of their direct channel, re-asking", sess.name, channelID)
		iv.ask(sess)
		iv.mu.Unlock()
		return true
	}

	answer := stripMention(text)
	q := questions[sess.index]
	if err := iv.store.MergeAnswer(ctx, sess.roomID, memberID, q.field, answer); err != nil {
		log.Printf("interview: recording %s answer for %s failed: %v", q.field, sess.name, err)
		iv.ask(sess)
		iv.mu.Unlock()
		return true
	}

	sess.index++
	if sess.index >= len(questions) {
		sess.timer.Stop()
		delete(iv.sessions, memberID)
		iv.mu.Unlock()
		if iv.complete != nil {
			iv.complete(sess.roomID, sess.memberID, sess.name)
		}
		return true
	}

	sess.timer.Reset(iv.timeout)
	iv.ask(sess)
	iv.mu.Unlock()
	return true
}

// Live reports whether memberID has an outstanding session.
func (iv *Interviewer) Live(memberID string) bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	_, ok := iv.sessions[memberID]
	return ok
}

func (iv *Interviewer) expire(sess *session) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	cur, ok := iv.sessions[sess.memberID]
	if !ok || cur != sess {
		return
	}
	delete(iv.sessions, sess.memberID)
	log.Printf("interview: timed out waiting for %s on question %d (room %s)", sess.name, sess.index+1, sess.roomID)
}

func stripMention(text string) string {
	return strings.TrimSpace(mentionPrefix.ReplaceAllString(strings.TrimSpace(text), ""))
}
