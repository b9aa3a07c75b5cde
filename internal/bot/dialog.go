package bot

import (
	"errors"
	"sync"

	"github.com/amirhmoradi/standup-bot/internal/standup"
)

const (
	askWeekdaysPrompt = "What days of the week should this run for (MTWRFSD) (eq: Monday, Tuesday, Wednesday, thuRsday, Friday, Saturday, sunDay) ?"
	askTimePrompt     = "What time should this run at (HH:mm)?"
)

// dialogState tracks one user's progress through the two-step schedule
// dialog: weekdays first, then time.
type dialogState struct {
	weekdays []int
}

// scheduleDialogs is the pending-dialog table, keyed by room + user so a
// user can configure different rooms independently. Dialogs are ephemeral
// and never persisted.
type scheduleDialogs struct {
	mu      sync.Mutex
	pending map[string]*dialogState
}

func newScheduleDialogs() *scheduleDialogs {
	return &scheduleDialogs{pending: make(map[string]*dialogState)}
}

func dialogKey(roomID, userID string) string {
	return roomID + ":" + userID
}

// begin opens (or restarts) the dialog for key.
func (d *scheduleDialogs) begin(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[key] = &dialogState{}
}

func (d *scheduleDialogs) active(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// advance feeds one reply into the dialog. It returns the text to send
// back (empty means stay silent and keep waiting) and, once both steps
// are done, the completed rule. A weekday reply containing a character
// outside the alphabet aborts the whole attempt, as the original did; a
// malformed time simply leaves the dialog waiting for a valid one.
func (d *scheduleDialogs) advance(key, text string, maxHour int) (string, *standup.Rule) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, ok := d.pending[key]
	if !ok {
		return "", nil
	}

	if state.weekdays == nil {
		days, err := standup.ParseWeekdays(text)
		if err != nil {
			var bad standup.BadWeekdayError
			if errors.As(err, &bad) {
				delete(d.pending, key)
				return err.Error(), nil
			}
			// Nothing usable in the reply; keep waiting.
			return "", nil
		}
		state.weekdays = days
		return askTimePrompt, nil
	}

	hour, minute, ok := standup.ParseClock(text, maxHour)
	if !ok {
		return "", nil
	}
	rule := &standup.Rule{Minute: minute, Hour: hour, Weekdays: state.weekdays}
	delete(d.pending, key)
	return "", rule
}
