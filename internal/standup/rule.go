package standup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Weekday letters accepted by the schedule dialog, Monday first.
// R is Thursday, D is Sunday.
const weekdayAlphabet = "MTWRFSD"

// Rule describes when a room's standup auto-triggers.
type Rule struct {
	Minute   int
	Hour     int
	Weekdays []int // ordinals 1..7, Monday..Sunday, sorted ascending
}

// BadWeekdayError reports a character outside the weekday alphabet. Its
// message is shown to the user verbatim.
type BadWeekdayError struct {
	Char rune
}

func (e BadWeekdayError) Error() string {
	return fmt.Sprintf("BAD INPUT (%c)", e.Char)
}

// ParseWeekdays converts a string of weekday letters into sorted,
// deduplicated ordinals. Case-insensitive; spaces and commas are ignored;
// duplicates are redundant. Any other character aborts the parse with a
// BadWeekdayError, so no partial result ever escapes.
func ParseWeekdays(s string) ([]int, error) {
	var seen [8]bool
	for _, r := range strings.ToUpper(s) {
		switch r {
		case ' ', '\t', ',':
			continue
		}
		i := strings.IndexRune(weekdayAlphabet, r)
		if i < 0 {
			return nil, BadWeekdayError{Char: r}
		}
		seen[i+1] = true
	}
	var days []int
	for d := 1; d <= 7; d++ {
		if seen[d] {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, errors.New("no weekdays given")
	}
	return days, nil
}

// ParseClock parses a strict HH:MM string. maxHour bounds the accepted
// hour; the original trigger grammar stopped at 19 but a full day is the
// default here.
func ParseClock(s string, maxHour int) (hour, minute int, ok bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, false
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > maxHour || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// CronSpec renders the rule as a standard 5-field cron expression.
// Ordinal 7 (Sunday) maps to cron's day 0.
func (r Rule) CronSpec() string {
	dows := make([]int, 0, len(r.Weekdays))
	sunday := false
	for _, d := range r.Weekdays {
		if d == 7 {
			sunday = true
			continue
		}
		dows = append(dows, d)
	}
	if sunday {
		dows = append([]int{0}, dows...)
	}
	parts := make([]string, len(dows))
	for i, d := range dows {
		parts[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%d %d * * %s", r.Minute, r.Hour, strings.Join(parts, ","))
}

func (r Rule) String() string {
	return r.CronSpec()
}
