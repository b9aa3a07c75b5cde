package bot

import (
	"regexp"
	"strings"
)

// Commands may address the bot with a leading mention; strip one token.
var commandMention = regexp.MustCompile(`^<@!?\d+>[\s,:]*`)

var knownCommands = map[string]bool{
	"join":        true,
	"leave":       true,
	"show":        true,
	"schedule":    true,
	"sched":       true,
	"cancel":      true,
	"init":        true,
	"initiate":    true,
	"get room id": true,
}

// parseCommand matches a "standup <op>" message, case-insensitive, with
// or without a leading bot mention. Anything else is not for us.
func parseCommand(content string) (string, bool) {
	text := strings.TrimSpace(content)
	text = commandMention.ReplaceAllString(text, "")
	text = strings.ToLower(strings.TrimSpace(text))

	if !strings.HasPrefix(text, "standup") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, "standup"))
	rest = strings.Join(strings.Fields(rest), " ")
	if !knownCommands[rest] {
		return "", false
	}
	return rest, true
}
