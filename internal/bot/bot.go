// Package bot adapts the standup engine to Discord: it implements the
// engine's Messenger over a discordgo session and maps incoming text
// commands onto engine operations.
package bot

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/amirhmoradi/standup-bot/internal/standup"
)

type Bot struct {
	session *discordgo.Session
	core    *standup.Orchestrator
	sched   *standup.Scheduler
	dialogs *scheduleDialogs
	maxHour int
}

func New(token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		dialogs: newScheduleDialogs(),
		maxHour: 23,
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return bot, nil
}

// Messenger exposes the session as the engine's transport.
func (b *Bot) Messenger() standup.Messenger {
	return &Messenger{session: b.session}
}

// Bind attaches the engine pieces. Must be called before Start; the
// orchestrator needs the Messenger from this bot, so construction happens
// in two steps.
func (b *Bot) Bind(core *standup.Orchestrator, sched *standup.Scheduler, maxHour int) {
	b.core = core
	b.sched = sched
	if maxHour > 0 {
		b.maxHour = maxHour
	}
}

func (b *Bot) Start() error {
	if b.core == nil || b.sched == nil {
		return fmt.Errorf("bot started before Bind")
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author == nil || m.Author.Bot {
		return
	}

	ctx := context.Background()

	// A live interview owns every message from its member until it ends.
	if b.core.HandleReply(ctx, m.Author.ID, m.ChannelID, m.Content) {
		return
	}

	key := dialogKey(m.ChannelID, m.Author.ID)
	if b.dialogs.active(key) {
		b.continueScheduleDialog(ctx, m, key)
		return
	}

	cmd, ok := parseCommand(m.Content)
	if !ok {
		return
	}
	b.dispatch(ctx, m, cmd)
}

func (b *Bot) continueScheduleDialog(ctx context.Context, m *discordgo.MessageCreate, key string) {
	reply, rule := b.dialogs.advance(key, m.Content, b.maxHour)
	if rule != nil {
		if err := b.sched.Set(ctx, m.ChannelID, *rule); err != nil {
			log.Printf("bot: setting schedule for room %s failed: %v", m.ChannelID, err)
			reply = "Could not set the schedule, please try again."
		} else {
			reply = fmt.Sprintf("Standup scheduled at `%s`", rule.CronSpec())
		}
	}
	if reply != "" {
		b.reply(m.ChannelID, reply)
	}
}

func (b *Bot) dispatch(ctx context.Context, m *discordgo.MessageCreate, cmd string) {
	roomID := m.ChannelID

	switch cmd {
	case "join":
		name := displayName(m)
		if err := b.core.Join(ctx, roomID, m.Author.ID, name); err != nil {
			log.Printf("bot: join failed for %s in room %s: %v", name, roomID, err)
			b.reply(roomID, "Could not add you to the standup, please try again.")
			return
		}
		b.reply(roomID, fmt.Sprintf("Added %s to the list of standup members", name))

	case "leave":
		name := displayName(m)
		if err := b.core.Leave(ctx, roomID, m.Author.ID); err != nil {
			log.Printf("bot: leave failed for %s in room %s: %v", name, roomID, err)
			b.reply(roomID, "Could not remove you from the standup, please try again.")
			return
		}
		b.reply(roomID, fmt.Sprintf("Removed %s from the list of standup members", name))

	case "show":
		text, err := b.core.Show(ctx, roomID)
		if err != nil {
			log.Printf("bot: show failed for room %s: %v", roomID, err)
			return
		}
		b.reply(roomID, text)

	case "schedule", "sched":
		b.dialogs.begin(dialogKey(roomID, m.Author.ID))
		b.reply(roomID, askWeekdaysPrompt)

	case "cancel":
		if err := b.sched.Cancel(ctx, roomID); err != nil {
			log.Printf("bot: cancel failed for room %s: %v", roomID, err)
			return
		}
		b.reply(roomID, "Cancelled the current standup")

	case "init", "initiate":
		if err := b.core.Trigger(ctx, roomID); err != nil {
			log.Printf("bot: manual trigger failed for room %s: %v", roomID, err)
		}

	case "get room id":
		b.reply(roomID, fmt.Sprintf("The current room Id is %s", roomID))
	}
}

func (b *Bot) reply(channelID, text string) {
	if _, err := b.session.ChannelMessageSend(channelID, text); err != nil {
		log.Printf("bot: reply to channel %s failed: %v", channelID, err)
	}
}

func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	return m.Author.Username
}
