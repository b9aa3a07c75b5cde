package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Messenger sends engine messages over a discordgo session. Room ids are
// channel ids; private channels come from UserChannelCreate, which
// returns the existing DM channel when one is already open.
type Messenger struct {
	session *discordgo.Session
}

func (m *Messenger) SendToRoom(roomID, text string) error {
	_, err := m.session.ChannelMessageSend(roomID, text)
	return err
}

func (m *Messenger) OpenDirect(memberID, name string) (string, error) {
	channel, err := m.session.UserChannelCreate(memberID)
	if err != nil {
		return "", fmt.Errorf("create direct channel for %s: %w", name, err)
	}
	return channel.ID, nil
}

func (m *Messenger) SendDirect(channelID, text string) error {
	_, err := m.session.ChannelMessageSend(channelID, text)
	return err
}
