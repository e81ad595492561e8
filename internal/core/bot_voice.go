// /internal/core/bot_voice.go
package core

// BotVoice looks up where users are in voice.
type BotVoice interface {
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
}

type VoiceState struct {
	ChannelID string
	UserID    string
}
