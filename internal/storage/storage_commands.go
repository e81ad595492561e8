package storage

import "time"

type CommandHistoryRecord struct {
	InvocationID string    `json:"invocation_id"`
	ChannelID    string    `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	GuildName    string    `json:"guild_name"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Command      string    `json:"command"`
	Param        string    `json:"param"`
	Datetime     time.Time `json:"datetime"`
}

// AppendCommandToHistory appends a command history record for a guild
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) {
		r.CommandsHistory = keepLast(append(r.CommandsHistory, command), commandHistoryLimit)
	})
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	record, err := s.read(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}
