package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	Token string
	// Chats that receive the daily queue
	ChatIDs []int64
	// Long polling timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig(token string, chatIDs []int64) *BotConfig {
	return &BotConfig{
		Token:         token,
		ChatIDs:       chatIDs,
		UpdateTimeout: 60,
	}
}
