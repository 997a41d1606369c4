package trace

// DefaultPalette is the round-robin palette of the color registry.
var DefaultPalette = []string{
	"#6366f1", // indigo
	"#f59e0b", // amber
	"#10b981", // emerald
	"#ef4444", // red
	"#3b82f6", // blue
	"#ec4899", // pink
	"#14b8a6", // teal
	"#8b5cf6", // violet
}

// Config defines the naming conventions the engine relies on to interpret a
// stream. All fields have working defaults in DefaultConfig.
type Config struct {
	// SelfName is the participant graph node of the local agent.
	SelfName string

	// AgentName is the author of finished assistant messages when the Done
	// event carries none.
	AgentName string

	// ExchangeToolName is the tool that delegates to another agent.
	ExchangeToolName string

	// ContactArg and MessageArg name the exchange tool arguments holding the
	// target participant and the outbound message.
	ContactArg string
	MessageArg string

	// Palette overrides DefaultPalette.
	Palette []string
}

// DefaultConfig matches the personal agent tool set.
var DefaultConfig = Config{
	SelfName:         "me",
	AgentName:        "agent",
	ExchangeToolName: "send_message_to_contact",
	ContactArg:       "contact_name",
	MessageArg:       "message",
	Palette:          DefaultPalette,
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.SelfName == "" {
		c.SelfName = DefaultConfig.SelfName
	}
	if c.AgentName == "" {
		c.AgentName = DefaultConfig.AgentName
	}
	if c.ExchangeToolName == "" {
		c.ExchangeToolName = DefaultConfig.ExchangeToolName
	}
	if c.ContactArg == "" {
		c.ContactArg = DefaultConfig.ContactArg
	}
	if c.MessageArg == "" {
		c.MessageArg = DefaultConfig.MessageArg
	}
	if len(c.Palette) == 0 {
		c.Palette = DefaultPalette
	}
	return c
}
