package enum

// BotStatus is the attacker's controller as reported by the host.
// The host may fail to resolve it, so it is a tri-state rather than a bool.
type BotStatus uint8

const (
	BotUnknown BotStatus = iota
	BotHuman
	BotControlled
)

// BotStatusOf converts an optional host flag.
func BotStatusOf(isBot *bool) BotStatus {
	if isBot == nil {
		return BotUnknown
	}
	if *isBot {
		return BotControlled
	}
	return BotHuman
}

// IsHuman reports whether the attacker was explicitly resolved as human.
// Unknown counts as not human so unreadable flags never inflate stats.
func (b BotStatus) IsHuman() bool {
	return b == BotHuman
}

func (b BotStatus) String() string {
	switch b {
	case BotHuman:
		return "human"
	case BotControlled:
		return "bot"
	default:
		return "unknown"
	}
}
