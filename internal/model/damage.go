package model

import (
	"exstats/internal/model/enum"
)

// Attacker is the participant credited with a damage event.
type Attacker struct {
	// SteamID64 is the host's raw platform id; 0 means the host could not resolve one.
	SteamID64 uint64
	Bot       enum.BotStatus
}

// DamageEvent is one "player dealt damage" record from the game host.
type DamageEvent struct {
	Attacker  *Attacker
	HitGroup  int
	DmgHealth int
	DmgArmor  int
}

// Hit is an accepted event reduced to what the store needs.
type Hit struct {
	Identity  Identity
	Region    enum.Region
	DmgHealth int64
	DmgArmor  int64
}
