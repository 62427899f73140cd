package model

import (
	"exstats/internal/model/enum"
)

// PlayerStats is one row of the hits table.
// Fields carry no gorm defaults so that inserts always write every counter.
type PlayerStats struct {
	SteamID   Identity `gorm:"column:steam_id;primaryKey;size:32"`
	DmgHealth int64    `gorm:"column:dmg_health;not null"`
	DmgArmor  int64    `gorm:"column:dmg_armor;not null"`
	Head      int64    `gorm:"column:head;not null"`
	Chest     int64    `gorm:"column:chest;not null"`
	Belly     int64    `gorm:"column:belly;not null"`
	LeftArm   int64    `gorm:"column:left_arm;not null"`
	RightArm  int64    `gorm:"column:right_arm;not null"`
	LeftLeg   int64    `gorm:"column:left_leg;not null"`
	RightLeg  int64    `gorm:"column:right_leg;not null"`
	Neck      int64    `gorm:"column:neck;not null"`
}

// StatsFromHit builds the row a first hit would create.
func StatsFromHit(h Hit) PlayerStats {
	row := PlayerStats{
		SteamID:   h.Identity,
		DmgHealth: h.DmgHealth,
		DmgArmor:  h.DmgArmor,
	}
	if p := row.counter(h.Region); p != nil {
		*p = 1
	}
	return row
}

// RegionHits returns the counter for r, 0 for RegionNone.
func (s PlayerStats) RegionHits(r enum.Region) int64 {
	if p := s.counter(r); p != nil {
		return *p
	}
	return 0
}

// RegionCounts returns every region counter keyed by region.
func (s PlayerStats) RegionCounts() map[enum.Region]int64 {
	out := make(map[enum.Region]int64, enum.RegionCount)
	for _, r := range enum.Regions() {
		out[r] = s.RegionHits(r)
	}
	return out
}

func (s *PlayerStats) counter(r enum.Region) *int64 {
	switch r {
	case enum.RegionHead:
		return &s.Head
	case enum.RegionChest:
		return &s.Chest
	case enum.RegionBelly:
		return &s.Belly
	case enum.RegionLeftArm:
		return &s.LeftArm
	case enum.RegionRightArm:
		return &s.RightArm
	case enum.RegionLeftLeg:
		return &s.LeftLeg
	case enum.RegionRightLeg:
		return &s.RightLeg
	case enum.RegionNeck:
		return &s.Neck
	default:
		return nil
	}
}
